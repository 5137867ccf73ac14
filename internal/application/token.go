package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued bearer tokens.
const DefaultTokenTTL = 24 * time.Hour

// TokenManager issues and verifies signed bearer tokens.
type TokenManager interface {
	Issue(user User) (IssuedToken, error)
	Verify(token string) (Principal, error)
}

type tokenClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs HS256 tokens with a server-held secret. There is no
// revocation list: a token stays valid until it expires.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	leeway time.Duration
}

// NewJWTManager constructs a manager. A zero ttl selects DefaultTokenTTL and a nil now selects time.Now.
func NewJWTManager(secret string, ttl time.Duration, now func() time.Time) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// WithLeeway returns a copy of the manager that tolerates the given clock skew on expiry.
func (m *JWTManager) WithLeeway(leeway time.Duration) *JWTManager {
	clone := *m
	clone.leeway = leeway
	return &clone
}

// Issue signs a token carrying the user's identity and current role.
func (m *JWTManager) Issue(user User) (IssuedToken, error) {
	if user.ID == "" {
		return IssuedToken{}, errors.New("cannot issue token without user id")
	}
	issuedAt := m.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature and expiry. Every failure is reported as ErrInvalidToken.
func (m *JWTManager) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithLeeway(m.leeway),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     Role(claims.Role),
	}, nil
}
