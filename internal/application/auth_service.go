package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// placeholderEmailDomain completes addresses for registrations that omit an email.
const placeholderEmailDomain = "liveboard.local"

// AuthService coordinates login, registration and token refresh, and is the
// single place that decides whether a bearer token is acceptable.
type AuthService struct {
	users       Repository[User]
	hasher      PasswordHasher
	tokens      TokenManager
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	// dummyHash is verified against for unknown identifiers so both failure
	// paths spend comparable time in the hasher.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users Repository[User], hasher PasswordHasher, tokens TokenManager, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(users, hasher, tokens, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users Repository[User], hasher PasswordHasher, tokens TokenManager, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultPasswordCost)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if s.tokens == nil {
		return fmt.Errorf("token manager not configured")
	}
	return nil
}

// Login authenticates by username or email. Unknown identifiers and wrong
// passwords both fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	identifier := strings.TrimSpace(params.Identifier)
	logger := s.loggerWith(ctx, "Login", "identifier", identifier)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "login succeeded")
	}()

	vErr := &ValidationError{}
	if identifier == "" {
		vErr.add("emailOrUsername", "username or email is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var user User
	user, err = s.findByIdentifier(ctx, identifier)
	if errors.Is(err, ErrNotFound) {
		_ = s.hasher.Verify(s.dummyDigest(), params.Password)
		err = ErrInvalidCredentials
		return
	}
	if err != nil {
		return
	}

	if verifyErr := s.hasher.Verify(user.PasswordHash, params.Password); verifyErr != nil {
		if !errors.Is(verifyErr, ErrInvalidCredentials) {
			logger.WarnContext(ctx, "stored password digest could not be checked", "error", verifyErr)
		}
		err = ErrInvalidCredentials
		return
	}

	if !user.Status.CanSignIn() {
		err = ErrAccountDisabled
		return
	}

	now := s.now()
	user, err = s.users.Update(ctx, user.ID, func(current User) (User, error) {
		current.LastLogin = &now
		return current, nil
	}, nil)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	result, err = s.issue(user)
	return
}

// Register creates a self-service account and signs it in immediately.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	username := strings.TrimSpace(params.Username)
	logger := s.loggerWith(ctx, "Register", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "role", result.User.Role).InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}

	email := normalizeEmail(params.Email)
	if email == "" && username != "" {
		email = strings.ToLower(username) + "@" + placeholderEmailDomain
	} else if email != "" && !validEmail(email) {
		vErr.add("email", "email is invalid")
	}

	role := RoleViewer
	if strings.TrimSpace(params.Role) != "" {
		parsed, ok := ParseRole(params.Role)
		if !ok {
			vErr.add("role", "role is invalid")
		}
		role = parsed
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}
	// Administrators are created by other administrators or at bootstrap.
	if role == RoleAdmin {
		err = ErrUnauthorized
		return
	}

	var digest string
	digest, err = s.hasher.Hash(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := User{
		ID:           s.idGenerator(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Role:         role,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.users.Insert(ctx, user.ID, user, userIdentityConflict); err != nil {
		err = mapRepoError(err)
		return
	}

	result, err = s.issue(user)
	return
}

// Me returns the live record behind a verified principal. Its role may differ
// from the role embedded in the token.
func (s *AuthService) Me(ctx context.Context, principal Principal) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	user, err = s.users.Get(ctx, principal.UserID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidToken
		}
		s.loggerWith(ctx, "Me", "user_id", principal.UserID).ErrorContext(ctx, "profile lookup failed", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Logout is acknowledged without server-side effect; the token stays valid until expiry.
func (s *AuthService) Logout(ctx context.Context, principal Principal) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	s.loggerWith(ctx, "Logout", "user_id", principal.UserID).InfoContext(ctx, "logout acknowledged")
	return nil
}

// Refresh re-issues a token from the live user record, picking up role changes.
func (s *AuthService) Refresh(ctx context.Context, principal Principal) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Refresh", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("role", result.User.Role).InfoContext(ctx, "token refreshed")
	}()

	var user User
	user, err = s.users.Get(ctx, principal.UserID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidToken
		}
		return
	}
	if !user.Status.CanSignIn() {
		err = ErrAccountDisabled
		return
	}

	result, err = s.issue(user)
	return
}

// ValidateToken verifies a bearer token and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if err := s.ready(); err != nil {
		return Principal{}, err
	}
	principal, err := s.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		s.loggerWith(ctx, "ValidateToken").DebugContext(ctx, "token rejected", "error_kind", ErrorKind(err))
		return Principal{}, ErrInvalidToken
	}
	return principal, nil
}

func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("liveboard-unknown-user")
	})
	return s.dummyHash
}

func (s *AuthService) issue(user User) (AuthResult, error) {
	issued, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return User{}, err
	}
	// An exact username match wins over an email match.
	var byEmail *User
	for i := range users {
		if users[i].Username == identifier {
			return users[i], nil
		}
		if byEmail == nil && strings.EqualFold(users[i].Email, identifier) {
			byEmail = &users[i]
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return User{}, ErrNotFound
}

// userIdentityConflict reports whether two users share a login identifier.
// Usernames compare exactly with usernames and case-insensitively with emails,
// so one identifier never resolves to two accounts.
func userIdentityConflict(candidate, existing User) bool {
	if candidate.Username != "" {
		if candidate.Username == existing.Username || strings.EqualFold(candidate.Username, existing.Email) {
			return true
		}
	}
	if candidate.Email != "" {
		if strings.EqualFold(candidate.Email, existing.Email) || strings.EqualFold(candidate.Email, existing.Username) {
			return true
		}
	}
	return false
}
