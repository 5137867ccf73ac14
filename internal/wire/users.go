package wire

import (
	"time"

	"github.com/example/liveboard/internal/application"
)

// User is the sanitized account representation. It never carries the password hash.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastLogin       *time.Time `json:"lastLogin"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// FromUser converts a stored account.
func FromUser(u application.User) User {
	return User{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            string(u.Role),
		Status:          string(u.Status),
		CreatedBy:       u.CreatedBy,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLogin:       u.LastLogin,
		ApprovedAt:      u.ApprovedAt,
		ApprovedBy:      u.ApprovedBy,
		RejectedAt:      u.RejectedAt,
		RejectedBy:      u.RejectedBy,
		RejectionReason: u.RejectionReason,
	}
}

// FromUsers converts a list of accounts.
func FromUsers(users []application.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}

// AuthResponse answers login, register and refresh.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// FromAuthResult converts an issued token and its user.
func FromAuthResult(result application.AuthResult) AuthResponse {
	return AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: FromUser(result.User)}
}

// LoginRequest accepts emailOrUsername, username or email as the identifier.
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
}

// Params returns the login parameters, preferring emailOrUsername.
func (r LoginRequest) Params() application.LoginParams {
	identifier := r.EmailOrUsername
	if identifier == "" {
		identifier = r.Username
	}
	if identifier == "" {
		identifier = r.Email
	}
	return application.LoginParams{Identifier: identifier, Password: r.Password}
}

// RegisterRequest is the self-service registration body.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// Params converts the request.
func (r RegisterRequest) Params() application.RegisterParams {
	return application.RegisterParams{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
	}
}

// UserRequest is the body of admin create and profile update calls.
type UserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

// Input converts the request.
func (r UserRequest) Input() application.UserInput {
	return application.UserInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
		Status:    r.Status,
	}
}

// StatusRequest sets an explicit status; an empty status toggles.
type StatusRequest struct {
	Status string `json:"status"`
}

// RejectRequest carries an optional rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}
