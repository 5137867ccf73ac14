package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// UserService orchestrates validation, authorization, and persistence for user accounts.
//
// Privileged operations resolve the caller's role from the live user record
// rather than the token claims, so a demoted administrator loses access
// immediately even while an older token is still valid.
type UserService struct {
	users       Repository[User]
	hasher      PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users Repository[User], hasher PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hasher, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users Repository[User], hasher PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultPasswordCost)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hasher: hasher, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// ListUsers returns users matching filter sorted by username.
func (s *UserService) ListUsers(ctx context.Context, principal Principal, filter UserFilter) (users []User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	var all []User
	all, err = s.users.List(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListUsers", "principal_id", principal.UserID).ErrorContext(ctx, "failed to list users", "error", err)
		return
	}

	role := strings.ToLower(strings.TrimSpace(filter.Role))
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	users = make([]User, 0, len(all))
	for _, user := range all {
		if role != "" && string(user.Role) != role {
			continue
		}
		if status != "" && string(user.Status) != status {
			continue
		}
		if search != "" && !containsFold(search, user.Username, user.Email, user.FirstName, user.LastName) {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Username == users[j].Username {
			return users[i].ID < users[j].ID
		}
		return users[i].Username < users[j].Username
	})
	return
}

// GetUser returns a single user.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	user, err := s.users.Get(ctx, userID)
	return user, mapRepoError(err)
}

// CreateUser validates input and persists a new active account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if _, err = s.requireAdmin(ctx, params.Principal); err != nil {
		return
	}

	input := normalizeUserInput(params.Input)
	vErr := validateUserInput(input, true)
	if err = vErr.errOrNil(); err != nil {
		return
	}

	role := RoleViewer
	if input.Role != "" {
		role = Role(input.Role)
	}
	status := StatusActive
	if input.Status != "" {
		status = UserStatus(input.Status)
	}

	var digest string
	digest, err = s.hasher.Hash(input.Password)
	if err != nil {
		return
	}

	now := s.now()
	user = User{
		ID:           s.idGenerator(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		Status:       status,
		CreatedBy:    params.Principal.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == StatusActive {
		user.ApprovedAt = &now
		user.ApprovedBy = params.Principal.UserID
	}

	if err = s.users.Insert(ctx, user.ID, user, userIdentityConflict); err != nil {
		err = mapRepoError(err)
		user = User{}
	}
	return
}

// UpdateUser applies profile changes. Users may edit their own profile;
// changing another account, or any role or status, requires an administrator.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", params.Principal.UserID, "user_id", params.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	input := normalizeUserInput(params.Input)
	privileged := params.UserID != params.Principal.UserID || input.Role != "" || input.Status != ""
	if privileged {
		if _, err = s.requireAdmin(ctx, params.Principal); err != nil {
			return
		}
	}

	vErr := validateUserInput(input, false)
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var digest string
	if input.Password != "" {
		digest, err = s.hasher.Hash(input.Password)
		if err != nil {
			return
		}
	}

	now := s.now()
	user, err = s.users.Update(ctx, params.UserID, func(current User) (User, error) {
		if input.Username != "" {
			current.Username = input.Username
		}
		if input.Email != "" {
			current.Email = input.Email
		}
		if input.FirstName != "" {
			current.FirstName = input.FirstName
		}
		if input.LastName != "" {
			current.LastName = input.LastName
		}
		if input.Role != "" {
			current.Role = Role(input.Role)
		}
		if input.Status != "" {
			current.Status = UserStatus(input.Status)
		}
		if digest != "" {
			current.PasswordHash = digest
		}
		current.UpdatedAt = now
		return current, nil
	}, userIdentityConflict)
	err = mapRepoError(err)
	return
}

// SetStatus sets an explicit status, or toggles between active and inactive when status is empty.
func (s *UserService) SetStatus(ctx context.Context, principal Principal, userID, status string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}

	var target UserStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := ParseUserStatus(status)
		if !ok {
			vErr := &ValidationError{}
			vErr.add("status", "status is invalid")
			return User{}, vErr
		}
		target = parsed
	}

	return s.transition(ctx, "SetStatus", principal, userID, func(current User, now time.Time) User {
		next := target
		if next == "" {
			next = StatusActive
			if current.Status == StatusActive {
				next = StatusInactive
			}
		}
		current.Status = next
		return current
	})
}

// ApproveUser activates a pending account.
func (s *UserService) ApproveUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	return s.transition(ctx, "ApproveUser", principal, userID, func(current User, now time.Time) User {
		current.Status = StatusActive
		current.ApprovedAt = &now
		current.ApprovedBy = principal.UserID
		current.RejectedAt = nil
		current.RejectedBy = ""
		current.RejectionReason = ""
		return current
	})
}

// RejectUser marks an account as rejected, recording the actor and reason.
func (s *UserService) RejectUser(ctx context.Context, principal Principal, userID, reason string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, "RejectUser", principal, userID, func(current User, now time.Time) User {
		current.Status = StatusRejected
		current.RejectedAt = &now
		current.RejectedBy = principal.UserID
		current.RejectionReason = reason
		return current
	})
}

// DeleteUser removes an account. Deleting one's own account is always refused.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)

	if userID == principal.UserID {
		logger.ErrorContext(ctx, "self delete refused", "error_kind", ErrorKind(ErrSelfDelete))
		return ErrSelfDelete
	}
	if _, err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if _, err := s.users.Delete(ctx, userID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// EnsureAdmin creates an active administrator account unless a user with the
// same username already exists. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, fmt.Errorf("admin username and password are required")
	}
	email = normalizeEmail(email)
	if email == "" {
		email = strings.ToLower(username) + "@" + placeholderEmailDomain
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	now := s.now()
	admin := User{
		ID:           s.idGenerator(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Role:         RoleAdmin,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		ApprovedAt:   &now,
	}
	if err := s.users.Insert(ctx, admin.ID, admin, userIdentityConflict); err != nil {
		if errors.Is(mapRepoError(err), ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	s.loggerWith(ctx, "EnsureAdmin", "user_id", admin.ID).InfoContext(ctx, "administrator account seeded")
	return true, nil
}

func (s *UserService) transition(ctx context.Context, operation string, principal Principal, userID string, apply func(User, time.Time) User) (user User, err error) {
	logger := s.loggerWith(ctx, operation, "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user transition failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", user.Status).InfoContext(ctx, "user transitioned")
	}()

	if _, err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	now := s.now()
	user, err = s.users.Update(ctx, userID, func(current User) (User, error) {
		current = apply(current, now)
		current.UpdatedAt = now
		return current, nil
	}, nil)
	err = mapRepoError(err)
	return
}

func (s *UserService) requireAdmin(ctx context.Context, principal Principal) (User, error) {
	if !principal.Authenticated() {
		return User{}, ErrUnauthorized
	}
	actor, err := s.users.Get(ctx, principal.UserID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	if actor.Role != RoleAdmin || actor.Status != StatusActive {
		return User{}, ErrUnauthorized
	}
	return actor, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Username:  strings.TrimSpace(input.Username),
		Email:     normalizeEmail(input.Email),
		Password:  input.Password,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      strings.ToLower(strings.TrimSpace(input.Role)),
		Status:    strings.ToLower(strings.TrimSpace(input.Status)),
	}
}

func validateUserInput(input UserInput, creating bool) *ValidationError {
	vErr := &ValidationError{}

	if creating {
		if input.Username == "" {
			vErr.add("username", "username is required")
		}
		if input.Email == "" {
			vErr.add("email", "email is required")
		}
		if input.Password == "" {
			vErr.add("password", "password is required")
		}
	}
	if input.Email != "" && !validEmail(input.Email) {
		vErr.add("email", "email is invalid")
	}
	if input.Role != "" {
		if _, ok := ParseRole(input.Role); !ok {
			vErr.add("role", "role is invalid")
		}
	}
	if input.Status != "" {
		if _, ok := ParseUserStatus(input.Status); !ok {
			vErr.add("status", "status is invalid")
		}
	}

	return vErr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// containsFold reports whether any value contains the lower-cased needle.
func containsFold(needle string, values ...string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}
