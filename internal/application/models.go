package application

import (
	"slices"
	"strings"
	"time"
)

// Role names the coarse permission group a user belongs to.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEditor   Role = "editor"
	RoleViewer   Role = "viewer"
	RoleSecurity Role = "security"
)

var knownRoles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEditor, RoleViewer, RoleSecurity}

// ParseRole normalizes a role name, reporting whether it is known.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	return role, slices.Contains(knownRoles, role)
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusPending  UserStatus = "pending"
	StatusRejected UserStatus = "rejected"
)

var knownStatuses = []UserStatus{StatusActive, StatusInactive, StatusPending, StatusRejected}

// ParseUserStatus normalizes a status name, reporting whether it is known.
func ParseUserStatus(value string) (UserStatus, bool) {
	status := UserStatus(strings.ToLower(strings.TrimSpace(value)))
	return status, slices.Contains(knownStatuses, status)
}

// CanSignIn reports whether accounts in this status may obtain tokens.
func (s UserStatus) CanSignIn() bool {
	return s != StatusInactive && s != StatusRejected
}

// Principal is the identity carried by a verified bearer token. Role is a
// snapshot taken when the token was issued and can lag the live user record.
type Principal struct {
	UserID   string
	Username string
	Email    string
	Role     Role
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// User is an account in the credential store.
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	Status          UserStatus
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      string
	RejectedAt      *time.Time
	RejectedBy      string
	RejectionReason string
}

// Principal returns the token claims describing the user right now.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// AuthResult is returned by every operation that hands out a token.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// LoginParams captures the data required to authenticate a user.
type LoginParams struct {
	Identifier string
	Password   string
}

// RegisterParams captures self-service registration fields.
type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// UserInput captures caller provided user attributes. Empty strings leave the
// stored value untouched on update.
type UserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Status    string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role   string
	Status string
	Search string
}

// ScheduleShape discriminates the two accepted schedule layouts.
type ScheduleShape string

const (
	ShapeAcademic ScheduleShape = "academic"
	ShapeGeneral  ScheduleShape = "general"
)

// Schedule is a timetable entry. Academic entries carry the room/subject/faculty
// trio; general entries carry title/content/type. Both shapes populate Date,
// StartTime, EndTime and Title so readers can rely on either naming.
type Schedule struct {
	ID          string
	Shape       ScheduleShape
	Date        string
	StartTime   string
	EndTime     string
	RoomNumber  string
	Subject     string
	FacultyName string
	Title       string
	Content     string
	Type        string
	Priority    string
	CreatedBy   string
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SortKey orders schedules by date then start time.
func (s Schedule) SortKey() string {
	start := s.StartTime
	if i := strings.IndexByte(start, 'T'); i >= 0 {
		start = start[i+1:]
	}
	return s.Date + "T" + start
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	Date    string
	Room    string
	Faculty string
	Search  string
}

// AnnouncementPriority ranks announcements for display.
type AnnouncementPriority string

const (
	AnnouncementLow    AnnouncementPriority = "low"
	AnnouncementNormal AnnouncementPriority = "normal"
	AnnouncementHigh   AnnouncementPriority = "high"
	AnnouncementUrgent AnnouncementPriority = "urgent"
)

// Announcement is a notice shown on dashboards. Content doubles as the message body.
type Announcement struct {
	ID        string
	Title     string
	Content   string
	Priority  AnnouncementPriority
	ExpiresAt *time.Time
	Active    bool
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visible reports whether the announcement is active and unexpired at now.
func (a Announcement) Visible(now time.Time) bool {
	if !a.Active {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// AnnouncementInput captures caller provided announcement fields. Nil pointers
// leave stored values untouched on update.
type AnnouncementInput struct {
	Title     *string
	Content   *string
	Priority  *string
	ExpiresAt **time.Time
	Active    *bool
}

// AnnouncementFilter narrows announcement listings.
type AnnouncementFilter struct {
	IncludeInactive bool
}

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskPriority ranks tasks.
type TaskPriority string

const (
	TaskLow    TaskPriority = "low"
	TaskMedium TaskPriority = "medium"
	TaskHigh   TaskPriority = "high"
	TaskUrgent TaskPriority = "urgent"
)

// Task is an assignable unit of work.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    TaskPriority
	Status      TaskStatus
	DueDate     string
	AssignedTo  string
	CreatedBy   string
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TaskInput captures caller provided task fields. Nil pointers leave stored
// values untouched on update.
type TaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	DueDate     *string
	AssignedTo  *string
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status     string
	Priority   string
	AssignedTo string
	Search     string
}
