package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/liveboard/internal/application"
)

// DefaultPassword is the plaintext every user fixture is hashed from unless overridden.
const DefaultPassword = "Secret123!"

var userCounter uint64

var referenceTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture is a deterministic account description. Password stays in
// plaintext until User hashes it.
type UserFixture struct {
	ID        string
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      application.Role
	Status    application.UserStatus
	CreatedAt time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns an active viewer with unique identity fields.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:        fmt.Sprintf("user-%03d", idx),
		Username:  fmt.Sprintf("user%03d", idx),
		Email:     fmt.Sprintf("user%03d@example.com", idx),
		Password:  DefaultPassword,
		FirstName: "Test",
		LastName:  fmt.Sprintf("User %03d", idx),
		Role:      application.RoleViewer,
		Status:    application.StatusActive,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUsername overrides the username and derives a matching email.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
		f.Email = username + "@example.com"
	}
}

// WithRole overrides the role.
func WithRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithStatus overrides the lifecycle status.
func WithStatus(status application.UserStatus) UserOption {
	return func(f *UserFixture) { f.Status = status }
}

// WithPassword overrides the plaintext password.
func WithPassword(password string) UserOption {
	return func(f *UserFixture) { f.Password = password }
}

// User materialises the fixture, hashing its password with hasher.
func (f UserFixture) User(hasher application.PasswordHasher) (application.User, error) {
	digest, err := hasher.Hash(f.Password)
	if err != nil {
		return application.User{}, err
	}
	return application.User{
		ID:           f.ID,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: digest,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Role:         f.Role,
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}, nil
}

// AcademicSchedule returns a valid academic payload on the reference date.
func AcademicSchedule(room, subject, start, end string) application.ScheduleFields {
	return application.ScheduleFields{
		Date:        referenceTime.Format("2006-01-02"),
		StartTime:   start,
		EndTime:     end,
		RoomNumber:  room,
		Subject:     subject,
		FacultyName: "Dr. Hopper",
	}
}

// GeneralSchedule returns a valid general payload with ISO start and end on the reference date.
func GeneralSchedule(title, start, end string) application.ScheduleFields {
	day := referenceTime.Format("2006-01-02")
	return application.ScheduleFields{
		Title:     title,
		StartTime: day + "T" + start + ":00",
		EndTime:   day + "T" + end + ":00",
		Type:      "meeting",
	}
}

// Booking returns record fields for a confirmed booking of room on the reference date.
func Booking(roomID, title, start, end string) map[string]any {
	return map[string]any{
		"roomId":    roomID,
		"title":     title,
		"date":      referenceTime.Format("2006-01-02"),
		"startTime": start,
		"endTime":   end,
	}
}

// Ptr returns a pointer to v, for optional input fields.
func Ptr[T any](v T) *T {
	return &v
}
