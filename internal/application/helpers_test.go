package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/liveboard/internal/persistence"
)

var testNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

type sequenceIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (s *sequenceIDs) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s-%d", s.prefix, s.next)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func testHasher() PasswordHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func newUserStore() *persistence.Collection[User] {
	return persistence.NewCollection[User]("users")
}

// seedUser stores a user whose password is "password".
func seedUser(t *testing.T, users *persistence.Collection[User], user User) User {
	t.Helper()
	digest, err := testHasher().Hash("password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user.PasswordHash = digest
	if user.Status == "" {
		user.Status = StatusActive
	}
	if user.Role == "" {
		user.Role = RoleViewer
	}
	if err := users.Insert(context.Background(), user.ID, user, nil); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}
