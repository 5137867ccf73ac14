package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/liveboard/internal/persistence"
)

func ptr[T any](v T) *T { return &v }

func newAnnouncementHarness(clock *manualClock) (*AnnouncementService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	ids := &sequenceIDs{prefix: "ann"}
	store := persistence.NewCollection[Announcement]("announcements")
	return NewAnnouncementService(store, notifier, ids.ID, clock.Now), notifier
}

func TestAnnouncementService_CreateDefaults(t *testing.T) {
	t.Parallel()

	svc, notifier := newAnnouncementHarness(&manualClock{current: testNow})
	who := Principal{UserID: "user-1"}

	announcement, err := svc.CreateAnnouncement(context.Background(), who, AnnouncementInput{Title: ptr(" Fire drill "), Content: ptr("Assemble at 3pm")})
	if err != nil {
		t.Fatalf("CreateAnnouncement failed: %v", err)
	}
	if announcement.Title != "Fire drill" || announcement.Priority != AnnouncementNormal || !announcement.Active {
		t.Fatalf("unexpected defaults %#v", announcement)
	}
	if events := notifier.Events(); len(events) != 1 || events[0].Resource != ResourceAnnouncement {
		t.Fatalf("unexpected events %#v", events)
	}

	_, err = svc.CreateAnnouncement(context.Background(), who, AnnouncementInput{Priority: ptr("loud")})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "content", "priority"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestAnnouncementService_ListHidesInactiveAndExpired(t *testing.T) {
	t.Parallel()

	clock := &manualClock{current: testNow}
	svc, _ := newAnnouncementHarness(clock)
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	expiry := testNow.Add(time.Hour)
	if _, err := svc.CreateAnnouncement(ctx, who, AnnouncementInput{Title: ptr("old"), Content: ptr("x"), ExpiresAt: ptr(&expiry)}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	clock.current = testNow.Add(time.Minute)
	if _, err := svc.CreateAnnouncement(ctx, who, AnnouncementInput{Title: ptr("hidden"), Content: ptr("x"), Active: ptr(false)}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	clock.current = testNow.Add(2 * time.Minute)
	if _, err := svc.CreateAnnouncement(ctx, who, AnnouncementInput{Title: ptr("new"), Content: ptr("x")}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	visible, _ := svc.ListAnnouncements(ctx, AnnouncementFilter{})
	if len(visible) != 2 || visible[0].Title != "new" || visible[1].Title != "old" {
		t.Fatalf("unexpected visible list %#v", visible)
	}

	clock.current = testNow.Add(2 * time.Hour)
	visible, _ = svc.ListAnnouncements(ctx, AnnouncementFilter{})
	if len(visible) != 1 || visible[0].Title != "new" {
		t.Fatalf("expected expired announcement to disappear, got %#v", visible)
	}

	all, _ := svc.ListAnnouncements(ctx, AnnouncementFilter{IncludeInactive: true})
	if len(all) != 3 {
		t.Fatalf("expected all three, got %d", len(all))
	}
}

func TestAnnouncementService_UpdateSaveDelete(t *testing.T) {
	t.Parallel()

	svc, notifier := newAnnouncementHarness(&manualClock{current: testNow})
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	created, err := svc.CreateAnnouncement(ctx, who, AnnouncementInput{Title: ptr("a"), Content: ptr("b")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.UpdateAnnouncement(ctx, Principal{UserID: "user-2"}, created.ID, AnnouncementInput{Priority: ptr("URGENT"), ExpiresAt: ptr[*time.Time](nil)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Priority != AnnouncementUrgent || updated.Title != "a" || updated.UpdatedBy != "user-2" {
		t.Fatalf("unexpected update %#v", updated)
	}

	_, action, err := svc.SaveAnnouncement(ctx, who, "socket-1", AnnouncementInput{Title: ptr("from socket"), Content: ptr("c")})
	if err != nil || action != ActionCreated {
		t.Fatalf("expected created, got %q (%v)", action, err)
	}
	_, action, err = svc.SaveAnnouncement(ctx, who, "socket-1", AnnouncementInput{Content: ptr("d")})
	if err != nil || action != ActionUpdated {
		t.Fatalf("expected updated, got %q (%v)", action, err)
	}

	if _, err := svc.DeleteAnnouncement(ctx, who, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetAnnouncement(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.DeleteAnnouncement(ctx, Principal{}, "socket-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if got := len(notifier.Events()); got != 5 {
		t.Fatalf("expected five events, got %d", got)
	}
}
