package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/liveboard/internal/persistence"
)

func newResourceHarness() (*ResourceService, *recordingNotifier) {
	stores := make(map[ResourceKind]Repository[Record])
	for _, spec := range ResourceSpecs() {
		stores[spec.Kind] = persistence.NewCollection[Record](string(spec.Kind))
	}
	notifier := &recordingNotifier{}
	ids := &sequenceIDs{prefix: "rec"}
	return NewResourceService(stores, notifier, ids.ID, func() time.Time { return testNow }), notifier
}

func booking(room, start, end string) map[string]any {
	return map[string]any{"roomId": room, "title": "Standup", "date": "2024-03-01", "startTime": start, "endTime": end}
}

func TestResourceService_CreateAppliesDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	svc, notifier := newResourceHarness()
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	record, err := svc.Create(ctx, who, KindEmployees, map[string]any{
		"firstName": " Ada ", "lastName": "Lovelace", "email": "ada@example.com", "id": "forged", "salary": float64(100),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if record.ID == "forged" || record.Text("firstName") != "Ada" || record.Text("status") != "active" || record.Text("salary") != "100" {
		t.Fatalf("unexpected record %#v", record)
	}
	if events := notifier.Events(); len(events) != 1 || events[0].Resource != "employee" {
		t.Fatalf("unexpected events %#v", events)
	}

	_, err = svc.Create(ctx, who, KindEmployees, map[string]any{"firstName": "Grace"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["email"]; !ok {
		t.Fatalf("expected email error, got %v", vErr.FieldErrors)
	}

	if _, err := svc.Create(ctx, who, KindEmployees, map[string]any{"firstName": "A", "lastName": "B", "email": "ADA@example.com"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.Create(ctx, who, ResourceKind("spaceships"), map[string]any{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown kind, got %v", err)
	}
	if _, err := svc.Create(ctx, Principal{}, KindRooms, map[string]any{"name": "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResourceService_BookingConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newResourceHarness()
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	first, err := svc.Create(ctx, who, KindBookings, booking("r1", "09:00", "10:00"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, who, KindBookings, booking("r1", "09:30", "10:30")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := svc.Create(ctx, who, KindBookings, booking("r2", "09:30", "10:30")); err != nil {
		t.Fatalf("other room must be free, got %v", err)
	}
	adjacent, err := svc.Create(ctx, who, KindBookings, booking("r1", "10:00", "11:00"))
	if err != nil {
		t.Fatalf("adjacent slot must be free, got %v", err)
	}

	if _, err := svc.Update(ctx, who, KindBookings, adjacent.ID, map[string]any{"startTime": "09:45"}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken on update, got %v", err)
	}
	if _, err := svc.Update(ctx, who, KindBookings, first.ID, map[string]any{"status": "cancelled"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Create(ctx, who, KindBookings, booking("r1", "09:00", "10:00")); err != nil {
		t.Fatalf("cancelled slot must be reusable, got %v", err)
	}

	if _, err := svc.Create(ctx, who, KindBookings, booking("r3", "11:00", "10:00")); err == nil {
		t.Fatalf("expected inverted interval to fail validation")
	}
}

func TestResourceService_ListUpdateDelete(t *testing.T) {
	t.Parallel()

	svc, _ := newResourceHarness()
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	laptop, _ := svc.Create(ctx, who, KindAssets, map[string]any{"name": "Laptop", "category": "IT", "serialNumber": "SN-1"})
	_, _ = svc.Create(ctx, who, KindAssets, map[string]any{"name": "Projector", "category": "AV"})

	it, err := svc.List(ctx, KindAssets, ResourceFilter{Match: map[string]string{"category": "it"}})
	if err != nil || len(it) != 1 || it[0].ID != laptop.ID {
		t.Fatalf("unexpected match result %#v (%v)", it, err)
	}
	searched, _ := svc.List(ctx, KindAssets, ResourceFilter{Search: "proj"})
	if len(searched) != 1 || searched[0].Text("name") != "Projector" {
		t.Fatalf("unexpected search result %#v", searched)
	}

	updated, err := svc.Update(ctx, Principal{UserID: "user-2"}, KindAssets, laptop.ID, map[string]any{"status": "assigned", "serialNumber": nil})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Text("status") != "assigned" || updated.Text("serialNumber") != "" || updated.UpdatedBy != "user-2" {
		t.Fatalf("unexpected update %#v", updated)
	}

	// Returned records are copies.
	updated.Fields["name"] = "mutated"
	stored, _ := svc.Get(ctx, KindAssets, laptop.ID)
	if stored.Text("name") != "Laptop" {
		t.Fatalf("stored record was mutated through a returned copy")
	}

	total, assigned, err := svc.Count(ctx, KindAssets, "status", "assigned")
	if err != nil || total != 2 || assigned != 1 {
		t.Fatalf("unexpected counts %d/%d (%v)", total, assigned, err)
	}

	if _, err := svc.Delete(ctx, who, KindAssets, laptop.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, KindAssets, laptop.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
