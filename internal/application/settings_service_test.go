package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/liveboard/internal/persistence"
)

func newSettingsHarness(t *testing.T, defaults map[string][]string) *SettingsService {
	t.Helper()
	svc := NewSettingsService(persistence.NewCollection[SettingsCategory]("settings"), defaults, func() time.Time { return testNow }, nil)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return svc
}

func TestParseSettings(t *testing.T) {
	t.Parallel()

	defaults, err := ParseSettings(nil)
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if len(defaults["departments"]) == 0 || len(defaults["priorities"]) != 4 {
		t.Fatalf("unexpected embedded defaults %v", defaults)
	}

	custom, err := ParseSettings([]byte("categories:\n  colors: [Red, red, ' Blue ']\n"))
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if got := custom["colors"]; len(got) != 2 || got[0] != "Red" || got[1] != "Blue" {
		t.Fatalf("unexpected custom categories %v", custom)
	}

	if _, err := ParseSettings([]byte("categories: [")); err == nil {
		t.Fatalf("expected malformed YAML to fail")
	}
}

func TestSettingsService_ItemLifecycle(t *testing.T) {
	t.Parallel()

	svc := newSettingsHarness(t, map[string][]string{"colors": {"Red"}})
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	category, err := svc.AddItem(ctx, who, "colors", "Green")
	if err != nil || len(category.Items) != 2 {
		t.Fatalf("AddItem failed: %#v (%v)", category, err)
	}
	if _, err := svc.AddItem(ctx, who, "colors", "green"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.AddItem(ctx, who, "shapes", "Circle"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}

	category, err = svc.RemoveItem(ctx, who, "colors", "RED")
	if err != nil || len(category.Items) != 1 || category.Items[0] != "Green" {
		t.Fatalf("RemoveItem failed: %#v (%v)", category, err)
	}
	if _, err := svc.RemoveItem(ctx, who, "colors", "Purple"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestSettingsService_ReplaceAndReset(t *testing.T) {
	t.Parallel()

	svc := newSettingsHarness(t, map[string][]string{"colors": {"Red"}})
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	if _, err := svc.ReplaceCategory(ctx, who, "colors", []string{"Blue", ""}); err == nil {
		t.Fatalf("expected blank items to fail validation")
	}
	if _, err := svc.ReplaceCategory(ctx, who, "shapes", []string{"Square", "square", "Circle"}); err != nil {
		t.Fatalf("ReplaceCategory failed: %v", err)
	}
	shapes, err := svc.GetCategory(ctx, "shapes")
	if err != nil || len(shapes.Items) != 2 {
		t.Fatalf("unexpected shapes %#v (%v)", shapes, err)
	}

	reset, err := svc.Reset(ctx, who)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if len(reset) != 1 || reset[0].Name != "colors" || len(reset[0].Items) != 1 {
		t.Fatalf("unexpected reset state %#v", reset)
	}
	if _, err := svc.GetCategory(ctx, "shapes"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected custom category gone, got %v", err)
	}
}
