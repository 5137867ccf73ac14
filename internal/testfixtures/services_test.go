package testfixtures

import (
	"context"
	"testing"

	"github.com/example/liveboard/internal/application"
)

type countingNotifier struct {
	events []application.Event
}

func (c *countingNotifier) Publish(_ context.Context, event application.Event) {
	c.events = append(c.events, event)
}

func TestServiceFactoryNewStack(t *testing.T) {
	factory := NewServiceFactory()
	notifier := &countingNotifier{}
	stack, err := factory.NewStack(notifier)
	if err != nil {
		t.Fatalf("NewStack returned error: %v", err)
	}
	ctx := context.Background()

	user, err := stack.SeedUser(ctx, NewUserFixture(WithUsername("grace"), WithRole(application.RoleEditor)))
	if err != nil {
		t.Fatalf("SeedUser returned error: %v", err)
	}

	schedule, err := stack.ScheduleService.CreateSchedule(ctx, user.Principal(), AcademicSchedule("B2", "Logic", "09:00", "10:00"))
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}
	if schedule.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", schedule.ID)
	}
	if !schedule.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), schedule.CreatedAt)
	}
	if len(notifier.events) != 1 || notifier.events[0].Resource != application.ResourceSchedule {
		t.Fatalf("expected one schedule event, got %+v", notifier.events)
	}

	stats, err := stack.DashboardService.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.SchedulesTotal != 1 || stats.SchedulesToday != 1 {
		t.Fatalf("unexpected schedule counts: %+v", stats)
	}
}

func TestStackLoginWithFixturePassword(t *testing.T) {
	stack, err := NewServiceFactory().NewStack(nil)
	if err != nil {
		t.Fatalf("NewStack returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := stack.SeedUser(ctx, NewUserFixture(WithUsername("ada"))); err != nil {
		t.Fatalf("SeedUser returned error: %v", err)
	}

	result, err := stack.AuthService.Login(ctx, application.LoginParams{Identifier: "ada", Password: DefaultPassword})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	principal, err := stack.AuthService.ValidateToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if principal.Username != "ada" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	categories, err := stack.SettingsService.ListSettings(ctx)
	if err != nil || len(categories) == 0 {
		t.Fatalf("expected seeded settings, got %v (err %v)", categories, err)
	}
}

func TestFixtureSchedulesValidate(t *testing.T) {
	if _, err := application.ParseScheduleInput(AcademicSchedule("B2", "Logic", "09:00", "10:00")); err != nil {
		t.Fatalf("academic fixture invalid: %v", err)
	}
	input, err := application.ParseScheduleInput(GeneralSchedule("Standup", "09:30", "09:45"))
	if err != nil {
		t.Fatalf("general fixture invalid: %v", err)
	}
	if input.Shape() != application.ShapeGeneral {
		t.Fatalf("expected general shape, got %s", input.Shape())
	}
}
