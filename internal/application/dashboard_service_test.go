package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/liveboard/internal/persistence"
)

func TestDashboardService_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &manualClock{current: testNow}
	users := newUserStore()
	seedUser(t, users, User{ID: "u1", Username: "a", Email: "a@example.com"})
	seedUser(t, users, User{ID: "u2", Username: "b", Email: "b@example.com", Status: StatusPending})

	schedules := NewScheduleService(persistence.NewCollection[Schedule]("schedules"), nil, (&sequenceIDs{prefix: "s"}).ID, clock.Now)
	tasks := NewTaskService(persistence.NewCollection[Task]("tasks"), nil, (&sequenceIDs{prefix: "t"}).ID, clock.Now)
	announcements := NewAnnouncementService(persistence.NewCollection[Announcement]("announcements"), nil, (&sequenceIDs{prefix: "a"}).ID, clock.Now)
	resources, _ := newResourceHarness()

	dashboard := NewDashboardService(DashboardSources{
		Users:         users,
		Schedules:     schedules,
		Announcements: announcements,
		Tasks:         tasks,
		Records:       resources,
	}, time.Minute, clock.Now, nil)

	who := Principal{UserID: "u1"}
	if _, err := schedules.CreateSchedule(ctx, who, academicFields("A1", "Logic")); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if _, err := tasks.CreateTask(ctx, who, TaskInput{Title: ptr("x"), Status: ptr("completed")}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := announcements.CreateAnnouncement(ctx, who, AnnouncementInput{Title: ptr("x"), Content: ptr("y")}); err != nil {
		t.Fatalf("CreateAnnouncement failed: %v", err)
	}
	if _, err := resources.Create(ctx, who, KindBookings, booking("r1", "09:00", "10:00")); err != nil {
		t.Fatalf("Create booking failed: %v", err)
	}
	if _, err := resources.Create(ctx, who, KindLeaves, map[string]any{"employeeId": "e1", "type": "sick", "startDate": "2024-03-04", "endDate": "2024-03-05"}); err != nil {
		t.Fatalf("Create leave failed: %v", err)
	}

	stats, err := dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.UsersTotal != 2 || stats.UsersByStatus["pending"] != 1 || stats.UsersByStatus["rejected"] != 0 {
		t.Fatalf("unexpected user stats %#v", stats)
	}
	if stats.SchedulesTotal != 1 || stats.SchedulesToday != 1 || stats.ActiveAnnouncements != 1 {
		t.Fatalf("unexpected schedule/announcement stats %#v", stats)
	}
	if stats.TasksTotal != 1 || stats.TasksByStatus["completed"] != 1 {
		t.Fatalf("unexpected task stats %#v", stats)
	}
	if stats.BookingsToday != 1 || stats.PendingLeaves != 1 || stats.Resources["employees"] != 0 || stats.Resources["bookings"] != 1 {
		t.Fatalf("unexpected resource stats %#v", stats)
	}

	// Cached until a mutation is published.
	if _, err := tasks.CreateTask(ctx, who, TaskInput{Title: ptr("y")}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	cached, _ := dashboard.Stats(ctx)
	if cached.TasksTotal != 1 {
		t.Fatalf("expected cached aggregate, got %d tasks", cached.TasksTotal)
	}
	dashboard.Publish(ctx, Event{Resource: ResourceTask, Action: ActionCreated})
	fresh, _ := dashboard.Stats(ctx)
	if fresh.TasksTotal != 2 {
		t.Fatalf("expected invalidated aggregate, got %d tasks", fresh.TasksTotal)
	}
}
