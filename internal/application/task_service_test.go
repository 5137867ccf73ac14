package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/liveboard/internal/persistence"
)

func newTaskHarness(clock *manualClock) *TaskService {
	ids := &sequenceIDs{prefix: "task"}
	return NewTaskService(persistence.NewCollection[Task]("tasks"), nil, ids.ID, clock.Now)
}

func TestTaskService_CreateAndValidate(t *testing.T) {
	t.Parallel()

	svc := newTaskHarness(&manualClock{current: testNow})
	who := Principal{UserID: "user-1"}

	task, err := svc.CreateTask(context.Background(), who, TaskInput{Title: ptr("Order chairs")})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Status != TaskPending || task.Priority != TaskMedium || task.CompletedAt != nil {
		t.Fatalf("unexpected defaults %#v", task)
	}

	_, err = svc.CreateTask(context.Background(), who, TaskInput{Status: ptr("done"), Priority: ptr("whenever"), DueDate: ptr("tomorrow")})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "status", "priority", "dueDate"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestTaskService_CompletionStamp(t *testing.T) {
	t.Parallel()

	clock := &manualClock{current: testNow}
	svc := newTaskHarness(clock)
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	task, _ := svc.CreateTask(ctx, who, TaskInput{Title: ptr("Review budget")})

	clock.current = testNow.Add(time.Hour)
	done, err := svc.UpdateTask(ctx, who, task.ID, TaskInput{Status: ptr("completed")})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(clock.current) {
		t.Fatalf("expected completion stamp, got %v", done.CompletedAt)
	}

	clock.current = testNow.Add(2 * time.Hour)
	again, _ := svc.UpdateTask(ctx, who, task.ID, TaskInput{Description: ptr("signed off")})
	if again.CompletedAt == nil || !again.CompletedAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("completion stamp must not move, got %v", again.CompletedAt)
	}

	reopened, _ := svc.UpdateTask(ctx, who, task.ID, TaskInput{Status: ptr("in-progress")})
	if reopened.CompletedAt != nil {
		t.Fatalf("expected completion stamp cleared, got %v", reopened.CompletedAt)
	}
}

func TestTaskService_ListOrdering(t *testing.T) {
	t.Parallel()

	clock := &manualClock{current: testNow}
	svc := newTaskHarness(clock)
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	create := func(title, due, assignee string) {
		t.Helper()
		clock.current = clock.current.Add(time.Minute)
		if _, err := svc.CreateTask(ctx, who, TaskInput{Title: ptr(title), DueDate: ptr(due), AssignedTo: ptr(assignee)}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}
	create("undated", "", "bob")
	create("later", "2024-03-10", "alice")
	create("sooner", "2024-03-05", "bob")
	create("also undated", "", "alice")

	tasks, err := svc.ListTasks(ctx, TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	want := []string{"sooner", "later", "undated", "also undated"}
	for i, task := range tasks {
		if task.Title != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], task.Title)
		}
	}

	bobs, _ := svc.ListTasks(ctx, TaskFilter{AssignedTo: "bob"})
	if len(bobs) != 2 {
		t.Fatalf("expected two tasks for bob, got %d", len(bobs))
	}

	counts, total, err := svc.CountByStatus(ctx)
	if err != nil || total != 4 || counts[TaskPending] != 4 || counts[TaskCompleted] != 0 {
		t.Fatalf("unexpected counts %v/%d (%v)", counts, total, err)
	}
}

func TestTaskService_SaveTask(t *testing.T) {
	t.Parallel()

	svc := newTaskHarness(&manualClock{current: testNow})
	ctx := context.Background()
	who := Principal{UserID: "user-1"}

	if _, action, err := svc.SaveTask(ctx, who, "t-1", TaskInput{Title: ptr("socket task")}); err != nil || action != ActionCreated {
		t.Fatalf("expected created, got %q (%v)", action, err)
	}
	saved, action, err := svc.SaveTask(ctx, who, "t-1", TaskInput{Priority: ptr("high")})
	if err != nil || action != ActionUpdated || saved.Title != "socket task" || saved.Priority != TaskHigh {
		t.Fatalf("unexpected save %#v %q (%v)", saved, action, err)
	}
	tasks, _ := svc.ListTasks(ctx, TaskFilter{})
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
}
