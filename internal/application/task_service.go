package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"
)

var (
	knownTaskStatuses   = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}
	knownTaskPriorities = []TaskPriority{TaskLow, TaskMedium, TaskHigh, TaskUrgent}
)

// TaskService manages assignable work items.
type TaskService struct {
	tasks       Repository[Task]
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for task operations.
func NewTaskService(tasks Repository[Task], notifier Notifier, idGenerator func() string, now func() time.Time) *TaskService {
	return NewTaskServiceWithLogger(tasks, notifier, idGenerator, now, nil)
}

// NewTaskServiceWithLogger wires dependencies for task operations with a specified logger.
func NewTaskServiceWithLogger(tasks Repository[Task], notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:       tasks,
		notifier:    defaultNotifier(notifier),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

func (s *TaskService) ready() error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}
	return nil
}

// ListTasks returns tasks matching filter ordered by due date, undated tasks
// last, then by creation time.
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.tasks.List(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListTasks").ErrorContext(ctx, "failed to list tasks", "error", err)
		return nil, err
	}

	status := strings.ToLower(strings.TrimSpace(filter.Status))
	priority := strings.ToLower(strings.TrimSpace(filter.Priority))
	assignee := strings.TrimSpace(filter.AssignedTo)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]Task, 0, len(all))
	for _, task := range all {
		if status != "" && string(task.Status) != status {
			continue
		}
		if priority != "" && string(task.Priority) != priority {
			continue
		}
		if assignee != "" && task.AssignedTo != assignee {
			continue
		}
		if search != "" && !containsFold(search, task.Title, task.Description) {
			continue
		}
		result = append(result, task)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.DueDate != b.DueDate {
			if a.DueDate == "" {
				return false
			}
			if b.DueDate == "" {
				return true
			}
			return a.DueDate < b.DueDate
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result, nil
}

// CountByStatus tallies tasks per status.
func (s *TaskService) CountByStatus(ctx context.Context) (map[TaskStatus]int, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	all, err := s.tasks.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[TaskStatus]int, len(knownTaskStatuses))
	for _, status := range knownTaskStatuses {
		counts[status] = 0
	}
	for _, task := range all {
		counts[task.Status]++
	}
	return counts, len(all), nil
}

// GetTask returns a single task.
func (s *TaskService) GetTask(ctx context.Context, id string) (Task, error) {
	if err := s.ready(); err != nil {
		return Task{}, err
	}
	task, err := s.tasks.Get(ctx, id)
	return task, mapRepoError(err)
}

// CreateTask validates and stores a new task.
func (s *TaskService) CreateTask(ctx context.Context, principal Principal, input TaskInput) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateTask", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID).InfoContext(ctx, "task created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	task, err = applyTaskInput(newTask(s.idGenerator(), principal, now), input, principal, now)
	if err != nil {
		return
	}
	if err = s.tasks.Insert(ctx, task.ID, task, nil); err != nil {
		err = mapRepoError(err)
		task = Task{}
		return
	}

	publish(ctx, s.notifier, logger, ResourceTask, ActionCreated, task)
	return
}

// UpdateTask applies the supplied fields to a stored task.
func (s *TaskService) UpdateTask(ctx context.Context, principal Principal, id string, input TaskInput) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateTask", "principal_id", principal.UserID, "task_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", task.Status).InfoContext(ctx, "task updated")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	task, err = s.tasks.Update(ctx, id, func(current Task) (Task, error) {
		return applyTaskInput(current, input, principal, now)
	}, nil)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceTask, ActionUpdated, task)
	return
}

// SaveTask creates or updates the task identified by id.
func (s *TaskService) SaveTask(ctx context.Context, principal Principal, id string, input TaskInput) (task Task, action string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = s.idGenerator()
	}

	logger := s.loggerWith(ctx, "SaveTask", "principal_id", principal.UserID, "task_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("action", action).InfoContext(ctx, "task saved")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	var created bool
	task, created, err = s.tasks.Upsert(ctx, id, func(current Task, exists bool) (Task, error) {
		if !exists {
			current = newTask(id, principal, now)
		}
		return applyTaskInput(current, input, principal, now)
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	action = ActionUpdated
	if created {
		action = ActionCreated
	}
	publish(ctx, s.notifier, logger, ResourceTask, action, task)
	return
}

// DeleteTask removes a task and returns it.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, id string) (task Task, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteTask", "principal_id", principal.UserID, "task_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	task, err = s.tasks.Delete(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceTask, ActionDeleted, task)
	return
}

func newTask(id string, principal Principal, now time.Time) Task {
	return Task{
		ID:        id,
		Priority:  TaskMedium,
		Status:    TaskPending,
		CreatedBy: principal.UserID,
		CreatedAt: now,
	}
}

// applyTaskInput overlays input on current, validates the result and stamps
// CompletedAt on the transition into completed.
func applyTaskInput(current Task, input TaskInput, principal Principal, now time.Time) (Task, error) {
	vErr := &ValidationError{}
	previous := current.Status

	if input.Title != nil {
		current.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		current.Description = *input.Description
	}
	if input.Priority != nil {
		priority := TaskPriority(strings.ToLower(strings.TrimSpace(*input.Priority)))
		if priority == "" {
			priority = TaskMedium
		}
		if !slices.Contains(knownTaskPriorities, priority) {
			vErr.add("priority", "priority must be one of low, medium, high, urgent")
		}
		current.Priority = priority
	}
	if input.Status != nil {
		status := TaskStatus(strings.ToLower(strings.TrimSpace(*input.Status)))
		if status == "" {
			status = TaskPending
		}
		if !slices.Contains(knownTaskStatuses, status) {
			vErr.add("status", "status must be one of pending, in-progress, completed, cancelled")
		}
		current.Status = status
	}
	if input.DueDate != nil {
		due := strings.TrimSpace(*input.DueDate)
		if due != "" && !validDueDate(due) {
			vErr.add("dueDate", "dueDate must be YYYY-MM-DD or an ISO date-time")
		}
		current.DueDate = due
	}
	if input.AssignedTo != nil {
		current.AssignedTo = strings.TrimSpace(*input.AssignedTo)
	}

	if current.Title == "" {
		vErr.add("title", "title is required")
	}
	if err := vErr.errOrNil(); err != nil {
		return Task{}, err
	}

	switch {
	case current.Status == TaskCompleted && previous != TaskCompleted:
		current.CompletedAt = &now
	case current.Status != TaskCompleted:
		current.CompletedAt = nil
	}
	current.UpdatedBy = principal.UserID
	current.UpdatedAt = now
	return current, nil
}

func validDueDate(value string) bool {
	if _, err := time.Parse(dateLayout, value); err == nil {
		return true
	}
	_, _, ok := parseMoment(value)
	return ok && len(value) >= len(dateLayout)
}
