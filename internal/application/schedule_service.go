package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// ScheduleService validates schedule payloads and keeps the shared timetable.
// REST handlers and realtime clients both write through it.
type ScheduleService struct {
	schedules   Repository[Schedule]
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules Repository[Schedule], notifier Notifier, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, notifier, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies for schedule operations with a specified logger.
func NewScheduleServiceWithLogger(schedules Repository[Schedule], notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:   schedules,
		notifier:    defaultNotifier(notifier),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

func (s *ScheduleService) ready() error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule repository not configured")
	}
	return nil
}

// ListSchedules returns schedules matching filter ordered by date and start time.
func (s *ScheduleService) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.schedules.List(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListSchedules").ErrorContext(ctx, "failed to list schedules", "error", err)
		return nil, err
	}

	date := strings.TrimSpace(filter.Date)
	room := strings.ToLower(strings.TrimSpace(filter.Room))
	faculty := strings.ToLower(strings.TrimSpace(filter.Faculty))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]Schedule, 0, len(all))
	for _, schedule := range all {
		if date != "" && schedule.Date != date {
			continue
		}
		if room != "" && !containsFold(room, schedule.RoomNumber) {
			continue
		}
		if faculty != "" && !containsFold(faculty, schedule.FacultyName) {
			continue
		}
		if search != "" && !containsFold(search, schedule.Subject, schedule.Title, schedule.Content, schedule.FacultyName, schedule.RoomNumber) {
			continue
		}
		result = append(result, schedule)
	}

	sort.Slice(result, func(i, j int) bool {
		ki, kj := result[i].SortKey(), result[j].SortKey()
		if ki == kj {
			return result[i].ID < result[j].ID
		}
		return ki < kj
	})
	return result, nil
}

// GetSchedule returns a single schedule.
func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	if err := s.ready(); err != nil {
		return Schedule{}, err
	}
	schedule, err := s.schedules.Get(ctx, id)
	return schedule, mapRepoError(err)
}

// CreateSchedule validates fields as one of the accepted shapes and stores a new entry.
func (s *ScheduleService) CreateSchedule(ctx context.Context, principal Principal, fields ScheduleFields) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateSchedule", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("schedule_id", schedule.ID, "shape", schedule.Shape).InfoContext(ctx, "schedule created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var input ScheduleInput
	input, err = ParseScheduleInput(fields)
	if err != nil {
		return
	}

	now := s.now()
	schedule = Schedule{ID: s.idGenerator(), CreatedBy: principal.UserID, UpdatedBy: principal.UserID, CreatedAt: now, UpdatedAt: now}
	input.apply(&schedule)

	if err = s.schedules.Insert(ctx, schedule.ID, schedule, nil); err != nil {
		err = mapRepoError(err)
		schedule = Schedule{}
		return
	}

	publish(ctx, s.notifier, logger, ResourceSchedule, ActionCreated, schedule)
	return
}

// UpdateSchedule merges the supplied fields onto the stored entry and
// re-validates the result. The merge runs under the store lock, so concurrent
// updates resolve as last-write-wins on whole records.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, principal Principal, id string, fields ScheduleFields) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateSchedule", "principal_id", principal.UserID, "schedule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule updated")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	schedule, err = s.schedules.Update(ctx, id, func(current Schedule) (Schedule, error) {
		return s.merge(current, fields, principal, now)
	}, nil)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceSchedule, ActionUpdated, schedule)
	return
}

// SaveSchedule creates or updates the entry identified by id, generating an id
// when none is given. Repeated saves for one id never produce a second entry.
// The returned action is ActionCreated or ActionUpdated.
func (s *ScheduleService) SaveSchedule(ctx context.Context, principal Principal, id string, fields ScheduleFields) (schedule Schedule, action string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = s.idGenerator()
	}

	logger := s.loggerWith(ctx, "SaveSchedule", "principal_id", principal.UserID, "schedule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("action", action).InfoContext(ctx, "schedule saved")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	var created bool
	schedule, created, err = s.schedules.Upsert(ctx, id, func(current Schedule, exists bool) (Schedule, error) {
		if !exists {
			current = Schedule{ID: id, CreatedBy: principal.UserID, CreatedAt: now}
		}
		return s.merge(current, fields, principal, now)
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	action = ActionUpdated
	if created {
		action = ActionCreated
	}
	publish(ctx, s.notifier, logger, ResourceSchedule, action, schedule)
	return
}

// DeleteSchedule removes an entry and returns it.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, id string) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteSchedule", "principal_id", principal.UserID, "schedule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	schedule, err = s.schedules.Delete(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceSchedule, ActionDeleted, schedule)
	return
}

// CountSchedules reports the total and the number of entries on day.
func (s *ScheduleService) CountSchedules(ctx context.Context, day time.Time) (total, onDay int, err error) {
	if err = s.ready(); err != nil {
		return
	}
	all, err := s.schedules.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	date := day.Format(dateLayout)
	for _, schedule := range all {
		if schedule.Date == date {
			onDay++
		}
	}
	return len(all), onDay, nil
}

func (s *ScheduleService) merge(current Schedule, fields ScheduleFields, principal Principal, now time.Time) (Schedule, error) {
	merged := FieldsOf(current).overlay(fields)
	if current.Shape == "" {
		merged = fields
	}
	input, err := ParseScheduleInput(merged)
	if err != nil {
		return Schedule{}, err
	}
	input.apply(&current)
	current.UpdatedBy = principal.UserID
	current.UpdatedAt = now
	return current, nil
}
