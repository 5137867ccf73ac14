package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/example/liveboard/internal/scheduler"
)

// ResourceService serves the enterprise record kinds. Any authenticated
// principal may read and write every kind.
type ResourceService struct {
	stores      map[ResourceKind]Repository[Record]
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResourceService wires one repository per kind. Kinds without a repository are reported as not found.
func NewResourceService(stores map[ResourceKind]Repository[Record], notifier Notifier, idGenerator func() string, now func() time.Time) *ResourceService {
	return NewResourceServiceWithLogger(stores, notifier, idGenerator, now, nil)
}

// NewResourceServiceWithLogger wires one repository per kind with a specified logger.
func NewResourceServiceWithLogger(stores map[ResourceKind]Repository[Record], notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{
		stores:      maps.Clone(stores),
		notifier:    defaultNotifier(notifier),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, kind ResourceKind, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, append([]any{"kind", string(kind)}, attrs...)...)
}

func (s *ResourceService) store(kind ResourceKind) (Repository[Record], ResourceSpec, error) {
	if s == nil {
		return nil, ResourceSpec{}, fmt.Errorf("ResourceService is nil")
	}
	spec, ok := LookupResourceSpec(kind)
	if !ok {
		return nil, ResourceSpec{}, ErrNotFound
	}
	repo, ok := s.stores[kind]
	if !ok || repo == nil {
		return nil, ResourceSpec{}, ErrNotFound
	}
	return repo, spec, nil
}

// List returns records of kind matching filter, oldest first.
func (s *ResourceService) List(ctx context.Context, kind ResourceKind, filter ResourceFilter) ([]Record, error) {
	repo, _, err := s.store(kind)
	if err != nil {
		return nil, err
	}
	all, err := repo.List(ctx)
	if err != nil {
		s.loggerWith(ctx, "List", kind).ErrorContext(ctx, "failed to list records", "error", err)
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]Record, 0, len(all))
	for _, record := range all {
		if !matchesRecord(record, filter.Match, search) {
			continue
		}
		result = append(result, record.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Count reports the number of records of kind, and how many have field equal
// to value when field is not empty.
func (s *ResourceService) Count(ctx context.Context, kind ResourceKind, field, value string) (total, matching int, err error) {
	repo, _, err := s.store(kind)
	if err != nil {
		return 0, 0, err
	}
	all, err := repo.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, record := range all {
		if field != "" && strings.EqualFold(record.Text(field), value) {
			matching++
		}
	}
	return len(all), matching, nil
}

// Get returns a single record.
func (s *ResourceService) Get(ctx context.Context, kind ResourceKind, id string) (Record, error) {
	repo, _, err := s.store(kind)
	if err != nil {
		return Record{}, err
	}
	record, err := repo.Get(ctx, id)
	if err != nil {
		return Record{}, mapRepoError(err)
	}
	return record.clone(), nil
}

// Create validates and stores a new record. Duplicate unique fields fail with
// ErrAlreadyExists and overlapping bookings with ErrSlotTaken.
func (s *ResourceService) Create(ctx context.Context, principal Principal, kind ResourceKind, fields map[string]any) (record Record, err error) {
	repo, spec, err := s.store(kind)
	if err != nil {
		return Record{}, err
	}

	logger := s.loggerWith(ctx, "Create", kind, "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create record", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("record_id", record.ID).InfoContext(ctx, "record created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	merged := maps.Clone(spec.Defaults)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, sanitizeFields(fields))
	if err = validateRecord(spec, merged); err != nil {
		return
	}

	now := s.now()
	record = Record{
		ID:        s.idGenerator(),
		Kind:      kind,
		Fields:    merged,
		CreatedBy: principal.UserID,
		UpdatedBy: principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	check := newRecordConflictCheck(spec)
	if err = repo.Insert(ctx, record.ID, record.clone(), check.conflicts); err != nil {
		err = check.mapError(err)
		record = Record{}
		return
	}

	publish(ctx, s.notifier, logger, spec.Singular, ActionCreated, record)
	return
}

// Update merges fields onto the stored record. A nil value removes the field.
func (s *ResourceService) Update(ctx context.Context, principal Principal, kind ResourceKind, id string, fields map[string]any) (record Record, err error) {
	repo, spec, err := s.store(kind)
	if err != nil {
		return Record{}, err
	}

	logger := s.loggerWith(ctx, "Update", kind, "principal_id", principal.UserID, "record_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update record", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "record updated")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	patch := sanitizeFields(fields)
	now := s.now()
	check := newRecordConflictCheck(spec)
	record, err = repo.Update(ctx, id, func(current Record) (Record, error) {
		current = current.clone()
		for key, value := range patch {
			if value == nil {
				delete(current.Fields, key)
				continue
			}
			current.Fields[key] = value
		}
		if err := validateRecord(spec, current.Fields); err != nil {
			return Record{}, err
		}
		current.UpdatedBy = principal.UserID
		current.UpdatedAt = now
		return current, nil
	}, check.conflicts)
	if err != nil {
		err = check.mapError(err)
		return
	}
	record = record.clone()

	publish(ctx, s.notifier, logger, spec.Singular, ActionUpdated, record)
	return
}

// Delete removes a record and returns it.
func (s *ResourceService) Delete(ctx context.Context, principal Principal, kind ResourceKind, id string) (record Record, err error) {
	repo, spec, err := s.store(kind)
	if err != nil {
		return Record{}, err
	}

	logger := s.loggerWith(ctx, "Delete", kind, "principal_id", principal.UserID, "record_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete record", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "record deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	record, err = repo.Delete(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, spec.Singular, ActionDeleted, record)
	return
}

func sanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		key = strings.TrimSpace(key)
		if key == "" || isReservedField(key) {
			continue
		}
		if text, ok := value.(string); ok {
			value = strings.TrimSpace(text)
		}
		out[key] = value
	}
	return out
}

func isReservedField(key string) bool {
	for _, reserved := range reservedFields {
		if key == reserved {
			return true
		}
	}
	return false
}

func validateRecord(spec ResourceSpec, fields map[string]any) error {
	vErr := &ValidationError{}
	for _, name := range spec.Required {
		if fieldText(fields[name]) == "" {
			vErr.add(name, name+" is required")
		}
	}
	if spec.Kind == KindBookings && !vErr.HasErrors() {
		if _, err := bookingSlot(Record{Fields: fields}); err != nil {
			vErr.add("endTime", err.Error())
		}
	}
	return vErr.errOrNil()
}

func matchesRecord(record Record, match map[string]string, search string) bool {
	for field, want := range match {
		if !strings.EqualFold(record.Text(field), strings.TrimSpace(want)) {
			return false
		}
	}
	if search == "" {
		return true
	}
	for _, value := range record.Fields {
		if text, ok := value.(string); ok && strings.Contains(strings.ToLower(text), search) {
			return true
		}
	}
	return false
}

// recordConflictCheck runs under the collection lock and remembers which rule
// rejected the candidate so the caller can return the matching sentinel.
type recordConflictCheck struct {
	spec      ResourceSpec
	slotTaken bool
}

func newRecordConflictCheck(spec ResourceSpec) *recordConflictCheck {
	return &recordConflictCheck{spec: spec}
}

func (c *recordConflictCheck) conflicts(candidate, existing Record) bool {
	for _, group := range c.spec.Unique {
		if sameValues(candidate, existing, group) {
			return true
		}
	}
	if c.spec.Kind == KindBookings && bookingsCollide(candidate, existing) {
		c.slotTaken = true
		return true
	}
	return false
}

func (c *recordConflictCheck) mapError(err error) error {
	err = mapRepoError(err)
	if c.slotTaken && errors.Is(err, ErrAlreadyExists) {
		return ErrSlotTaken
	}
	return err
}

// sameValues reports whether both records carry equal, non-empty values for every field in group.
func sameValues(a, b Record, group []string) bool {
	for _, field := range group {
		av, bv := a.Text(field), b.Text(field)
		if av == "" || !strings.EqualFold(av, bv) {
			return false
		}
	}
	return len(group) > 0
}

func bookingsCollide(candidate, existing Record) bool {
	if strings.EqualFold(candidate.Text("status"), "cancelled") || strings.EqualFold(existing.Text("status"), "cancelled") {
		return false
	}
	if candidate.Text("date") != existing.Text("date") {
		return false
	}
	cSlot, err := bookingSlot(candidate)
	if err != nil {
		return false
	}
	eSlot, err := bookingSlot(existing)
	if err != nil {
		return false
	}
	return len(scheduler.DetectConflicts([]scheduler.Slot{eSlot}, cSlot)) > 0
}

func bookingSlot(record Record) (scheduler.Slot, error) {
	date := record.Text("date")
	start, err := time.Parse(dateLayout+"T15:04", date+"T"+clockPrefix(record.Text("startTime")))
	if err != nil {
		return scheduler.Slot{}, fmt.Errorf("date and startTime must be YYYY-MM-DD and HH:MM")
	}
	end, err := time.Parse(dateLayout+"T15:04", date+"T"+clockPrefix(record.Text("endTime")))
	if err != nil {
		return scheduler.Slot{}, fmt.Errorf("date and endTime must be YYYY-MM-DD and HH:MM")
	}
	if !end.After(start) {
		return scheduler.Slot{}, fmt.Errorf("endTime must be after startTime")
	}
	return scheduler.Slot{ID: record.ID, RoomID: record.Text("roomId"), Start: start, End: end}, nil
}

// clockPrefix trims seconds from HH:MM:SS.
func clockPrefix(value string) string {
	if len(value) > 5 && value[5] == ':' {
		return value[:5]
	}
	return value
}
