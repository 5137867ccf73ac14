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

var knownAnnouncementPriorities = []AnnouncementPriority{AnnouncementLow, AnnouncementNormal, AnnouncementHigh, AnnouncementUrgent}

// AnnouncementService manages dashboard notices.
type AnnouncementService struct {
	announcements Repository[Announcement]
	notifier      Notifier
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewAnnouncementService wires dependencies for announcement operations.
func NewAnnouncementService(announcements Repository[Announcement], notifier Notifier, idGenerator func() string, now func() time.Time) *AnnouncementService {
	return NewAnnouncementServiceWithLogger(announcements, notifier, idGenerator, now, nil)
}

// NewAnnouncementServiceWithLogger wires dependencies for announcement operations with a specified logger.
func NewAnnouncementServiceWithLogger(announcements Repository[Announcement], notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AnnouncementService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AnnouncementService{
		announcements: announcements,
		notifier:      defaultNotifier(notifier),
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *AnnouncementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnnouncementService", operation, attrs...)
}

func (s *AnnouncementService) ready() error {
	if s == nil {
		return fmt.Errorf("AnnouncementService is nil")
	}
	if s.announcements == nil {
		return fmt.Errorf("announcement repository not configured")
	}
	return nil
}

// ListAnnouncements returns visible announcements newest first, or all of them
// when filter.IncludeInactive is set.
func (s *AnnouncementService) ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.announcements.List(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListAnnouncements").ErrorContext(ctx, "failed to list announcements", "error", err)
		return nil, err
	}

	now := s.now()
	result := make([]Announcement, 0, len(all))
	for _, announcement := range all {
		if !filter.IncludeInactive && !announcement.Visible(now) {
			continue
		}
		result = append(result, announcement)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CountVisible reports how many announcements are currently shown.
func (s *AnnouncementService) CountVisible(ctx context.Context) (int, error) {
	visible, err := s.ListAnnouncements(ctx, AnnouncementFilter{})
	return len(visible), err
}

// GetAnnouncement returns a single announcement.
func (s *AnnouncementService) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	if err := s.ready(); err != nil {
		return Announcement{}, err
	}
	announcement, err := s.announcements.Get(ctx, id)
	return announcement, mapRepoError(err)
}

// CreateAnnouncement validates and stores a new announcement. Active defaults to true.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, principal Principal, input AnnouncementInput) (announcement Announcement, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateAnnouncement", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create announcement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("announcement_id", announcement.ID).InfoContext(ctx, "announcement created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	announcement, err = applyAnnouncementInput(newAnnouncement(s.idGenerator(), principal, now), input, principal, now)
	if err != nil {
		return
	}
	if err = s.announcements.Insert(ctx, announcement.ID, announcement, nil); err != nil {
		err = mapRepoError(err)
		announcement = Announcement{}
		return
	}

	publish(ctx, s.notifier, logger, ResourceAnnouncement, ActionCreated, announcement)
	return
}

// UpdateAnnouncement applies the supplied fields to a stored announcement.
func (s *AnnouncementService) UpdateAnnouncement(ctx context.Context, principal Principal, id string, input AnnouncementInput) (announcement Announcement, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateAnnouncement", "principal_id", principal.UserID, "announcement_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update announcement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "announcement updated")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	announcement, err = s.announcements.Update(ctx, id, func(current Announcement) (Announcement, error) {
		return applyAnnouncementInput(current, input, principal, now)
	}, nil)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceAnnouncement, ActionUpdated, announcement)
	return
}

// SaveAnnouncement creates or updates the announcement identified by id.
func (s *AnnouncementService) SaveAnnouncement(ctx context.Context, principal Principal, id string, input AnnouncementInput) (announcement Announcement, action string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = s.idGenerator()
	}

	logger := s.loggerWith(ctx, "SaveAnnouncement", "principal_id", principal.UserID, "announcement_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save announcement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("action", action).InfoContext(ctx, "announcement saved")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	var created bool
	announcement, created, err = s.announcements.Upsert(ctx, id, func(current Announcement, exists bool) (Announcement, error) {
		if !exists {
			current = newAnnouncement(id, principal, now)
		}
		return applyAnnouncementInput(current, input, principal, now)
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	action = ActionUpdated
	if created {
		action = ActionCreated
	}
	publish(ctx, s.notifier, logger, ResourceAnnouncement, action, announcement)
	return
}

// DeleteAnnouncement removes an announcement and returns it.
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, principal Principal, id string) (announcement Announcement, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteAnnouncement", "principal_id", principal.UserID, "announcement_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete announcement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "announcement deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	announcement, err = s.announcements.Delete(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	publish(ctx, s.notifier, logger, ResourceAnnouncement, ActionDeleted, announcement)
	return
}

func newAnnouncement(id string, principal Principal, now time.Time) Announcement {
	return Announcement{
		ID:        id,
		Priority:  AnnouncementNormal,
		Active:    true,
		CreatedBy: principal.UserID,
		CreatedAt: now,
	}
}

// applyAnnouncementInput overlays input on current and validates the result.
func applyAnnouncementInput(current Announcement, input AnnouncementInput, principal Principal, now time.Time) (Announcement, error) {
	vErr := &ValidationError{}

	if input.Title != nil {
		current.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		current.Content = *input.Content
	}
	if input.Priority != nil {
		priority := AnnouncementPriority(strings.ToLower(strings.TrimSpace(*input.Priority)))
		if priority == "" {
			priority = AnnouncementNormal
		}
		if !slices.Contains(knownAnnouncementPriorities, priority) {
			vErr.add("priority", "priority must be one of low, normal, high, urgent")
		}
		current.Priority = priority
	}
	if input.ExpiresAt != nil {
		current.ExpiresAt = *input.ExpiresAt
	}
	if input.Active != nil {
		current.Active = *input.Active
	}

	if current.Title == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(current.Content) == "" {
		vErr.add("content", "content is required")
	}
	if err := vErr.errOrNil(); err != nil {
		return Announcement{}, err
	}

	current.UpdatedBy = principal.UserID
	current.UpdatedAt = now
	return current, nil
}
