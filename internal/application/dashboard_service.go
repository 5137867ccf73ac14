package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DashboardStats is the aggregate shown on the dashboard and answered to
// realtime "dashboard" pulls.
type DashboardStats struct {
	UsersTotal          int
	UsersByStatus       map[string]int
	SchedulesTotal      int
	SchedulesToday      int
	ActiveAnnouncements int
	TasksTotal          int
	TasksByStatus       map[string]int
	Resources           map[string]int
	BookingsToday       int
	PendingLeaves       int
	GeneratedAt         time.Time
}

// ScheduleCounter counts timetable entries.
type ScheduleCounter interface {
	CountSchedules(ctx context.Context, day time.Time) (total, onDay int, err error)
}

// AnnouncementCounter counts visible announcements.
type AnnouncementCounter interface {
	CountVisible(ctx context.Context) (int, error)
}

// TaskCounter tallies tasks per status.
type TaskCounter interface {
	CountByStatus(ctx context.Context) (map[TaskStatus]int, int, error)
}

// RecordCounter counts enterprise records.
type RecordCounter interface {
	Count(ctx context.Context, kind ResourceKind, field, value string) (total, matching int, err error)
}

// DashboardSources groups the collaborators the dashboard reads from. Nil
// sources contribute zero counts.
type DashboardSources struct {
	Users         Repository[User]
	Schedules     ScheduleCounter
	Announcements AnnouncementCounter
	Tasks         TaskCounter
	Records       RecordCounter
}

// DashboardService computes and caches dashboard aggregates. It implements
// Notifier so that committed mutations drop the cache.
type DashboardService struct {
	sources DashboardSources
	cache   *statsCache
	now     func() time.Time
	logger  *slog.Logger
}

// NewDashboardService wires the dashboard aggregate. A zero cacheTTL uses the cache default.
func NewDashboardService(sources DashboardSources, cacheTTL time.Duration, now func() time.Time, logger *slog.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		sources: sources,
		cache:   newStatsCache(cacheTTL, 0, now),
		now:     now,
		logger:  defaultLogger(logger),
	}
}

// Publish implements Notifier.
func (s *DashboardService) Publish(context.Context, Event) {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// Stats returns the aggregate for the current day.
func (s *DashboardService) Stats(ctx context.Context) (stats DashboardStats, err error) {
	if s == nil {
		return DashboardStats{}, fmt.Errorf("DashboardService is nil")
	}
	now := s.now()
	key := now.Format(dateLayout)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	logger := serviceLogger(ctx, s.logger, "DashboardService", "Stats")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute dashboard stats", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	stats = DashboardStats{
		UsersByStatus: make(map[string]int),
		TasksByStatus: make(map[string]int),
		Resources:     make(map[string]int),
		GeneratedAt:   now,
	}

	if s.sources.Users != nil {
		var users []User
		if users, err = s.sources.Users.List(ctx); err != nil {
			return DashboardStats{}, err
		}
		stats.UsersTotal = len(users)
		for _, status := range knownStatuses {
			stats.UsersByStatus[string(status)] = 0
		}
		for _, user := range users {
			stats.UsersByStatus[string(user.Status)]++
		}
	}

	if s.sources.Schedules != nil {
		if stats.SchedulesTotal, stats.SchedulesToday, err = s.sources.Schedules.CountSchedules(ctx, now); err != nil {
			return DashboardStats{}, err
		}
	}

	if s.sources.Announcements != nil {
		if stats.ActiveAnnouncements, err = s.sources.Announcements.CountVisible(ctx); err != nil {
			return DashboardStats{}, err
		}
	}

	if s.sources.Tasks != nil {
		var byStatus map[TaskStatus]int
		if byStatus, stats.TasksTotal, err = s.sources.Tasks.CountByStatus(ctx); err != nil {
			return DashboardStats{}, err
		}
		for status, n := range byStatus {
			stats.TasksByStatus[string(status)] = n
		}
	}

	if s.sources.Records != nil {
		for _, spec := range resourceSpecs {
			var total, matching int
			switch spec.Kind {
			case KindBookings:
				total, matching, err = s.sources.Records.Count(ctx, spec.Kind, "date", key)
				stats.BookingsToday = matching
			case KindLeaves:
				total, matching, err = s.sources.Records.Count(ctx, spec.Kind, "status", "pending")
				stats.PendingLeaves = matching
			default:
				total, _, err = s.sources.Records.Count(ctx, spec.Kind, "", "")
			}
			if err != nil {
				return DashboardStats{}, err
			}
			stats.Resources[string(spec.Kind)] = total
		}
	}

	s.cache.Store(key, stats)
	return stats, nil
}
