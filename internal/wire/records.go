package wire

import (
	"maps"
	"time"

	"github.com/example/liveboard/internal/application"
)

// FromRecord flattens an enterprise record into one JSON object. Managed
// fields overwrite same-named caller fields.
func FromRecord(r application.Record) map[string]any {
	out := make(map[string]any, len(r.Fields)+5)
	maps.Copy(out, r.Fields)
	out["id"] = r.ID
	out["createdBy"] = r.CreatedBy
	out["updatedBy"] = r.UpdatedBy
	out["createdAt"] = r.CreatedAt.Format(time.RFC3339Nano)
	out["updatedAt"] = r.UpdatedAt.Format(time.RFC3339Nano)
	return out
}

// FromRecords converts a list of records.
func FromRecords(records []application.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, FromRecord(r))
	}
	return out
}

// SettingsCategory is one dropdown category.
type SettingsCategory struct {
	Category  string    `json:"category"`
	Items     []string  `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromSettingsCategory converts a category.
func FromSettingsCategory(c application.SettingsCategory) SettingsCategory {
	items := c.Items
	if items == nil {
		items = []string{}
	}
	return SettingsCategory{Category: c.Name, Items: items, UpdatedAt: c.UpdatedAt}
}

// FromSettings renders every category as a name to items map.
func FromSettings(categories []application.SettingsCategory) map[string][]string {
	out := make(map[string][]string, len(categories))
	for _, c := range categories {
		out[c.Name] = FromSettingsCategory(c).Items
	}
	return out
}

// SettingsItemsRequest replaces a category.
type SettingsItemsRequest struct {
	Items []string `json:"items"`
}

// SettingsItemRequest adds one item.
type SettingsItemRequest struct {
	Value string `json:"value"`
}

// DashboardStats is the dashboard aggregate.
type DashboardStats struct {
	Users struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	} `json:"users"`
	Schedules struct {
		Total int `json:"total"`
		Today int `json:"today"`
	} `json:"schedules"`
	Announcements struct {
		Active int `json:"active"`
	} `json:"announcements"`
	Tasks struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	} `json:"tasks"`
	Resources     map[string]int `json:"resources"`
	BookingsToday int            `json:"bookingsToday"`
	PendingLeaves int            `json:"pendingLeaves"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

// FromDashboardStats converts the aggregate.
func FromDashboardStats(s application.DashboardStats) DashboardStats {
	var out DashboardStats
	out.Users.Total = s.UsersTotal
	out.Users.ByStatus = s.UsersByStatus
	out.Schedules.Total = s.SchedulesTotal
	out.Schedules.Today = s.SchedulesToday
	out.Announcements.Active = s.ActiveAnnouncements
	out.Tasks.Total = s.TasksTotal
	out.Tasks.ByStatus = s.TasksByStatus
	out.Resources = s.Resources
	out.BookingsToday = s.BookingsToday
	out.PendingLeaves = s.PendingLeaves
	out.GeneratedAt = s.GeneratedAt
	return out
}

// Encode converts a domain value carried by an application.Event into its
// wire form. Unknown values are returned unchanged.
func Encode(value any) any {
	switch v := value.(type) {
	case application.Schedule:
		return FromSchedule(v)
	case application.Announcement:
		return FromAnnouncement(v)
	case application.Task:
		return FromTask(v)
	case application.Record:
		return FromRecord(v)
	case application.User:
		return FromUser(v)
	case application.DashboardStats:
		return FromDashboardStats(v)
	case []application.Schedule:
		return FromSchedules(v)
	case []application.Announcement:
		return FromAnnouncements(v)
	case []application.Task:
		return FromTasks(v)
	default:
		return value
	}
}
