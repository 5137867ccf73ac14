package wire

import (
	"time"

	"github.com/example/liveboard/internal/application"
)

// Schedule carries both field naming variants so clients can read either.
type Schedule struct {
	ID          string    `json:"id"`
	Shape       string    `json:"shape"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	RoomNumber  string    `json:"room_number"`
	Subject     string    `json:"subject"`
	FacultyName string    `json:"faculty_name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	StartTimeJS string    `json:"startTime"`
	EndTimeJS   string    `json:"endTime"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromSchedule converts a stored schedule.
func FromSchedule(s application.Schedule) Schedule {
	return Schedule{
		ID:          s.ID,
		Shape:       string(s.Shape),
		Date:        s.Date,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		RoomNumber:  s.RoomNumber,
		Subject:     s.Subject,
		FacultyName: s.FacultyName,
		Title:       s.Title,
		Content:     s.Content,
		StartTimeJS: s.StartTime,
		EndTimeJS:   s.EndTime,
		Type:        s.Type,
		Priority:    s.Priority,
		CreatedBy:   s.CreatedBy,
		UpdatedBy:   s.UpdatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// FromSchedules converts a list of schedules.
func FromSchedules(schedules []application.Schedule) []Schedule {
	out := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, FromSchedule(s))
	}
	return out
}

// ScheduleRequest accepts the academic (snake_case) and general (camelCase)
// spellings. When both spellings of one field are present the snake_case
// value wins.
type ScheduleRequest struct {
	ID               string `json:"id"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	StartTimeCamel   string `json:"startTime"`
	EndTime          string `json:"end_time"`
	EndTimeCamel     string `json:"endTime"`
	RoomNumber       string `json:"room_number"`
	RoomNumberCamel  string `json:"roomNumber"`
	Subject          string `json:"subject"`
	FacultyName      string `json:"faculty_name"`
	FacultyNameCamel string `json:"facultyName"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Type             string `json:"type"`
	Priority         string `json:"priority"`
}

// Fields folds the naming variants onto one payload.
func (r ScheduleRequest) Fields() application.ScheduleFields {
	return application.ScheduleFields{
		Date:        r.Date,
		StartTime:   firstNonEmpty(r.StartTime, r.StartTimeCamel),
		EndTime:     firstNonEmpty(r.EndTime, r.EndTimeCamel),
		RoomNumber:  firstNonEmpty(r.RoomNumber, r.RoomNumberCamel),
		Subject:     r.Subject,
		FacultyName: firstNonEmpty(r.FacultyName, r.FacultyNameCamel),
		Title:       r.Title,
		Content:     r.Content,
		Type:        r.Type,
		Priority:    r.Priority,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
