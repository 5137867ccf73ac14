package application

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ScheduleFields is the raw, shape-agnostic schedule payload. Transport
// decoders fold both naming variants (start_time/startTime, end_time/endTime)
// onto the same field. Empty strings mean "not supplied".
type ScheduleFields struct {
	Date        string
	StartTime   string
	EndTime     string
	RoomNumber  string
	Subject     string
	FacultyName string
	Title       string
	Content     string
	Type        string
	Priority    string
}

// overlay returns f with every non-empty field of patch applied.
func (f ScheduleFields) overlay(patch ScheduleFields) ScheduleFields {
	pick := func(current, next string) string {
		if strings.TrimSpace(next) != "" {
			return next
		}
		return current
	}
	return ScheduleFields{
		Date:        pick(f.Date, patch.Date),
		StartTime:   pick(f.StartTime, patch.StartTime),
		EndTime:     pick(f.EndTime, patch.EndTime),
		RoomNumber:  pick(f.RoomNumber, patch.RoomNumber),
		Subject:     pick(f.Subject, patch.Subject),
		FacultyName: pick(f.FacultyName, patch.FacultyName),
		Title:       pick(f.Title, patch.Title),
		Content:     pick(f.Content, patch.Content),
		Type:        pick(f.Type, patch.Type),
		Priority:    pick(f.Priority, patch.Priority),
	}
}

// FieldsOf returns the fields that reproduce a stored schedule, without the
// mirrored names of the other shape.
func FieldsOf(s Schedule) ScheduleFields {
	fields := ScheduleFields{
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Content:   s.Content,
		Type:      s.Type,
		Priority:  s.Priority,
	}
	switch s.Shape {
	case ShapeAcademic:
		fields.RoomNumber = s.RoomNumber
		fields.Subject = s.Subject
		fields.FacultyName = s.FacultyName
	default:
		fields.Title = s.Title
	}
	return fields
}

// ScheduleInput is a validated schedule payload: either AcademicInput or GeneralInput.
type ScheduleInput interface {
	Shape() ScheduleShape
	apply(*Schedule)
}

// AcademicInput is a class session held in a room.
type AcademicInput struct {
	Date        string
	StartTime   string
	EndTime     string
	RoomNumber  string
	Subject     string
	FacultyName string
	Content     string
	Type        string
	Priority    string
}

// Shape implements ScheduleInput.
func (AcademicInput) Shape() ScheduleShape { return ShapeAcademic }

func (in AcademicInput) apply(s *Schedule) {
	s.Shape = ShapeAcademic
	s.Date = in.Date
	s.StartTime = in.StartTime
	s.EndTime = in.EndTime
	s.RoomNumber = in.RoomNumber
	s.Subject = in.Subject
	s.FacultyName = in.FacultyName
	s.Title = in.Subject
	s.Content = in.Content
	s.Type = in.Type
	s.Priority = in.Priority
}

// GeneralInput is a free-form event with a title.
type GeneralInput struct {
	Title     string
	Content   string
	StartTime string
	EndTime   string
	// Date is derived from StartTime when it carries a calendar date.
	Date     string
	Type     string
	Priority string
}

// Shape implements ScheduleInput.
func (GeneralInput) Shape() ScheduleShape { return ShapeGeneral }

func (in GeneralInput) apply(s *Schedule) {
	s.Shape = ShapeGeneral
	s.Date = in.Date
	s.StartTime = in.StartTime
	s.EndTime = in.EndTime
	s.RoomNumber = ""
	s.Subject = in.Title
	s.FacultyName = ""
	s.Title = in.Title
	s.Content = in.Content
	s.Type = in.Type
	s.Priority = in.Priority
}

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseScheduleInput decides which shape fields satisfy. The academic shape
// wins when both do. When neither does, the ValidationError carries one entry
// per shape ("academic", "general") explaining what that shape lacked.
func ParseScheduleInput(fields ScheduleFields) (ScheduleInput, error) {
	fields = trimScheduleFields(fields)

	academic, academicErr := parseAcademic(fields)
	if academicErr == nil {
		return academic, nil
	}
	general, generalErr := parseGeneral(fields)
	if generalErr == nil {
		return general, nil
	}

	vErr := &ValidationError{}
	vErr.add(string(ShapeAcademic), academicErr.Error())
	vErr.add(string(ShapeGeneral), generalErr.Error())
	return nil, vErr
}

func parseAcademic(f ScheduleFields) (AcademicInput, error) {
	var problems []string
	problems = appendMissing(problems, map[string]string{
		"date":         f.Date,
		"start_time":   f.StartTime,
		"end_time":     f.EndTime,
		"room_number":  f.RoomNumber,
		"subject":      f.Subject,
		"faculty_name": f.FacultyName,
	})
	if len(problems) == 0 {
		if _, err := time.Parse(dateLayout, f.Date); err != nil {
			problems = append(problems, "date must be YYYY-MM-DD")
		}
		start, startOK := parseClock(f.StartTime)
		end, endOK := parseClock(f.EndTime)
		if !startOK {
			problems = append(problems, "start_time must be HH:MM")
		}
		if !endOK {
			problems = append(problems, "end_time must be HH:MM")
		}
		if startOK && endOK && !end.After(start) {
			problems = append(problems, "end_time must be after start_time")
		}
	}
	if len(problems) > 0 {
		return AcademicInput{}, shapeError(problems)
	}
	return AcademicInput{
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		RoomNumber:  f.RoomNumber,
		Subject:     f.Subject,
		FacultyName: f.FacultyName,
		Content:     f.Content,
		Type:        f.Type,
		Priority:    f.Priority,
	}, nil
}

func parseGeneral(f ScheduleFields) (GeneralInput, error) {
	var problems []string
	problems = appendMissing(problems, map[string]string{
		"title":     f.Title,
		"startTime": f.StartTime,
		"endTime":   f.EndTime,
	})

	date := f.Date
	if len(problems) == 0 {
		start, startDate, startOK := parseMoment(f.StartTime)
		end, _, endOK := parseMoment(f.EndTime)
		if !startOK {
			problems = append(problems, "startTime must be an ISO date-time or HH:MM")
		}
		if !endOK {
			problems = append(problems, "endTime must be an ISO date-time or HH:MM")
		}
		if startOK && endOK && !end.After(start) {
			problems = append(problems, "endTime must be after startTime")
		}
		if startDate != "" {
			date = startDate
		}
		if date != "" {
			if _, err := time.Parse(dateLayout, date); err != nil {
				problems = append(problems, "date must be YYYY-MM-DD")
			}
		}
	}
	if len(problems) > 0 {
		return GeneralInput{}, shapeError(problems)
	}
	return GeneralInput{
		Title:     f.Title,
		Content:   f.Content,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Date:      date,
		Type:      f.Type,
		Priority:  f.Priority,
	}, nil
}

func appendMissing(problems []string, required map[string]string) []string {
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return problems
	}
	sort.Strings(missing)
	return append(problems, "missing "+strings.Join(missing, ", "))
}

func shapeError(problems []string) error {
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}

func parseClock(value string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseMoment accepts a date-time or a bare clock time. For date-times it also
// returns the calendar date. Clock times compare on the zero date.
func parseMoment(value string) (time.Time, string, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, value[:len(dateLayout)], true
		}
	}
	if t, ok := parseClock(value); ok {
		return t, "", true
	}
	return time.Time{}, "", false
}

func trimScheduleFields(f ScheduleFields) ScheduleFields {
	return ScheduleFields{
		Date:        strings.TrimSpace(f.Date),
		StartTime:   strings.TrimSpace(f.StartTime),
		EndTime:     strings.TrimSpace(f.EndTime),
		RoomNumber:  strings.TrimSpace(f.RoomNumber),
		Subject:     strings.TrimSpace(f.Subject),
		FacultyName: strings.TrimSpace(f.FacultyName),
		Title:       strings.TrimSpace(f.Title),
		Content:     f.Content,
		Type:        strings.TrimSpace(f.Type),
		Priority:    strings.TrimSpace(f.Priority),
	}
}
