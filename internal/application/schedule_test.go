package application

import (
	"errors"
	"strings"
	"testing"
)

func TestParseScheduleInput_Academic(t *testing.T) {
	t.Parallel()

	input, err := ParseScheduleInput(ScheduleFields{
		Date:        "2024-03-01",
		StartTime:   "09:00",
		EndTime:     "10:30",
		RoomNumber:  " B-204 ",
		Subject:     "Linear Algebra",
		FacultyName: "Dr. Noether",
	})
	if err != nil {
		t.Fatalf("ParseScheduleInput failed: %v", err)
	}
	academic, ok := input.(AcademicInput)
	if !ok {
		t.Fatalf("expected AcademicInput, got %T", input)
	}
	if academic.RoomNumber != "B-204" {
		t.Fatalf("expected trimmed room, got %q", academic.RoomNumber)
	}

	var schedule Schedule
	input.apply(&schedule)
	if schedule.Shape != ShapeAcademic || schedule.Title != "Linear Algebra" {
		t.Fatalf("expected subject mirrored to title, got %#v", schedule)
	}
}

func TestParseScheduleInput_General(t *testing.T) {
	t.Parallel()

	input, err := ParseScheduleInput(ScheduleFields{
		Title:     "All hands",
		Content:   "Quarterly review",
		StartTime: "2024-03-02T14:00:00Z",
		EndTime:   "2024-03-02T15:00:00Z",
		Type:      "meeting",
	})
	if err != nil {
		t.Fatalf("ParseScheduleInput failed: %v", err)
	}
	general, ok := input.(GeneralInput)
	if !ok {
		t.Fatalf("expected GeneralInput, got %T", input)
	}
	if general.Date != "2024-03-02" {
		t.Fatalf("expected date derived from startTime, got %q", general.Date)
	}

	var schedule Schedule
	input.apply(&schedule)
	if schedule.Subject != "All hands" || schedule.SortKey() != "2024-03-02T14:00:00Z" {
		t.Fatalf("unexpected schedule %#v (key %q)", schedule, schedule.SortKey())
	}
}

func TestParseScheduleInput_ReportsBothShapes(t *testing.T) {
	t.Parallel()

	_, err := ParseScheduleInput(ScheduleFields{Subject: "Physics", StartTime: "10:00"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	academic := vErr.FieldErrors["academic"]
	if !strings.Contains(academic, "room_number") || !strings.Contains(academic, "faculty_name") || strings.Contains(academic, "subject") {
		t.Fatalf("unexpected academic report %q", academic)
	}
	general := vErr.FieldErrors["general"]
	if !strings.Contains(general, "title") || !strings.Contains(general, "endTime") {
		t.Fatalf("unexpected general report %q", general)
	}
}

func TestParseScheduleInput_RejectsMalformedTimes(t *testing.T) {
	t.Parallel()

	_, err := ParseScheduleInput(ScheduleFields{
		Date:        "03/01/2024",
		StartTime:   "11:00",
		EndTime:     "10:00",
		RoomNumber:  "A1",
		Subject:     "Chemistry",
		FacultyName: "Dr. Curie",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	academic := vErr.FieldErrors["academic"]
	if !strings.Contains(academic, "date must be YYYY-MM-DD") || !strings.Contains(academic, "end_time must be after start_time") {
		t.Fatalf("unexpected academic report %q", academic)
	}
}

func TestFieldsOverlay(t *testing.T) {
	t.Parallel()

	base := ScheduleFields{Subject: "Old", RoomNumber: "A1"}
	merged := base.overlay(ScheduleFields{Subject: "New", RoomNumber: "  "})
	if merged.Subject != "New" || merged.RoomNumber != "A1" {
		t.Fatalf("unexpected overlay %#v", merged)
	}
}
