package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/liveboard/internal/application"
)

func TestScheduleRequest_FoldsNamingVariants(t *testing.T) {
	var req ScheduleRequest
	body := `{"date":"2024-03-01","startTime":"09:00","end_time":"10:00","endTime":"11:00","roomNumber":"B2","subject":"Logic","facultyName":"Dr. Turing"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fields := req.Fields()
	if fields.StartTime != "09:00" {
		t.Fatalf("expected camelCase start time to fill in, got %q", fields.StartTime)
	}
	if fields.EndTime != "10:00" {
		t.Fatalf("expected snake_case end time to win, got %q", fields.EndTime)
	}
	if fields.RoomNumber != "B2" || fields.FacultyName != "Dr. Turing" {
		t.Fatalf("unexpected academic fields: %+v", fields)
	}
}

func TestFromSchedule_WritesBothVariants(t *testing.T) {
	out, err := json.Marshal(FromSchedule(application.Schedule{
		ID: "s-1", Shape: application.ShapeAcademic, Date: "2024-03-01",
		StartTime: "09:00", EndTime: "10:00", Subject: "Logic", Title: "Logic",
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for key, want := range map[string]string{
		"start_time": "09:00", "startTime": "09:00",
		"end_time": "10:00", "endTime": "10:00",
		"subject": "Logic", "title": "Logic",
	} {
		if decoded[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, decoded[key])
		}
	}
}

func TestAnnouncementRequest_Aliases(t *testing.T) {
	var req AnnouncementRequest
	if err := json.Unmarshal([]byte(`{"message":"Body","isActive":false}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	input := req.Input()
	if input.Content == nil || *input.Content != "Body" {
		t.Fatalf("expected message to populate content, got %v", input.Content)
	}
	if input.Active == nil || *input.Active {
		t.Fatalf("expected isActive to populate active, got %v", input.Active)
	}
	if input.ExpiresAt != nil {
		t.Fatal("expected absent expiresAt to leave the input untouched")
	}
}

func TestAnnouncementRequest_ExpiresAt(t *testing.T) {
	var cleared AnnouncementRequest
	if err := json.Unmarshal([]byte(`{"expiresAt":null}`), &cleared); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	input := cleared.Input()
	if input.ExpiresAt == nil || *input.ExpiresAt != nil {
		t.Fatal("expected explicit null to clear expiry")
	}

	var set AnnouncementRequest
	if err := json.Unmarshal([]byte(`{"expiresAt":"2024-03-02T12:00:00Z"}`), &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	input = set.Input()
	want := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	if input.ExpiresAt == nil || *input.ExpiresAt == nil || !(*input.ExpiresAt).Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, input.ExpiresAt)
	}

	var bad AnnouncementRequest
	if err := json.Unmarshal([]byte(`{"expiresAt":"soon"}`), &bad); err == nil {
		t.Fatal("expected malformed expiry to fail decoding")
	}
}

func TestFromRecord_ManagedFieldsWin(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	out := FromRecord(application.Record{
		ID:        "emp-1",
		Fields:    map[string]any{"id": "forged", "name": "Ada"},
		CreatedAt: created,
		UpdatedAt: created,
	})
	if out["id"] != "emp-1" {
		t.Fatalf("expected managed id, got %v", out["id"])
	}
	if out["name"] != "Ada" {
		t.Fatalf("expected caller field, got %v", out["name"])
	}
	if out["createdAt"] != "2024-03-01T09:00:00Z" {
		t.Fatalf("unexpected createdAt %v", out["createdAt"])
	}
}

func TestLoginRequest_IdentifierPrecedence(t *testing.T) {
	params := LoginRequest{Username: "alice", Email: "a@example.com", Password: "pw"}.Params()
	if params.Identifier != "alice" {
		t.Fatalf("expected username before email, got %q", params.Identifier)
	}
	params = LoginRequest{EmailOrUsername: "bob", Username: "alice"}.Params()
	if params.Identifier != "bob" {
		t.Fatalf("expected emailOrUsername first, got %q", params.Identifier)
	}
}

func TestFromUser_OmitsHash(t *testing.T) {
	out, err := json.Marshal(FromUser(application.User{ID: "u-1", Username: "alice", PasswordHash: "secret-digest"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "secret-digest") {
		t.Fatalf("password hash leaked: %s", out)
	}
}
