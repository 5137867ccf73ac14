package realtime

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/example/liveboard/internal/application"
)

// Event names.
const (
	EventAuthenticate        = "authenticate"
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
	EventRequestData         = "request_data"
	EventError               = "error"

	LegacyScheduleUpdate     = "schedule:update"
	LegacyAnnouncementUpdate = "announcement:update"
)

// Data types accepted by request_data.
const (
	DataSchedules     = "schedules"
	DataAnnouncements = "announcements"
	DataTasks         = "tasks"
	DataDashboard     = "dashboard"
)

var mutableResources = []string{
	application.ResourceSchedule,
	application.ResourceAnnouncement,
	application.ResourceTask,
}

// Envelope is one inbound frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is one outbound frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// UpdatePayload is the body of every {resource}_update event.
type UpdatePayload struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// IdentityPayload answers a successful authenticate.
type IdentityPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ErrorPayload is sent to the originating socket when an event fails.
type ErrorPayload struct {
	Event   string            `json:"event,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type legacySchedulePayload struct {
	Action   string `json:"action"`
	Date     string `json:"date"`
	Schedule any    `json:"schedule"`
}

type legacyAnnouncementPayload struct {
	Action       string `json:"action"`
	Announcement any    `json:"announcement"`
}

var errMissingID = errors.New("id is required")

// UpdateEvent names the broadcast for a resource.
func UpdateEvent(resource string) string {
	return resource + "_update"
}

// parseMutation splits "schedule_created" into its resource and action.
func parseMutation(event string) (resource, action string, ok bool) {
	for _, candidate := range mutableResources {
		suffix, found := strings.CutPrefix(event, candidate+"_")
		if !found {
			continue
		}
		switch suffix {
		case application.ActionCreated, application.ActionUpdated, application.ActionDeleted:
			return candidate, suffix, true
		}
	}
	return "", "", false
}

// decodeToken accepts a bare string or {"token": "..."}.
func decodeToken(data json.RawMessage) string {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		return strings.TrimSpace(token)
	}
	var wrapped struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return strings.TrimSpace(wrapped.Token)
	}
	return ""
}

type dataRequest struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

// decodeDataRequest accepts a bare type name or {"type": "...", "date": "..."}.
func decodeDataRequest(data json.RawMessage) dataRequest {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return dataRequest{Type: strings.ToLower(strings.TrimSpace(name))}
	}
	var req dataRequest
	_ = json.Unmarshal(data, &req)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	return req
}

// decodeID accepts a bare id or an object carrying "id".
func decodeID(data json.RawMessage) string {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var wrapped struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(data, &wrapped)
	return strings.TrimSpace(wrapped.ID)
}
