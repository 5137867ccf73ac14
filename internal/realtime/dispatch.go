package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

var errUnavailable = errors.New("service unavailable")

// dispatch handles one inbound envelope for client.
func (h *Hub) dispatch(ctx context.Context, client *Client, envelope Envelope) {
	services := h.boundServices()
	logger := h.logger.With("client_id", client.id, "event", envelope.Event)

	switch envelope.Event {
	case EventAuthenticate:
		h.metrics.EventReceived(envelope.Event)
		h.authenticate(ctx, client, services.Auth, envelope.Data)
		return
	case EventRequestData:
		h.metrics.EventReceived(envelope.Event)
		h.requestData(ctx, client, services, envelope.Data)
		return
	}

	resource, action, ok := parseMutation(envelope.Event)
	if !ok {
		h.metrics.EventReceived("unknown")
		client.reply(EventError, ErrorPayload{Event: envelope.Event, Message: "unknown event"})
		return
	}
	h.metrics.EventReceived(envelope.Event)

	principal := client.Principal()
	if !principal.Authenticated() {
		logger.DebugContext(ctx, "ignoring mutation from unauthenticated socket")
		return
	}

	ctx = application.WithOrigin(ctx, client.id)
	var err error
	switch resource {
	case application.ResourceSchedule:
		err = h.mutateSchedule(ctx, services.Schedules, principal, action, envelope.Data)
	case application.ResourceAnnouncement:
		err = h.mutateAnnouncement(ctx, services.Announcements, principal, action, envelope.Data)
	case application.ResourceTask:
		err = h.mutateTask(ctx, services.Tasks, principal, action, envelope.Data)
	}
	if err != nil {
		logger.WarnContext(ctx, "socket mutation rejected", "error", err, "error_kind", application.ErrorKind(err))
		client.reply(EventError, errorPayload(envelope.Event, err))
	}
}

func (h *Hub) authenticate(ctx context.Context, client *Client, auth Authenticator, data json.RawMessage) {
	token := decodeToken(data)
	if token == "" {
		client.reply(EventAuthenticationError, ErrorPayload{Message: "Authentication token required"})
		return
	}
	if auth == nil {
		client.reply(EventAuthenticationError, ErrorPayload{Message: errUnavailable.Error()})
		return
	}
	principal, err := auth.ValidateToken(ctx, token)
	if err != nil {
		h.logger.InfoContext(ctx, "socket authentication failed", "client_id", client.id, "error_kind", application.ErrorKind(err))
		client.reply(EventAuthenticationError, ErrorPayload{Message: "Invalid or expired token"})
		return
	}
	client.setPrincipal(principal)
	h.logger.InfoContext(ctx, "socket authenticated", "client_id", client.id, "user_id", principal.UserID)
	client.reply(EventAuthenticated, IdentityPayload{
		UserID:   principal.UserID,
		Username: principal.Username,
		Role:     string(principal.Role),
	})
}

func (h *Hub) requestData(ctx context.Context, client *Client, services Services, data json.RawMessage) {
	req := decodeDataRequest(data)
	authenticated := client.Principal().Authenticated()

	var (
		event   string
		payload any
		err     error
	)
	switch req.Type {
	case DataSchedules:
		if services.Schedules == nil {
			err = errUnavailable
			break
		}
		var schedules []application.Schedule
		schedules, err = services.Schedules.ListSchedules(ctx, application.ScheduleFilter{Date: req.Date})
		event, payload = "schedules_data", wire.FromSchedules(schedules)
	case DataAnnouncements:
		if services.Announcements == nil {
			err = errUnavailable
			break
		}
		var announcements []application.Announcement
		announcements, err = services.Announcements.ListAnnouncements(ctx, application.AnnouncementFilter{})
		event, payload = "announcements_data", wire.FromAnnouncements(announcements)
	case DataTasks:
		if !authenticated {
			client.reply(EventAuthenticationError, ErrorPayload{Event: EventRequestData, Message: "Authentication required"})
			return
		}
		if services.Tasks == nil {
			err = errUnavailable
			break
		}
		var tasks []application.Task
		tasks, err = services.Tasks.ListTasks(ctx, application.TaskFilter{})
		event, payload = "tasks_data", wire.FromTasks(tasks)
	case DataDashboard:
		if !authenticated {
			client.reply(EventAuthenticationError, ErrorPayload{Event: EventRequestData, Message: "Authentication required"})
			return
		}
		if services.Dashboard == nil {
			err = errUnavailable
			break
		}
		var stats application.DashboardStats
		stats, err = services.Dashboard.Stats(ctx)
		event, payload = "dashboard_data", wire.FromDashboardStats(stats)
	default:
		client.reply(EventError, ErrorPayload{Event: EventRequestData, Message: "unknown data type"})
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "snapshot failed", "client_id", client.id, "type", req.Type, "error", err)
		client.reply(EventError, errorPayload(EventRequestData, err))
		return
	}
	client.reply(event, payload)
}

func (h *Hub) mutateSchedule(ctx context.Context, store ScheduleStore, principal application.Principal, action string, data json.RawMessage) error {
	if store == nil {
		return errUnavailable
	}
	if action == application.ActionDeleted {
		id := decodeID(data)
		if id == "" {
			return errMissingID
		}
		_, err := store.DeleteSchedule(ctx, principal, id)
		return err
	}
	var req wire.ScheduleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if action == application.ActionUpdated && req.ID == "" {
		return errMissingID
	}
	_, _, err := store.SaveSchedule(ctx, principal, req.ID, req.Fields())
	return err
}

func (h *Hub) mutateAnnouncement(ctx context.Context, store AnnouncementStore, principal application.Principal, action string, data json.RawMessage) error {
	if store == nil {
		return errUnavailable
	}
	if action == application.ActionDeleted {
		id := decodeID(data)
		if id == "" {
			return errMissingID
		}
		_, err := store.DeleteAnnouncement(ctx, principal, id)
		return err
	}
	var req wire.AnnouncementRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if action == application.ActionUpdated && req.ID == "" {
		return errMissingID
	}
	_, _, err := store.SaveAnnouncement(ctx, principal, req.ID, req.Input())
	return err
}

func (h *Hub) mutateTask(ctx context.Context, store TaskStore, principal application.Principal, action string, data json.RawMessage) error {
	if store == nil {
		return errUnavailable
	}
	if action == application.ActionDeleted {
		id := decodeID(data)
		if id == "" {
			return errMissingID
		}
		_, err := store.DeleteTask(ctx, principal, id)
		return err
	}
	var req wire.TaskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if action == application.ActionUpdated && req.ID == "" {
		return errMissingID
	}
	_, _, err := store.SaveTask(ctx, principal, req.ID, req.Input())
	return err
}

func errorPayload(event string, err error) ErrorPayload {
	payload := ErrorPayload{Event: event, Message: "request failed"}
	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		payload.Message = "validation failed"
		payload.Errors = vErr.FieldErrors
	case errors.Is(err, application.ErrNotFound):
		payload.Message = "not found"
	case errors.Is(err, application.ErrUnauthorized):
		payload.Message = "not permitted"
	case errors.Is(err, errMissingID), errors.Is(err, errUnavailable):
		payload.Message = err.Error()
	default:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			payload.Message = "malformed payload"
		}
	}
	return payload
}
