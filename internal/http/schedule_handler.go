package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

type scheduleService interface {
	ListSchedules(ctx context.Context, filter application.ScheduleFilter) ([]application.Schedule, error)
	GetSchedule(ctx context.Context, id string) (application.Schedule, error)
	CreateSchedule(ctx context.Context, principal application.Principal, fields application.ScheduleFields) (application.Schedule, error)
	UpdateSchedule(ctx context.Context, principal application.Principal, id string, fields application.ScheduleFields) (application.Schedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, id string) (application.Schedule, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

// List is public and accepts date, room, faculty and search filters.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	schedules, err := h.service.ListSchedules(r.Context(), application.ScheduleFilter{
		Date:    query.Get("date"),
		Room:    query.Get("room"),
		Faculty: query.Get("faculty"),
		Search:  query.Get("search"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSchedules(schedules))
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSchedule(schedule))
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.ScheduleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handlerLogger(r.Context(), h.logger, "ScheduleHandler", "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode schedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	schedule, err := h.service.CreateSchedule(r.Context(), principal, req.Fields())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, wire.FromSchedule(schedule))
}

// Update merges the supplied fields onto the stored entry.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.ScheduleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	schedule, err := h.service.UpdateSchedule(r.Context(), principal, chi.URLParam(r, "id"), req.Fields())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSchedule(schedule))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if _, err := h.service.DeleteSchedule(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
