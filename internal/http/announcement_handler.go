package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

type announcementService interface {
	ListAnnouncements(ctx context.Context, filter application.AnnouncementFilter) ([]application.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (application.Announcement, error)
	CreateAnnouncement(ctx context.Context, principal application.Principal, input application.AnnouncementInput) (application.Announcement, error)
	UpdateAnnouncement(ctx context.Context, principal application.Principal, id string, input application.AnnouncementInput) (application.Announcement, error)
	DeleteAnnouncement(ctx context.Context, principal application.Principal, id string) (application.Announcement, error)
}

type AnnouncementHandler struct {
	service   announcementService
	responder responder
}

func NewAnnouncementHandler(service announcementService, logger *slog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{service: service, responder: newResponder(logger)}
}

// List returns visible announcements; ?all=true includes inactive and expired ones.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	announcements, err := h.service.ListAnnouncements(r.Context(), application.AnnouncementFilter{IncludeInactive: all})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromAnnouncements(announcements))
}

func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	announcement, err := h.service.GetAnnouncement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromAnnouncement(announcement))
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.AnnouncementRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	announcement, err := h.service.CreateAnnouncement(r.Context(), principal, req.Input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, wire.FromAnnouncement(announcement))
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.AnnouncementRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	announcement, err := h.service.UpdateAnnouncement(r.Context(), principal, chi.URLParam(r, "id"), req.Input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromAnnouncement(announcement))
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if _, err := h.service.DeleteAnnouncement(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
