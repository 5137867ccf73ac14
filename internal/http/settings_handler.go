package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

type settingsService interface {
	ListSettings(ctx context.Context) ([]application.SettingsCategory, error)
	GetCategory(ctx context.Context, name string) (application.SettingsCategory, error)
	ReplaceCategory(ctx context.Context, principal application.Principal, name string, items []string) (application.SettingsCategory, error)
	AddItem(ctx context.Context, principal application.Principal, name, value string) (application.SettingsCategory, error)
	RemoveItem(ctx context.Context, principal application.Principal, name, value string) (application.SettingsCategory, error)
	Reset(ctx context.Context, principal application.Principal) ([]application.SettingsCategory, error)
}

type SettingsHandler struct {
	service   settingsService
	responder responder
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, responder: newResponder(logger)}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListSettings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSettings(categories))
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), pathParam(r, "category"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSettingsCategory(category))
}

func (h *SettingsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req wire.SettingsItemsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	category, err := h.service.ReplaceCategory(r.Context(), principal, pathParam(r, "category"), req.Items)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSettingsCategory(category))
}

func (h *SettingsHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req wire.SettingsItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	category, err := h.service.AddItem(r.Context(), principal, pathParam(r, "category"), req.Value)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, wire.FromSettingsCategory(category))
}

func (h *SettingsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	category, err := h.service.RemoveItem(r.Context(), principal, pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSettingsCategory(category))
}

func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	categories, err := h.service.Reset(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromSettings(categories))
}

// pathParam returns the unescaped URL parameter; items may contain spaces.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
