package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

type resourceService interface {
	List(ctx context.Context, kind application.ResourceKind, filter application.ResourceFilter) ([]application.Record, error)
	Get(ctx context.Context, kind application.ResourceKind, id string) (application.Record, error)
	Create(ctx context.Context, principal application.Principal, kind application.ResourceKind, fields map[string]any) (application.Record, error)
	Update(ctx context.Context, principal application.Principal, kind application.ResourceKind, id string, fields map[string]any) (application.Record, error)
	Delete(ctx context.Context, principal application.Principal, kind application.ResourceKind, id string) (application.Record, error)
}

// ResourceHandler serves the generic enterprise collections. Each method
// returns the handler for one kind.
type ResourceHandler struct {
	service   resourceService
	responder responder
	logger    *slog.Logger
}

func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, responder: newResponder(base), logger: base}
}

// routes mounts list, get, create, update and delete for kind.
func (h *ResourceHandler) routes(kind application.ResourceKind) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List(kind))
	r.Post("/", h.Create(kind))
	r.Get("/{id}", h.Get(kind))
	r.Put("/{id}", h.Update(kind))
	r.Patch("/{id}", h.Update(kind))
	r.Delete("/{id}", h.Delete(kind))
	return r
}

// List treats every query parameter except search as an exact field match.
func (h *ResourceHandler) List(kind application.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := application.ResourceFilter{Search: query.Get("search"), Match: map[string]string{}}
		for key := range query {
			if key != "search" {
				filter.Match[key] = query.Get(key)
			}
		}

		records, err := h.service.List(r.Context(), kind, filter)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromRecords(records))
	}
}

func (h *ResourceHandler) Get(kind application.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := h.service.Get(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromRecord(record))
	}
}

func (h *ResourceHandler) Create(kind application.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := decodeJSON(r, &fields, false); err != nil {
			handlerLogger(r.Context(), h.logger, "ResourceHandler", "Create", "kind", kind, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode record", "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}

		principal, _ := PrincipalFromContext(r.Context())
		record, err := h.service.Create(r.Context(), principal, kind, fields)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusCreated, wire.FromRecord(record))
	}
}

// Update merges the body onto the stored record; null values remove fields.
func (h *ResourceHandler) Update(kind application.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := decodeJSON(r, &fields, false); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}

		principal, _ := PrincipalFromContext(r.Context())
		record, err := h.service.Update(r.Context(), principal, kind, chi.URLParam(r, "id"), fields)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromRecord(record))
	}
}

func (h *ResourceHandler) Delete(kind application.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFromContext(r.Context())
		if _, err := h.service.Delete(r.Context(), principal, kind, chi.URLParam(r, "id")); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
	}
}
