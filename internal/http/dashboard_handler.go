package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/wire"
)

type dashboardService interface {
	Stats(ctx context.Context) (application.DashboardStats, error)
}

type DashboardHandler struct {
	service   dashboardService
	responder responder
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, responder: newResponder(logger)}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromDashboardStats(stats))
}
