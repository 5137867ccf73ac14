package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/metrics"
	"github.com/example/liveboard/internal/wire"
)

type authService interface {
	Login(ctx context.Context, params application.LoginParams) (application.AuthResult, error)
	Register(ctx context.Context, params application.RegisterParams) (application.AuthResult, error)
	Me(ctx context.Context, principal application.Principal) (application.User, error)
	Logout(ctx context.Context, principal application.Principal) error
	Refresh(ctx context.Context, principal application.Principal) (application.AuthResult, error)
}

type AuthHandler struct {
	service   authService
	metrics   *metrics.Metrics
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, metrics: m, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login answers 200 {token, expiresAt, user}. Unknown users and wrong
// passwords produce the same 401 body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Login(r.Context(), req.Params())
	if err != nil {
		h.metrics.Login(loginOutcome(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.metrics.Login("success")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromAuthResult(result))
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, application.ErrAccountDisabled):
		return "disabled"
	default:
		return application.ErrorKind(err)
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req wire.RegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Register(r.Context(), req.Params())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, wire.FromAuthResult(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, struct {
		User wire.User `json:"user"`
	}{User: wire.FromUser(user)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Logout(r.Context(), principal); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Refresh(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wire.FromAuthResult(result))
}
