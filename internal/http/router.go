package http

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/metrics"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Schedules     *ScheduleHandler
	Announcements *AnnouncementHandler
	Tasks         *TaskHandler
	Resources     *ResourceHandler
	ResourceKinds []application.ResourceKind
	Settings      *SettingsHandler
	Dashboard     *DashboardHandler
	// Realtime serves the websocket endpoint at /ws.
	Realtime http.Handler

	Validator          TokenValidator
	Metrics            *metrics.Metrics
	CORSOrigins        []string
	LoginRatePerMinute int
	LoginRateBurst     int
	TrustedProxies     []netip.Prefix
	Logger             *slog.Logger
	Middleware         []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		TrustedRealIP(cfg.TrustedProxies),
		RequestLogger(logger),
		Recover(logger),
		CORS(cfg.CORSOrigins),
		Instrument(cfg.Metrics),
	)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.Realtime != nil {
		r.Handle("/ws", cfg.Realtime)
	}

	guard := RequireToken(cfg.Validator, logger)

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			limit := LoginRateLimit(cfg.LoginRatePerMinute, cfg.LoginRateBurst, logger)
			r.Route("/auth", func(r chi.Router) {
				r.With(limit).Post("/login", cfg.Auth.Login)
				r.With(limit).Post("/register", cfg.Auth.Register)
				r.Group(func(r chi.Router) {
					r.Use(guard)
					r.Get("/me", cfg.Auth.Me)
					r.Post("/logout", cfg.Auth.Logout)
					r.Post("/refresh", cfg.Auth.Refresh)
				})
			})
		}

		if cfg.Users != nil {
			r.Route("/users", func(r chi.Router) {
				r.Use(guard)
				r.Get("/", cfg.Users.List)
				r.Post("/", cfg.Users.Create)
				r.Get("/{id}", cfg.Users.Get)
				r.Put("/{id}", cfg.Users.Update)
				r.Patch("/{id}/status", cfg.Users.SetStatus)
				r.Patch("/{id}/approve", cfg.Users.Approve)
				r.Patch("/{id}/reject", cfg.Users.Reject)
				r.Delete("/{id}", cfg.Users.Delete)
			})
		}

		if cfg.Schedules != nil {
			r.Route("/schedule", func(r chi.Router) {
				r.Get("/", cfg.Schedules.List)
				r.Get("/{id}", cfg.Schedules.Get)
				r.Group(func(r chi.Router) {
					r.Use(guard)
					r.Post("/", cfg.Schedules.Create)
					r.Put("/{id}", cfg.Schedules.Update)
					r.Delete("/{id}", cfg.Schedules.Delete)
				})
			})
		}

		if cfg.Announcements != nil {
			r.Route("/announcements", func(r chi.Router) {
				r.Get("/", cfg.Announcements.List)
				r.Get("/{id}", cfg.Announcements.Get)
				r.Group(func(r chi.Router) {
					r.Use(guard)
					r.Post("/", cfg.Announcements.Create)
					r.Put("/{id}", cfg.Announcements.Update)
					r.Delete("/{id}", cfg.Announcements.Delete)
				})
			})
		}

		if cfg.Tasks != nil {
			r.Route("/tasks", func(r chi.Router) {
				r.Use(guard)
				r.Get("/", cfg.Tasks.List)
				r.Post("/", cfg.Tasks.Create)
				r.Get("/{id}", cfg.Tasks.Get)
				r.Put("/{id}", cfg.Tasks.Update)
				r.Delete("/{id}", cfg.Tasks.Delete)
			})
		}

		if cfg.Resources != nil {
			r.Group(func(r chi.Router) {
				r.Use(guard)
				for _, kind := range cfg.ResourceKinds {
					r.Mount("/"+string(kind), cfg.Resources.routes(kind))
				}
			})
		}

		if cfg.Settings != nil {
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", cfg.Settings.List)
				r.Get("/{category}", cfg.Settings.Get)
				r.Group(func(r chi.Router) {
					r.Use(guard)
					r.Post("/reset", cfg.Settings.Reset)
					r.Put("/{category}", cfg.Settings.Replace)
					r.Post("/{category}/items", cfg.Settings.AddItem)
					r.Delete("/{category}/items/{item}", cfg.Settings.RemoveItem)
				})
			})
		}

		if cfg.Dashboard != nil {
			r.With(guard).Get("/dashboard/stats", cfg.Dashboard.Stats)
		}
	})

	return r
}
