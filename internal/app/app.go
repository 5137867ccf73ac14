// Package app assembles the LiveBoard server: store, services, realtime hub,
// router and the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/config"
	httptransport "github.com/example/liveboard/internal/http"
	"github.com/example/liveboard/internal/metrics"
	"github.com/example/liveboard/internal/realtime"
)

const dashboardCacheTTL = 30 * time.Second

// Option overrides a collaborator, mostly for tests.
type Option func(*options)

type options struct {
	now         func() time.Time
	idGenerator func() string
	hasher      application.PasswordHasher
	settings    []byte
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(next func() string) Option {
	return func(o *options) { o.idGenerator = next }
}

// WithHasher replaces the bcrypt hasher.
func WithHasher(hasher application.PasswordHasher) Option {
	return func(o *options) { o.hasher = hasher }
}

// WithSettings supplies the settings seed document instead of SETTINGS_FILE.
func WithSettings(data []byte) Option {
	return func(o *options) { o.settings = data }
}

// App is a fully wired server.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *Store
	metrics *metrics.Metrics
	hub     *realtime.Hub
	handler http.Handler

	Auth          *application.AuthService
	Users         *application.UserService
	Schedules     *application.ScheduleService
	Announcements *application.AnnouncementService
	Tasks         *application.TaskService
	Resources     *application.ResourceService
	Settings      *application.SettingsService
	Dashboard     *application.DashboardService

	closeOnce sync.Once
}

// New builds every component and seeds the administrator account and the
// settings categories.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{now: time.Now, idGenerator: uuid.NewString, hasher: application.NewBcryptHasher(application.DefaultPasswordCost)}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.UsesDefaultSecret() {
		logger.WarnContext(ctx, "JWT_SECRET is not set; tokens are signed with the built-in development secret")
	}

	tokens, err := application.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, o.now)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	defaults, err := loadSettings(cfg.SettingsFile, o.settings)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		store:   NewStore(),
		metrics: metrics.New(),
	}
	a.hub = realtime.NewHub(realtime.Options{
		LegacyEvents:   cfg.LegacyEvents,
		AllowedOrigins: cfg.CORSOrigins,
		IDGenerator:    o.idGenerator,
		Metrics:        a.metrics,
		Logger:         logger,
	})

	// The dashboard reads from the services it is notified by, so it is bound late.
	notifier := application.Notifiers{
		application.NotifierFunc(func(ctx context.Context, event application.Event) {
			a.Dashboard.Publish(ctx, event)
		}),
		a.hub,
	}

	a.Auth = application.NewAuthServiceWithLogger(a.store.Users, o.hasher, tokens, o.idGenerator, o.now, logger)
	a.Users = application.NewUserServiceWithLogger(a.store.Users, o.hasher, o.idGenerator, o.now, logger)
	a.Schedules = application.NewScheduleServiceWithLogger(a.store.Schedules, notifier, o.idGenerator, o.now, logger)
	a.Announcements = application.NewAnnouncementServiceWithLogger(a.store.Announcements, notifier, o.idGenerator, o.now, logger)
	a.Tasks = application.NewTaskServiceWithLogger(a.store.Tasks, notifier, o.idGenerator, o.now, logger)
	a.Resources = application.NewResourceServiceWithLogger(a.store.recordRepositories(), notifier, o.idGenerator, o.now, logger)
	a.Settings = application.NewSettingsService(a.store.Settings, defaults, o.now, logger)
	a.Dashboard = application.NewDashboardService(application.DashboardSources{
		Users:         a.store.Users,
		Schedules:     a.Schedules,
		Announcements: a.Announcements,
		Tasks:         a.Tasks,
		Records:       a.Resources,
	}, dashboardCacheTTL, o.now, logger)

	a.hub.Bind(realtime.Services{
		Auth:          a.Auth,
		Schedules:     a.Schedules,
		Announcements: a.Announcements,
		Tasks:         a.Tasks,
		Dashboard:     a.Dashboard,
	})

	if err := a.Settings.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	if cfg.UsesDefaultAdminPassword() && !cfg.AllowDefaultAdmin {
		logger.WarnContext(ctx, "administrator not seeded; set ADMIN_PASSWORD or ALLOW_DEFAULT_ADMIN=true", "username", cfg.AdminUsername)
	} else {
		created, err := a.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("seed administrator: %w", err)
		}
		if created && cfg.UsesDefaultAdminPassword() {
			logger.WarnContext(ctx, "administrator seeded with the built-in password", "username", cfg.AdminUsername)
		}
	}

	kinds := make([]application.ResourceKind, 0, len(a.store.Records))
	for _, spec := range application.ResourceSpecs() {
		kinds = append(kinds, spec.Kind)
	}
	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:               httptransport.NewAuthHandler(a.Auth, a.metrics, logger),
		Users:              httptransport.NewUserHandler(a.Users, logger),
		Schedules:          httptransport.NewScheduleHandler(a.Schedules, logger),
		Announcements:      httptransport.NewAnnouncementHandler(a.Announcements, logger),
		Tasks:              httptransport.NewTaskHandler(a.Tasks, logger),
		Resources:          httptransport.NewResourceHandler(a.Resources, logger),
		ResourceKinds:      kinds,
		Settings:           httptransport.NewSettingsHandler(a.Settings, logger),
		Dashboard:          httptransport.NewDashboardHandler(a.Dashboard, logger),
		Realtime:           a.hub,
		Validator:          a.Auth,
		Metrics:            a.metrics,
		CORSOrigins:        cfg.CORSOrigins,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginRateBurst:     cfg.LoginRateBurst,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})
	return a, nil
}

func loadSettings(path string, inline []byte) (map[string][]string, error) {
	data := inline
	if data == nil && path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings file: %w", err)
		}
		data = raw
	}
	return application.ParseSettings(data)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Hub returns the realtime hub.
func (a *App) Hub() *realtime.Hub {
	return a.hub
}

// Store returns the in-memory database.
func (a *App) Store() *Store {
	return a.store
}

// Run listens on the configured port and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then shuts the
// server down within the configured timeout and releases every component.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("liveboard listening", "addr", listener.Addr().String())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		a.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("shutting down", "timeout", timeout)
	shutdownErr := server.Shutdown(shutdownCtx)
	a.Close()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

// Close disconnects realtime clients and discards the store. It is safe to
// call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.hub.Close()
		a.store.Reset()
		a.logger.Info("liveboard stopped")
	})
}
