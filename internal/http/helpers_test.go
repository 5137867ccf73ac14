package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/metrics"
	"github.com/example/liveboard/internal/testfixtures"
)

type testAPI struct {
	stack   *testfixtures.Stack
	metrics *metrics.Metrics
	handler http.Handler
}

func newTestAPI(t *testing.T, configure ...func(*RouterConfig)) *testAPI {
	t.Helper()
	stack, err := testfixtures.NewServiceFactory().NewStack(nil)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	kinds := make([]application.ResourceKind, 0)
	for _, spec := range application.ResourceSpecs() {
		kinds = append(kinds, spec.Kind)
	}

	cfg := RouterConfig{
		Auth:          NewAuthHandler(stack.AuthService, m, logger),
		Users:         NewUserHandler(stack.UserService, logger),
		Schedules:     NewScheduleHandler(stack.ScheduleService, logger),
		Announcements: NewAnnouncementHandler(stack.AnnouncementService, logger),
		Tasks:         NewTaskHandler(stack.TaskService, logger),
		Resources:     NewResourceHandler(stack.ResourceService, logger),
		ResourceKinds: kinds,
		Settings:      NewSettingsHandler(stack.SettingsService, logger),
		Dashboard:     NewDashboardHandler(stack.DashboardService, logger),
		Validator:     stack.AuthService,
		Metrics:       m,
		CORSOrigins:   []string{"http://localhost:3000"},
		Logger:        logger,
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	return &testAPI{stack: stack, metrics: m, handler: NewRouter(cfg)}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// seed stores a user and returns it with a valid token.
func (a *testAPI) seed(t *testing.T, opts ...testfixtures.UserOption) (application.User, string) {
	t.Helper()
	user, err := a.stack.SeedUser(context.Background(), testfixtures.NewUserFixture(opts...))
	require.NoError(t, err)
	token, err := a.stack.TokenFor(user)
	require.NoError(t, err)
	return user, token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func academicBody(room, subject string) map[string]string {
	return map[string]string{
		"date":         "2024-03-01",
		"start_time":   "09:00",
		"end_time":     "10:00",
		"room_number":  room,
		"subject":      subject,
		"faculty_name": "Dr. Hopper",
	}
}
