package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/metrics"
	"github.com/example/liveboard/internal/wire"
)

const (
	defaultSendBuffer   = 64
	defaultPingInterval = 25 * time.Second
)

// ErrHubClosed is returned when a connection arrives after Close.
var ErrHubClosed = errors.New("realtime: hub closed")

// Authenticator verifies bearer tokens presented by sockets.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (application.Principal, error)
}

// ScheduleStore is the schedule surface used by sockets.
type ScheduleStore interface {
	ListSchedules(ctx context.Context, filter application.ScheduleFilter) ([]application.Schedule, error)
	SaveSchedule(ctx context.Context, principal application.Principal, id string, fields application.ScheduleFields) (application.Schedule, string, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, id string) (application.Schedule, error)
}

// AnnouncementStore is the announcement surface used by sockets.
type AnnouncementStore interface {
	ListAnnouncements(ctx context.Context, filter application.AnnouncementFilter) ([]application.Announcement, error)
	SaveAnnouncement(ctx context.Context, principal application.Principal, id string, input application.AnnouncementInput) (application.Announcement, string, error)
	DeleteAnnouncement(ctx context.Context, principal application.Principal, id string) (application.Announcement, error)
}

// TaskStore is the task surface used by sockets.
type TaskStore interface {
	ListTasks(ctx context.Context, filter application.TaskFilter) ([]application.Task, error)
	SaveTask(ctx context.Context, principal application.Principal, id string, input application.TaskInput) (application.Task, string, error)
	DeleteTask(ctx context.Context, principal application.Principal, id string) (application.Task, error)
}

// DashboardSource produces the aggregate answered to request_data("dashboard").
type DashboardSource interface {
	Stats(ctx context.Context) (application.DashboardStats, error)
}

// Services are the application services a hub dispatches to. Any of them may
// be nil, in which case the matching events answer with an error.
type Services struct {
	Auth          Authenticator
	Schedules     ScheduleStore
	Announcements AnnouncementStore
	Tasks         TaskStore
	Dashboard     DashboardSource
}

// Options tune a Hub.
type Options struct {
	// LegacyEvents additionally emits schedule:update and announcement:update
	// for mutations that did not come from a socket.
	LegacyEvents bool
	// SendBuffer is the per-client outbound queue length. A client whose queue
	// is full is disconnected.
	SendBuffer     int
	PingInterval   time.Duration
	AllowedOrigins []string
	IDGenerator    func() string
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Hub tracks connected clients and fans mutation events out to them. It
// implements application.Notifier.
type Hub struct {
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	services Services

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewHub constructs a hub. Bind must be called before clients connect.
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		opts:    opts,
		logger:  logger.With("component", "realtime"),
		metrics: opts.Metrics,
		clients: make(map[string]*Client),
	}
}

// Bind installs the services events are dispatched to.
func (h *Hub) Bind(services Services) {
	h.mu.Lock()
	h.services = services
	h.mu.Unlock()
}

func (h *Hub) boundServices() Services {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.services
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a client with a fresh send queue.
func (h *Hub) register(transport transport) (*Client, error) {
	client := newClient(h, h.opts.IDGenerator(), transport, h.opts.SendBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.ClientConnected()
	h.logger.Info("client connected", "client_id", client.id, "clients", count)
	return client, nil
}

// unregister removes a client and stops its writer. It is idempotent.
func (h *Hub) unregister(client *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	client.stop()
	if !ok {
		return
	}
	h.metrics.ClientDisconnected()
	h.logger.Info("client disconnected", "client_id", client.id, "reason", reason, "clients", count)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.unregister(client, "server shutdown")
	}
}

// Publish implements application.Notifier. Socket-originated events skip the
// origin client. Delivery is fire-and-forget. Services publish after the store
// lock is released, so racing writes to one id may reach peers out of commit
// order; a later request_data returns the committed state.
func (h *Hub) Publish(ctx context.Context, event application.Event) {
	payload := wire.Encode(event.Payload)
	name := UpdateEvent(event.Resource)
	sent := h.broadcast(event.Origin, Message{Event: name, Data: UpdatePayload{Action: event.Action, Payload: payload}})
	h.metrics.EventSent(name, sent)

	if event.Origin != "" || !h.opts.LegacyEvents {
		return
	}
	switch event.Resource {
	case application.ResourceSchedule:
		schedule, _ := event.Payload.(application.Schedule)
		legacy := legacySchedulePayload{Action: event.Action, Date: schedule.Date, Schedule: payload}
		h.metrics.EventSent(LegacyScheduleUpdate, h.broadcast("", Message{Event: LegacyScheduleUpdate, Data: legacy}))
	case application.ResourceAnnouncement:
		legacy := legacyAnnouncementPayload{Action: event.Action, Announcement: payload}
		h.metrics.EventSent(LegacyAnnouncementUpdate, h.broadcast("", Message{Event: LegacyAnnouncementUpdate, Data: legacy}))
	}
}

// broadcast queues msg for every client except skipID and returns the number
// of clients it was queued for.
func (h *Hub) broadcast(skipID string, msg Message) int {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode broadcast", "event", msg.Event, "error", err)
		return 0
	}

	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		if id != skipID {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range recipients {
		if client.enqueue(frame) {
			sent++
		}
	}
	return sent
}
