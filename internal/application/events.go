package application

import (
	"context"
	"log/slog"
)

// Resource names used in mutation events.
const (
	ResourceSchedule     = "schedule"
	ResourceAnnouncement = "announcement"
	ResourceTask         = "task"
)

// Mutation actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event describes a committed mutation. Payload holds the domain value after
// the change (the removed value for deletions). Origin identifies the realtime
// client that caused it and is empty for REST requests.
type Event struct {
	Resource string
	Action   string
	Payload  any
	Origin   string
}

// Notifier receives mutation events after they are committed.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event)

// Publish calls f.
func (f NotifierFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// Notifiers fans an event out to every non-nil notifier in order.
type Notifiers []Notifier

// Publish implements Notifier.
func (n Notifiers) Publish(ctx context.Context, event Event) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Publish(ctx, event)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, Event) {}

func defaultNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

type originContextKey struct{}

// WithOrigin marks ctx as carrying a mutation that came from the given realtime client.
func WithOrigin(ctx context.Context, clientID string) context.Context {
	if clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, originContextKey{}, clientID)
}

// OriginFromContext returns the realtime client ID set by WithOrigin.
func OriginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}

// publish runs after the repository call returns; events carry no ordering guarantee.
func publish(ctx context.Context, notifier Notifier, logger *slog.Logger, resource, action string, payload any) {
	event := Event{Resource: resource, Action: action, Payload: payload, Origin: OriginFromContext(ctx)}
	notifier.Publish(ctx, event)
	logger.DebugContext(ctx, "mutation published", "resource", resource, "action", action)
}
