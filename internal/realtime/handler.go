package realtime

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/example/liveboard/internal/logging"
)

// ServeHTTP upgrades the request to a websocket and serves it until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	client, err := h.register(conn)
	if err != nil {
		closing := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteMessage(websocket.CloseMessage, closing)
		_ = conn.Close()
		return
	}

	ctx := logging.ContextWithLogger(context.WithoutCancel(r.Context()), h.logger.With("client_id", client.id))
	go client.writePump()
	client.readPump(ctx)
}

// checkOrigin admits requests without an Origin header, same-host requests and
// origins on the allow-list. A "*" entry admits everything.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin) {
		return true
	}
	parsed, err := url.Parse(origin)
	return err == nil && strings.EqualFold(parsed.Host, r.Host)
}
