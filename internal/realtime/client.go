package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/liveboard/internal/application"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// transport is the subset of *websocket.Conn a client drives.
type transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one connected socket. It is anonymous until an authenticate event
// succeeds.
type Client struct {
	id   string
	hub  *Hub
	conn transport
	send chan []byte

	done     chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	principal application.Principal
}

func newClient(hub *Hub, id string, conn transport, buffer int) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection identifier used as the mutation origin.
func (c *Client) ID() string {
	return c.id
}

// Principal returns the identity bound by authenticate, if any.
func (c *Client) Principal() application.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

func (c *Client) setPrincipal(principal application.Principal) {
	c.mu.Lock()
	c.principal = principal
	c.mu.Unlock()
}

// enqueue queues a frame without blocking. A full queue disconnects the client.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.hub.unregister(c, "slow consumer")
		return false
	}
}

// reply sends one message to this client only.
func (c *Client) reply(event string, data any) {
	frame, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		c.hub.logger.Error("failed to encode reply", "client_id", c.id, "event", event, "error", err)
		return
	}
	if c.enqueue(frame) {
		c.hub.metrics.EventSent(event, 1)
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// readPump decodes inbound frames and dispatches them until the connection fails.
func (c *Client) readPump(ctx context.Context) {
	defer c.hub.unregister(c, "connection closed")

	pongWait := c.hub.opts.PingInterval * 2
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.WarnContext(ctx, "socket read failed", "client_id", c.id, "error", err)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Event == "" {
			c.reply(EventError, ErrorPayload{Message: "malformed message"})
			continue
		}
		c.hub.dispatch(ctx, c, envelope)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(writeWait))
			return
		}
	}
}
