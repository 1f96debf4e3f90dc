package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 64
)

// Client represents a single WebSocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	id       uuid.UUID
	identity string
	logger   *slog.Logger

	// group is owned by the hub goroutine.
	group string

	// send is written only by the hub goroutine and closed by it on removal.
	send chan []byte
}

// NewClient wraps conn for the authenticated identity.
func NewClient(hub *Hub, conn *websocket.Conn, identity string, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       id,
		identity: identity,
		logger:   logger.With("session", id.String()),
		send:     make(chan []byte, sendBufSize),
	}
}

// ReadPump reads events until the connection fails or closes, then
// unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Debug("ws: client disconnected", "identity", c.identity)
			} else {
				c.logger.Debug("ws: read error", "identity", c.identity, "error", err)
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
// It returns when the hub closes the send channel or a write fails.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Debug("ws: write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.Debug("ws: ping error", "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeJoinRoom:
		var identity string
		if err := json.Unmarshal(event.Payload, &identity); err != nil || identity == "" {
			c.reply(ctx, EventTypeError, ErrorPayload{Code: "INVALID_PAYLOAD", Message: "join-room expects an identity string"})
			return
		}
		if identity != c.identity {
			c.logger.Warn("ws: refused join for another identity", "identity", c.identity, "requested", identity)
			c.reply(ctx, EventTypeError, ErrorPayload{Code: "FORBIDDEN", Message: "cannot join another user's room"})
			return
		}
		c.hub.Join(c, identity)

	case EventTypePing:
		c.reply(ctx, EventTypePong, nil)

	default:
		c.reply(ctx, EventTypeError, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + event.Type})
	}
}

// reply writes directly on the connection, which allows concurrent writers,
// so it never touches the hub-owned send channel.
func (c *Client) reply(ctx context.Context, eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, c.conn, evt); err != nil {
		c.logger.Debug("ws: reply failed", "type", eventType, "error", err)
	}
}
