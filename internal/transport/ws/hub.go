package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

const broadcastBufSize = 256

// Hub groups live clients by the identity they joined. All membership state
// is owned by the Run goroutine; other goroutines talk to it over channels.
type Hub struct {
	clients map[*Client]struct{}
	groups  map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan *broadcastMsg
	done       chan struct{}

	logger *slog.Logger
}

type joinRequest struct {
	client   *Client
	identity string
}

type broadcastMsg struct {
	identity string
	data     []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan *broadcastMsg, broadcastBufSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine. When ctx
// ends every client is dropped and later calls become no-ops.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.remove(c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("ws hub: session opened", "session", c.id, "total", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Debug("ws hub: session closed", "session", c.id, "total", len(h.clients))
			}

		case req := <-h.join:
			h.handleJoin(req)

		case msg := <-h.broadcast:
			for c := range h.groups[msg.identity] {
				select {
				case c.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.logger.Warn("ws hub: dropping slow session", "session", c.id)
					h.remove(c)
				}
			}
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Join binds c to identity's group, leaving any group it was in before.
func (h *Hub) Join(c *Client, identity string) {
	select {
	case h.join <- joinRequest{client: c, identity: identity}:
	case <-h.done:
	}
}

// Broadcast queues data for every client joined to identity. It never
// blocks: when the queue is full the message is dropped.
func (h *Hub) Broadcast(identity string, data []byte) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- &broadcastMsg{identity: identity, data: data}:
	default:
		h.logger.Warn("ws hub: broadcast queue full, dropping", "identity", identity)
	}
}

func (h *Hub) handleJoin(req joinRequest) {
	c := req.client
	if _, ok := h.clients[c]; !ok {
		return
	}

	h.leaveGroup(c)
	group, ok := h.groups[req.identity]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[req.identity] = group
	}
	group[c] = struct{}{}
	c.group = req.identity
	h.logger.Debug("ws hub: session joined", "session", c.id, "identity", req.identity, "group_size", len(group))

	// The ack is queued after the join took effect, so every broadcast the
	// client sees after it is guaranteed to reach it.
	evt, err := NewEvent(EventTypeJoined, req.identity)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) leaveGroup(c *Client) {
	if c.group == "" {
		return
	}
	if group, ok := h.groups[c.group]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.group)
		}
	}
	c.group = ""
}

func (h *Hub) remove(c *Client) {
	h.leaveGroup(c)
	delete(h.clients, c)
	close(c.send)
}
