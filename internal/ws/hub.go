package ws

import (
	"encoding/json"
	"sync"

	"tridify/pkg/logger"
)

// Hub tracks the currently-open client connections and fans events out
// to them. Dead connections remove themselves via Unregister when their
// read loop exits, so the hub never retains stale clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  logger.Logger
}

// NewHub creates an empty connection registry.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  log,
	}
}

// Register adds a connection to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.conn.Close()
		return
	}
	h.clients[c] = struct{}{}

	h.logger.Info("WebSocket client connected", map[string]interface{}{
		"client_id": c.ID,
		"clients":   len(h.clients),
	})
}

// Unregister removes a connection and closes its send queue. Safe to
// call more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)

	h.logger.Info("WebSocket client disconnected", map[string]interface{}{
		"client_id": c.ID,
		"clients":   len(h.clients),
	})
}

// Broadcast serializes the event once and enqueues it to every open
// connection. Clients whose queue is full are skipped; one slow or
// closing connection never blocks delivery to the rest.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Broadcast marshal failed", map[string]interface{}{
			"type":  ev.Type,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("Dropping broadcast to slow client", map[string]interface{}{
				"client_id": c.ID,
				"type":      ev.Type,
			})
		}
	}
}

// SendTo enqueues an event to a single connection. Events to clients
// that have already unregistered are silently dropped.
func (h *Hub) SendTo(c *Client, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Send marshal failed", map[string]interface{}{
			"type":  ev.Type,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("Dropping message to slow client", map[string]interface{}{
			"client_id": c.ID,
			"type":      ev.Type,
		})
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close shuts down every connection and rejects further registrations.
// Called during graceful shutdown after the broadcast scheduler stops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}

	h.logger.Info("WebSocket hub closed", nil)
}
