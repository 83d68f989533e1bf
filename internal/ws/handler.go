// Package ws implements the real-time transaction/stats subsystem:
// connection registry, periodic stats broadcast and per-connection
// command routing over gorilla/websocket.
package ws

import (
	"net/http"

	"tridify/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now (CORS)
	},
}

// Handler upgrades HTTP requests to WebSocket connections and runs the
// per-connection lifecycle.
type Handler struct {
	hub    *Hub
	router *Router
	logger logger.Logger
}

// NewHandler creates the upgrade handler.
func NewHandler(hub *Hub, router *Router, log logger.Logger) *Handler {
	return &Handler{
		hub:    hub,
		router: router,
		logger: log,
	}
}

// ServeHTTP upgrades the connection, registers the client, sends the
// initial snapshot and then serves inbound frames until disconnect.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := newClient(h.hub, conn)
	h.hub.Register(client)
	go client.writePump()

	h.router.HandleConnect(client)

	// Blocks on this goroutine until the peer disconnects.
	client.readPump(h.router)
}
