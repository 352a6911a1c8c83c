package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/setplanner/backend/internal/broker"
)

// WSHandler upgrades HTTP requests to WebSocket connections and hands them to
// the broker hub.
type WSHandler struct {
	hub      *broker.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. Upgrades are accepted from the given
// origins; requests without an Origin header (non-browser clients) are
// always accepted.
func NewWSHandler(hub *broker.Hub, allowedOrigins []string) *WSHandler {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedMap[origin]
			},
		},
	}
}

// Serve upgrades the connection and blocks until the client disconnects.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.HandleConnection(conn)
}
