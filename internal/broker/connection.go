package broker

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the allowed duration for a single write to complete.
	writeWait = 10 * time.Second

	// pongWait and pingPeriod mirror the transport settings the frontend was
	// built against (60s timeout, 25s ping interval).
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096

	// sendBufferSize is how many outbound messages may queue per connection
	// before the hub considers it dead and drops it.
	sendBufferSize = 256
)

// Connection represents one WebSocket client. The id is assigned at connect
// time and doubles as the voter identity. isDJ caches the last authenticate
// result for display purposes only; privileged events re-verify the token
// they carry and never consult this flag.
type Connection struct {
	id   string
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
	isDJ bool
}

// readPump reads messages off the socket and forwards them to the hub's event
// loop. It runs on the connection's serving goroutine and unregisters the
// connection when the socket dies.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.ws.Close()
		slog.Info("client disconnected", slog.String("conn_id", c.id))
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("read error", slog.String("conn_id", c.id), slog.String("error", err.Error()))
			}
			break
		}
		c.hub.inbound <- inboundMessage{conn: c, raw: message}
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. A closed send channel means the hub dropped the
// connection, so the socket is closed in response.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
