// Package broker is the real-time voting broker. A single hub goroutine owns
// the set of live connections and applies every inbound event, from any
// connection, one at a time against the session store. That one loop is the
// serialization point: no two mutations ever interleave, and every client
// observes the same sequence of snapshots.
package broker

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/setplanner/backend/internal/logging"
	"github.com/setplanner/backend/internal/metrics"
	"github.com/setplanner/backend/internal/services"
	"github.com/setplanner/backend/internal/session"
)

const (
	errUnauthorized     = "Unauthorized: DJ access required"
	errInvalidMessage   = "Invalid message format"
	errUnknownEvent     = "Unknown event"
	errMissingSongInput = "Title and artist are required"
)

// inboundMessage is a raw frame received from a connection, queued for the
// hub's event loop.
type inboundMessage struct {
	conn *Connection
	raw  []byte
}

// Hub owns all live connections and the event loop that mutates the session
// store on their behalf.
type Hub struct {
	store   *session.Store
	auth    *services.AuthService
	metrics *metrics.Metrics

	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	inbound     chan inboundMessage
}

// NewHub creates a Hub around the given store and credential verifier.
// Call Run on its own goroutine before accepting connections.
func NewHub(store *session.Store, auth *services.AuthService, m *metrics.Metrics) *Hub {
	return &Hub{
		store:       store,
		auth:        auth,
		metrics:     m,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan inboundMessage),
	}
}

// HandleConnection adopts an upgraded WebSocket: it allocates a connection
// identity, registers with the hub, and blocks serving the read side until
// the client goes away.
func (h *Hub) HandleConnection(ws *websocket.Conn) {
	c := &Connection{
		id:   uuid.NewString(),
		hub:  h,
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
	}
	h.register <- c

	go c.writePump()
	c.readPump()
}

// Run is the hub's event loop. All connection bookkeeping, all store
// mutations, and all fan-out happen here, in arrival order.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
			h.metrics.SetConnectedClients(len(h.connections))
			slog.Info("client connected", slog.String("conn_id", c.id))

			// New clients immediately learn the current state.
			h.sendTo(c, eventSystemStatus, h.store.VotingEnabled())
			h.sendTo(c, eventSongList, h.store.Snapshot())

		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
				h.metrics.SetConnectedClients(len(h.connections))
			}
			// Votes already cast by this connection stay counted. A vote is
			// a cast ballot, not a presence indicator.

		case msg := <-h.inbound:
			h.dispatch(msg.conn, msg.raw)
		}
	}
}

// dispatch decodes one inbound frame and routes it to its handler. A broken
// or malicious payload degrades to an "error" event on the sending
// connection; it never takes down the loop.
func (h *Hub) dispatch(c *Connection, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panic", slog.Any("panic", r), slog.String("conn_id", c.id))
			sentry.CurrentHub().Recover(r)
			h.sendError(c, "Internal server error")
		}
	}()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		logging.LogSecurityEvent(logging.SecurityEventMalformedEvent, "unparseable frame", slog.String("conn_id", c.id))
		h.sendError(c, errInvalidMessage)
		return
	}

	h.metrics.IncEvent(metricEventLabel(env.Event))

	switch env.Event {
	case eventAuthenticate:
		h.handleAuthenticate(c, env.Data)
	case eventGetSystemStatus:
		h.sendTo(c, eventSystemStatus, h.store.VotingEnabled())
	case eventSetSystemStatus:
		h.handleSetSystemStatus(c, env.Data)
	case eventSuggestSong:
		h.handleSuggestSong(c, env.Data)
	case eventVoteSong:
		h.handleVoteSong(c, env.Data)
	case eventRemoveSong:
		h.handleRemoveSong(c, env.Data)
	default:
		h.sendError(c, errUnknownEvent)
	}
}

// metricEventLabel collapses unrecognized event names to a single label value.
// Clients choose the event string, and every distinct label value allocates a
// counter series for the life of the process.
func metricEventLabel(event string) string {
	switch event {
	case eventAuthenticate, eventGetSystemStatus, eventSetSystemStatus,
		eventSuggestSong, eventVoteSong, eventRemoveSong:
		return event
	default:
		return "unknown"
	}
}

func (h *Hub) handleAuthenticate(c *Connection, data json.RawMessage) {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		h.sendError(c, errInvalidMessage)
		return
	}

	c.isDJ = h.auth.VerifyDJ(token)
	if !c.isDJ {
		logging.LogSecurityEvent(logging.SecurityEventInvalidJWT, "DJ authentication failed", slog.String("conn_id", c.id))
	}
	h.sendTo(c, eventAuthStatus, c.isDJ)
}

func (h *Hub) handleSetSystemStatus(c *Connection, data json.RawMessage) {
	var p setSystemStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(c, errInvalidMessage)
		return
	}

	// The token travels with the call. The cached isDJ flag could be stale or
	// the credential expired mid-session, so it is never consulted here.
	if !h.auth.VerifyDJ(p.Token) {
		logging.LogSecurityEvent(logging.SecurityEventUnauthorizedAction, "unauthorized setSystemStatus", slog.String("conn_id", c.id))
		h.sendError(c, errUnauthorized)
		return
	}

	h.store.SetVotingEnabled(p.Status)
	slog.Info("voting system toggled", slog.Bool("enabled", p.Status), slog.String("conn_id", c.id))
	h.broadcast(eventSystemStatus, p.Status)
}

func (h *Hub) handleSuggestSong(c *Connection, data json.RawMessage) {
	var p suggestSongPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(c, errInvalidMessage)
		return
	}

	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Artist) == "" {
		h.sendError(c, errMissingSongInput)
		return
	}

	sg, err := h.store.Suggest(p.Title, p.Artist, c.id)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	slog.Info("song suggested",
		slog.String("song_id", sg.ID),
		slog.String("title", sg.Title),
		slog.String("artist", sg.Artist),
		slog.String("conn_id", c.id))
	h.broadcast(eventSongList, h.store.Snapshot())
}

func (h *Hub) handleVoteSong(c *Connection, data json.RawMessage) {
	var songID string
	if err := json.Unmarshal(data, &songID); err != nil {
		h.sendError(c, errInvalidMessage)
		return
	}

	sg, err := h.store.Vote(songID, c.id)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	slog.Info("vote cast", slog.String("song_id", sg.ID), slog.Int("votes", sg.Votes), slog.String("conn_id", c.id))
	h.broadcast(eventSongList, h.store.Snapshot())
}

func (h *Hub) handleRemoveSong(c *Connection, data json.RawMessage) {
	var p removeSongPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(c, errInvalidMessage)
		return
	}

	if !h.auth.VerifyDJ(p.Token) {
		logging.LogSecurityEvent(logging.SecurityEventUnauthorizedAction, "unauthorized removeSong", slog.String("conn_id", c.id))
		h.sendError(c, errUnauthorized)
		return
	}

	// Removing an id that is already gone is a silent no-op: nothing changed,
	// so nothing is broadcast.
	if err := h.store.Remove(p.SongID); err != nil {
		return
	}

	slog.Info("song removed", slog.String("song_id", p.SongID), slog.String("conn_id", c.id))
	h.broadcast(eventSongList, h.store.Snapshot())
}

// sendTo queues an event for a single connection.
func (h *Hub) sendTo(c *Connection, event string, data any) {
	msg, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	h.deliver(c, msg)
}

func (h *Hub) sendError(c *Connection, message string) {
	h.metrics.IncEventError()
	h.sendTo(c, eventError, message)
}

// broadcast queues an event for every live connection.
func (h *Hub) broadcast(event string, data any) {
	msg, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	for c := range h.connections {
		h.deliver(c, msg)
	}
}

// deliver is fire-and-forget: a connection whose buffer is full cannot keep
// up and gets dropped so it never stalls the loop for everyone else.
func (h *Hub) deliver(c *Connection, msg []byte) {
	if _, ok := h.connections[c]; !ok {
		// Already dropped; its send channel is closed.
		return
	}
	select {
	case c.send <- msg:
	default:
		close(c.send)
		delete(h.connections, c)
		h.metrics.SetConnectedClients(len(h.connections))
	}
}
