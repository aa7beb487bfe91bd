// Package services provides infrastructure services.
package services

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"huddle/internal/shared/biztime"
	"huddle/internal/shared/id"
	"huddle/internal/shared/logger"
)

// Envelope is the wire frame for every outbound event: an event name plus an
// arbitrary JSON payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// WSConn is the hub's handle on one websocket connection. The hub only ever
// writes to the Send channel; the connection's write pump drains it.
type WSConn struct {
	ID          string
	Send        chan []byte
	ConnectedAt time.Time
	closed      atomic.Bool
}

// TrySend attempts to queue data for the connection without blocking.
// Returns false if the channel is closed or full; a full channel means the
// consumer is too slow and the frame is dropped, not retried.
func (c *WSConn) TrySend(data []byte) (sent bool) {
	if c.closed.Load() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close marks the connection as closed and closes the send channel.
// Safe to call multiple times.
func (c *WSConn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.Send)
	}
}

// Hub is the fan-out router: it tracks live connections and their room
// membership and delivers events at five scopes (all, all-except-sender,
// room, room-except-sender, single connection). Delivery is fire-and-forget,
// at most once; a slow consumer's frames are dropped rather than backing up
// the sender.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*WSConn
	// rooms is membership by normalized room code: map[code]map[connID]*WSConn
	rooms map[string]map[string]*WSConn

	shutdown atomic.Bool

	logger logger.Interface
}

// sendQueueSize bounds each connection's outbound queue.
const sendQueueSize = 256

// NewHub creates a new Hub instance.
func NewHub(log logger.Interface) *Hub {
	return &Hub{
		conns:  make(map[string]*WSConn),
		rooms:  make(map[string]map[string]*WSConn),
		logger: log,
	}
}

// Register adds a connection to the hub. Returns nil if the hub is shut down.
func (h *Hub) Register(connID string) *WSConn {
	if h.shutdown.Load() {
		return nil
	}

	conn := &WSConn{
		ID:          connID,
		Send:        make(chan []byte, sendQueueSize),
		ConnectedAt: biztime.NowUTC(),
	}

	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()

	h.logger.Debugw("connection registered", "conn_id", connID)
	return conn
}

// Unregister removes a connection from the hub and from any room it joined.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	for code, members := range h.rooms {
		if _, in := members[connID]; in {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, code)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Debugw("connection unregistered", "conn_id", connID)
	}
}

// Subscribe adds a connection to a room's delivery scope. The room code is
// normalized so mixed-case joiners land in one partition.
func (h *Hub) Subscribe(connID, roomCode string) {
	code := id.NormalizeRoomCode(roomCode)

	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]*WSConn)
		h.rooms[code] = members
	}
	members[connID] = conn
}

// Unsubscribe removes a connection from a room's delivery scope.
func (h *Hub) Unsubscribe(connID, roomCode string) {
	code := id.NormalizeRoomCode(roomCode)

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// ToConnection delivers an event to a single connection. Unknown connection
// IDs are dropped silently.
func (h *Hub) ToConnection(connID, event string, data any) {
	frame, ok := h.encode(event, data)
	if !ok {
		return
	}

	h.mu.RLock()
	conn := h.conns[connID]
	h.mu.RUnlock()

	if conn != nil {
		h.deliver(conn, frame, event)
	}
}

// ToAll delivers an event to every live connection.
func (h *Hub) ToAll(event string, data any) {
	h.fanOut(event, data, "", "")
}

// ToAllExceptSender delivers an event to every live connection except one.
func (h *Hub) ToAllExceptSender(senderID, event string, data any) {
	h.fanOut(event, data, "", senderID)
}

// ToRoom delivers an event to every member of a room.
func (h *Hub) ToRoom(roomCode, event string, data any) {
	h.fanOut(event, data, id.NormalizeRoomCode(roomCode), "")
}

// ToRoomExceptSender delivers an event to every member of a room except one.
func (h *Hub) ToRoomExceptSender(roomCode, senderID, event string, data any) {
	h.fanOut(event, data, id.NormalizeRoomCode(roomCode), senderID)
}

// RoomSize returns the number of connections subscribed to a room.
func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[id.NormalizeRoomCode(roomCode)])
}

// ConnCount returns the current number of live connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection and stops accepting new ones.
// Safe to call multiple times.
func (h *Hub) Shutdown() {
	if !h.shutdown.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	for _, conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[string]*WSConn)
	h.rooms = make(map[string]map[string]*WSConn)
	h.mu.Unlock()
}

// fanOut marshals the envelope once and delivers it to the selected scope.
// An empty room code means all connections; a non-empty exclude skips that
// connection ID.
func (h *Hub) fanOut(event string, data any, roomCode, exclude string) {
	frame, ok := h.encode(event, data)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := h.conns
	if roomCode != "" {
		targets = h.rooms[roomCode]
	}
	// snapshot so delivery happens outside the lock
	snapshot := make([]*WSConn, 0, len(targets))
	for connID, conn := range targets {
		if connID == exclude {
			continue
		}
		snapshot = append(snapshot, conn)
	}
	h.mu.RUnlock()

	for _, conn := range snapshot {
		h.deliver(conn, frame, event)
	}
}

func (h *Hub) encode(event string, data any) ([]byte, bool) {
	frame, err := json.Marshal(&Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("failed to marshal event",
			"event", event,
			"error", err)
		return nil, false
	}
	return frame, true
}

func (h *Hub) deliver(conn *WSConn, frame []byte, event string) {
	if !conn.TrySend(frame) {
		h.logger.Warnw("dropped event, send queue full or connection closed",
			"conn_id", conn.ID,
			"event", event)
	}
}
