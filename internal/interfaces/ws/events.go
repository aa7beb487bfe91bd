package ws

import "encoding/json"

// Inbound event names. Outbound names live next to the service that emits
// them; the transport only owns what clients send.
const (
	eventJoinRoom       = "join-room"
	eventPlayerMove     = "player-move"
	eventQuitRoom       = "quit-room"
	eventSendGlobalChat = "send-global-chat"
	eventSendPrivateDM  = "send-private-dm"
	eventTaskCreate     = "task-create"
	eventTaskUpdate     = "task-update"
	eventTaskDelete     = "task-delete"
	eventSendSignal     = "send-signal"
	eventClosePeer      = "close-peer"
	eventAuthenticate   = "authenticate"
	eventAbolishRoom    = "abolish-room"
)

// Outbound transport-level events. Everything else is emitted by the
// application services through the hub.
const (
	EventJoinError     = "join-error"
	EventAuthError     = "auth-error"
	EventAuthenticated = "authenticated"
	EventError         = "error"
)

// inboundFrame is the envelope every client message arrives in.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	RoomCode string `json:"roomCode"`
	Token    string `json:"token"`
}

type movePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction string  `json:"direction" validate:"required"`
}

type chatPayload struct {
	Message string `json:"message" validate:"required"`
}

type dmPayload struct {
	TargetConnectionID string `json:"targetConnectionId" validate:"required"`
	Message            string `json:"message" validate:"required"`
}

type taskCreatePayload struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type taskUpdatePayload struct {
	ID          string  `json:"id" validate:"required"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type taskDeletePayload struct {
	ID string `json:"id" validate:"required"`
}

type signalPayload struct {
	TargetConnectionID string          `json:"targetConnectionId" validate:"required"`
	Signal             json.RawMessage `json:"signal" validate:"required"`
}

type closePeerPayload struct {
	TargetConnectionID string `json:"targetConnectionId" validate:"required"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type abolishPayload struct {
	RoomCode string `json:"roomCode" validate:"required"`
}

// errorPayload is the data shape of join-error, auth-error and error events.
type errorPayload struct {
	Message string `json:"message"`
}

// authenticatedPayload confirms a verified identity back to the connection.
// After a credential join it also carries the freshly minted room token so
// the client can rejoin without re-entering the code.
type authenticatedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	RoomCode string `json:"roomCode,omitempty"`
	Token    string `json:"token,omitempty"`
}
