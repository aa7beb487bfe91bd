// Package ws is the websocket transport: it upgrades connections, parses
// inbound frames and calls into the application services. No presence state
// lives here; the hub owns delivery and the engine owns the lifecycle.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	appchat "huddle/internal/application/chat"
	appresence "huddle/internal/application/presence"
	appsignal "huddle/internal/application/signal"
	apptask "huddle/internal/application/task"
	domain "huddle/internal/domain/presence"
	roomdomain "huddle/internal/domain/room"
	"huddle/internal/infrastructure/services"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/goroutine"
	"huddle/internal/shared/id"
	"huddle/internal/shared/logger"
	"huddle/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured in production
	},
}

// roomLifecycle is the handler's view of the room service, for the
// socket-side abolish path.
type roomLifecycle interface {
	Abolish(ctx context.Context, userSID, roomSID string) error
	ResolveActive(ctx context.Context, roomCode string) (*roomdomain.Room, error)
}

// tokenVerifier checks a room token for the authenticate event.
type tokenVerifier interface {
	VerifyToken(token string) (*appresence.TokenClaims, error)
}

// Handler owns one websocket endpoint. Each connection gets a generated
// connection ID, a hub registration and a pair of pumps; inbound frames are
// dispatched sequentially so a disconnect always observes the final state of
// the events before it.
type Handler struct {
	hub      *services.Hub
	engine   *appresence.Engine
	sessions domain.Store
	chat     *appchat.Service
	tasks    *apptask.Service
	signals  *appsignal.Relay
	rooms    roomLifecycle
	tokens   tokenVerifier
	logger   logger.Interface
}

func NewHandler(
	hub *services.Hub,
	engine *appresence.Engine,
	sessions domain.Store,
	chat *appchat.Service,
	tasks *apptask.Service,
	signals *appsignal.Relay,
	rooms roomLifecycle,
	tokens tokenVerifier,
	log logger.Interface,
) *Handler {
	return &Handler{
		hub:      hub,
		engine:   engine,
		sessions: sessions,
		chat:     chat,
		tasks:    tasks,
		signals:  signals,
		rooms:    rooms,
		tokens:   tokens,
		logger:   log,
	}
}

// Serve handles a websocket connection.
// GET /ws
func (h *Handler) Serve(c *gin.Context) {
	connID, err := id.Generate(id.DefaultLength)
	if err != nil {
		h.logger.Errorw("failed to generate connection ID", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("failed to upgrade to websocket",
			"error", err,
			"ip", c.ClientIP())
		return
	}

	wsConn := h.hub.Register(connID)
	if wsConn == nil {
		// hub is shutting down
		conn.Close()
		return
	}

	h.logger.Infow("websocket connected",
		"conn_id", connID,
		"ip", c.ClientIP())

	goroutine.SafeGo(h.logger, "ws-write-pump", func() {
		h.writePump(connID, conn, wsConn.Send)
	})
	h.readPump(connID, conn)
}

// readPump reads and dispatches frames until the connection drops. Dispatch
// is sequential on purpose: the teardown in the deferred block must see the
// effects of every frame that arrived before the disconnect.
func (h *Handler) readPump(connID string, conn *websocket.Conn) {
	defer func() {
		if err := h.engine.Disconnect(context.Background(), connID); err != nil {
			h.logger.Warnw("disconnect cleanup failed",
				"conn_id", connID,
				"error", err)
		}
		h.hub.Unregister(connID)
		conn.Close()
		h.logger.Infow("websocket disconnected", "conn_id", connID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warnw("websocket read error",
					"conn_id", connID,
					"error", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			h.fail(connID, EventError, errors.NewValidationError("malformed frame"))
			continue
		}
		h.dispatch(context.Background(), connID, frame)
	}
}

// writePump drains the hub's send queue onto the wire and keeps the
// connection alive with pings.
func (h *Handler) writePump(connID string, conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warnw("failed to write to websocket",
					"conn_id", connID,
					"error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame to its application service. Errors never
// kill the connection; they surface as an error event to the sender.
func (h *Handler) dispatch(ctx context.Context, connID string, frame inboundFrame) {
	switch frame.Event {
	case eventJoinRoom:
		h.handleJoin(ctx, connID, frame.Data)

	case eventPlayerMove:
		h.handleMove(ctx, connID, frame.Data)

	case eventQuitRoom:
		if err := h.engine.Quit(ctx, connID); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventSendGlobalChat:
		var p chatPayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if err := h.chat.SendGlobal(ctx, connID, p.Message); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventSendPrivateDM:
		var p dmPayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if err := h.chat.SendDirect(ctx, connID, p.TargetConnectionID, p.Message); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventTaskCreate:
		var p taskCreatePayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if _, err := h.tasks.Create(ctx, connID, p.Title, p.Description); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventTaskUpdate:
		var p taskUpdatePayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		cmd := apptask.UpdateCommand{Title: p.Title, Description: p.Description, Status: p.Status}
		if _, err := h.tasks.Update(ctx, connID, p.ID, cmd); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventTaskDelete:
		var p taskDeletePayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if err := h.tasks.Delete(ctx, connID, p.ID); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventSendSignal:
		var p signalPayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if err := h.signals.Forward(ctx, connID, p.TargetConnectionID, p.Signal); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventClosePeer:
		var p closePeerPayload
		if !h.decode(connID, frame.Data, &p) {
			return
		}
		if err := h.signals.Close(ctx, connID, p.TargetConnectionID); err != nil {
			h.fail(connID, EventError, err)
		}

	case eventAuthenticate:
		h.handleAuthenticate(connID, frame.Data)

	case eventAbolishRoom:
		h.handleAbolish(ctx, connID, frame.Data)

	default:
		h.fail(connID, EventError, errors.NewValidationError("unknown event"))
	}
}

func (h *Handler) handleJoin(ctx context.Context, connID string, data json.RawMessage) {
	var p joinPayload
	if data != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			h.fail(connID, EventJoinError, errors.NewValidationError("malformed join payload"))
			return
		}
	}

	result, err := h.engine.Join(ctx, connID, appresence.JoinCommand{
		Token:       p.Token,
		RoomCode:    p.RoomCode,
		DisplayName: p.Username,
		AvatarTag:   p.Avatar,
	})
	if err != nil {
		event := EventJoinError
		if errors.IsAuth(err) {
			event = EventAuthError
		}
		h.fail(connID, event, err)
		return
	}

	if result.Token != "" {
		h.hub.ToConnection(connID, EventAuthenticated, authenticatedPayload{
			UserID:   result.Session.UserSID,
			Username: result.Session.DisplayName,
			RoomCode: result.Session.RoomCode,
			Token:    result.Token,
		})
	}
}

func (h *Handler) handleMove(ctx context.Context, connID string, data json.RawMessage) {
	var p movePayload
	if !h.decode(connID, data, &p) {
		return
	}

	facing, err := domain.ParseFacing(p.Direction)
	if err != nil {
		h.fail(connID, EventError, errors.NewValidationError(err.Error()))
		return
	}
	if err := h.engine.Move(ctx, connID, domain.Position{X: p.X, Y: p.Y}, facing); err != nil {
		h.fail(connID, EventError, err)
	}
}

// handleAuthenticate verifies a token without running the full join, so a
// client can check a stored token before reconnecting.
func (h *Handler) handleAuthenticate(connID string, data json.RawMessage) {
	var p authenticatePayload
	if data != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			h.fail(connID, EventAuthError, errors.NewValidationError("malformed payload"))
			return
		}
	}

	claims, err := h.tokens.VerifyToken(p.Token)
	if err != nil {
		h.fail(connID, EventAuthError, err)
		return
	}

	h.hub.ToConnection(connID, EventAuthenticated, authenticatedPayload{
		UserID:   claims.UserSID,
		Username: claims.DisplayName,
		RoomCode: claims.RoomCode,
	})
}

// handleAbolish lets a room creator shut the room down over the socket. The
// caller's identity comes from their live session, never from the payload.
func (h *Handler) handleAbolish(ctx context.Context, connID string, data json.RawMessage) {
	var p abolishPayload
	if !h.decode(connID, data, &p) {
		return
	}

	session, err := h.sessions.Get(ctx, connID)
	if err != nil {
		h.fail(connID, EventError, errors.NewStoreUnavailableError("failed to resolve session"))
		return
	}
	if session == nil || !session.Authenticated() {
		h.fail(connID, EventError, errors.NewValidationError("connection has not joined a room"))
		return
	}

	rm, err := h.rooms.ResolveActive(ctx, p.RoomCode)
	if err != nil {
		h.fail(connID, EventError, err)
		return
	}
	if err := h.rooms.Abolish(ctx, session.UserSID, rm.SID); err != nil {
		h.fail(connID, EventError, err)
	}
}

func (h *Handler) decode(connID string, data json.RawMessage, out any) bool {
	if data == nil {
		h.fail(connID, EventError, errors.NewValidationError("missing payload"))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		h.fail(connID, EventError, errors.NewValidationError("malformed payload"))
		return false
	}
	if err := utils.ValidateStruct(out); err != nil {
		h.fail(connID, EventError, err)
		return false
	}
	return true
}

// fail reports an operation failure back to the sender only. Internal error
// details stay in the logs.
func (h *Handler) fail(connID, event string, err error) {
	msg := "internal error"
	if appErr := errors.GetAppError(err); appErr != nil {
		msg = appErr.Message
	} else {
		h.logger.Errorw("unexpected error handling frame",
			"conn_id", connID,
			"error", err)
	}
	h.hub.ToConnection(connID, event, errorPayload{Message: msg})
}
