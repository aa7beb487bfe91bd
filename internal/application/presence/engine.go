// Package presence coordinates the live connection lifecycle: join, move,
// quit, disconnect. It owns the session store and zone index and emits every
// presence event through the fan-out router.
package presence

import (
	"context"
	"fmt"

	domain "huddle/internal/domain/presence"
	"huddle/internal/domain/room"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/id"
	"huddle/internal/shared/logger"
)

// EventRouter is the engine's view of the fan-out hub. Delivery is
// fire-and-forget; none of these methods report errors.
type EventRouter interface {
	ToConnection(connID, event string, data any)
	ToAll(event string, data any)
	ToAllExceptSender(senderID, event string, data any)
	ToRoom(roomCode, event string, data any)
	ToRoomExceptSender(roomCode, senderID, event string, data any)
	Subscribe(connID, roomCode string)
	Unsubscribe(connID, roomCode string)
}

// ResolvedIdentity is the durable identity a connection joins under, plus
// the room token minted for it.
type ResolvedIdentity struct {
	UserSID     string
	RoomSID     string
	RoomCode    string
	DisplayName string
	AvatarTag   string
	Token       string
}

// IdentityResolver turns join credentials (a room code and display name, or
// a previously minted token) into a resolved identity.
type IdentityResolver interface {
	ResolveByCredentials(ctx context.Context, displayName, avatarTag, roomCode string) (*ResolvedIdentity, error)
	ResolveByToken(ctx context.Context, token string) (*ResolvedIdentity, error)
}

// WorkSessionLedger finalizes the leaver's open work session. A nil report
// with nil error means no session was open.
type WorkSessionLedger interface {
	Finalize(ctx context.Context, userSID string) (*room.WorkReport, error)
}

// Engine is the presence state machine. All mutation of live session state
// flows through it; the websocket layer only parses frames and calls in.
type Engine struct {
	store    domain.Store
	zones    *domain.ZoneIndex
	router   EventRouter
	resolver IdentityResolver
	ledger   WorkSessionLedger
	logger   logger.Interface
}

func NewEngine(
	store domain.Store,
	zones *domain.ZoneIndex,
	router EventRouter,
	resolver IdentityResolver,
	ledger WorkSessionLedger,
	log logger.Interface,
) *Engine {
	return &Engine{
		store:    store,
		zones:    zones,
		router:   router,
		resolver: resolver,
		ledger:   ledger,
		logger:   log,
	}
}

// JoinCommand carries a join request. Token takes precedence; when it is
// empty, RoomCode and DisplayName are required.
type JoinCommand struct {
	Token       string
	RoomCode    string
	DisplayName string
	AvatarTag   string
}

// JoinResult is returned to the caller so the transport can hand the token
// back to the client.
type JoinResult struct {
	Session *domain.Session
	Token   string
}

// Join transitions a connection into a room: resolves the identity, creates
// the live session at the spawn point, subscribes the connection to the room
// scope, sends the joiner the current roster and announces the arrival to the
// rest of the room. The roster is filtered to the joiner's room code, so a
// scopeless joiner sees the other scopeless sessions rather than everyone.
func (e *Engine) Join(ctx context.Context, connID string, cmd JoinCommand) (*JoinResult, error) {
	existing, err := e.store.Get(ctx, connID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}
	if existing != nil {
		return nil, errors.NewValidationError("connection has already joined a room")
	}

	var ident *ResolvedIdentity
	switch {
	case cmd.Token != "":
		ident, err = e.resolver.ResolveByToken(ctx, cmd.Token)
	case cmd.RoomCode != "":
		if cmd.DisplayName == "" {
			return nil, errors.NewValidationError("display name is required")
		}
		ident, err = e.resolver.ResolveByCredentials(ctx, cmd.DisplayName, cmd.AvatarTag, cmd.RoomCode)
	default:
		// anonymous join: no durable identity, no room scope, broadcasts go
		// global
		if cmd.DisplayName == "" {
			return nil, errors.NewValidationError("display name is required")
		}
		ident = &ResolvedIdentity{
			DisplayName: cmd.DisplayName,
			AvatarTag:   cmd.AvatarTag,
		}
	}
	if err != nil {
		return nil, err
	}

	session, err := domain.NewSession(connID, ident.UserSID, ident.RoomCode, ident.DisplayName, ident.AvatarTag)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if zone, ok := e.zones.Lookup(session.Position.X, session.Position.Y); ok {
		session.CurrentZone = zone
	}

	if err := e.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	if ident.RoomCode != "" {
		e.router.Subscribe(connID, ident.RoomCode)
	}

	roster, err := e.roomRoster(ctx, ident.RoomCode)
	if err != nil {
		e.logger.Warnw("failed to build roster for joiner",
			"conn_id", connID,
			"error", err)
		roster = []*domain.Session{session}
	}
	e.router.ToConnection(connID, EventCurrentRoster, roster)
	e.broadcastExceptSender(ident.RoomCode, connID, EventNewUserJoined, session)

	e.logger.Infow("connection joined room",
		"conn_id", connID,
		"user_sid", ident.UserSID,
		"room_code", ident.RoomCode)

	return &JoinResult{Session: session, Token: ident.Token}, nil
}

// Move rewrites the connection's position and announces it to the room. A
// move from a connection with no live session is dropped without error; that
// covers both never-joined connections and moves racing a disconnect.
func (e *Engine) Move(ctx context.Context, connID string, pos domain.Position, facing domain.Facing) error {
	current, err := e.store.Get(ctx, connID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if current == nil {
		return nil
	}

	zone, _ := e.zones.Lookup(pos.X, pos.Y)

	updated, err := e.store.UpdatePosition(ctx, connID, pos, facing, zone)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if updated == nil {
		// session vanished between the read and the write; drop the move
		return nil
	}

	e.broadcastExceptSender(updated.RoomCode, connID, EventPlayerMoved, MovedPayload{
		ConnID:    connID,
		Position:  updated.Position,
		Direction: updated.Facing,
		IsMoving:  updated.Moving,
		Zone:      updated.CurrentZone,
	})

	if current.CurrentZone != zone {
		e.router.ToConnection(connID, EventRoomChanged, RoomChangedPayload{
			Entered: zone,
			Left:    current.CurrentZone,
		})
	}
	return nil
}

// Quit is the explicit leave of a room scope. Unlike Disconnect it is an
// error when the connection never joined or holds no room scope, and nothing
// is mutated in either case; scopeless sessions end only on disconnect.
func (e *Engine) Quit(ctx context.Context, connID string) error {
	session, err := e.store.Get(ctx, connID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.RoomCode == "" {
		return errors.NewValidationError("connection has not joined a room")
	}
	// the leaver gets the departure notification too, as the quit confirmation
	return e.teardown(ctx, connID, session, true)
}

// Disconnect is the transport-level teardown. It is idempotent: a connection
// that already quit, or never joined, disconnects without side effects.
func (e *Engine) Disconnect(ctx context.Context, connID string) error {
	session, err := e.store.Get(ctx, connID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil
	}
	return e.teardown(ctx, connID, session, false)
}

// teardown is the single leave path shared by Quit and Disconnect: delete the
// session, drop the room subscription, finalize the work session and announce
// the departure. A failed finalize is logged but never blocks the teardown.
// With confirm set the departure notification is also sent to the leaver.
func (e *Engine) teardown(ctx context.Context, connID string, session *domain.Session, confirm bool) error {
	if err := e.store.Delete(ctx, connID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if session.RoomCode != "" {
		e.router.Unsubscribe(connID, session.RoomCode)
	}

	payload := UserLeftPayload{ConnID: connID}
	if session.Authenticated() {
		report, err := e.ledger.Finalize(ctx, session.UserSID)
		if err != nil {
			e.logger.Warnw("failed to finalize work session",
				"conn_id", connID,
				"user_sid", session.UserSID,
				"error", err)
		} else if report != nil {
			payload.WorkTime = report.DisplayText
		}
	}

	e.broadcastExceptSender(session.RoomCode, connID, EventUserLeft, payload)
	if confirm {
		// the hub subscription is already gone, so the quit confirmation goes
		// straight to the connection
		e.router.ToConnection(connID, EventUserLeft, payload)
	}

	e.logger.Infow("connection left room",
		"conn_id", connID,
		"user_sid", session.UserSID,
		"room_code", session.RoomCode)
	return nil
}

// broadcastExceptSender delivers to the room scope, or globally for
// scopeless sessions.
func (e *Engine) broadcastExceptSender(roomCode, senderID, event string, data any) {
	if roomCode == "" {
		e.router.ToAllExceptSender(senderID, event, data)
		return
	}
	e.router.ToRoomExceptSender(roomCode, senderID, event, data)
}

// roomRoster returns every live session sharing the room code; for a
// scopeless joiner it is the sessions that are likewise scopeless.
func (e *Engine) roomRoster(ctx context.Context, roomCode string) ([]*domain.Session, error) {
	all, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	code := id.NormalizeRoomCode(roomCode)

	roster := make([]*domain.Session, 0, len(all))
	for _, session := range all {
		if id.NormalizeRoomCode(session.RoomCode) == code {
			roster = append(roster, session)
		}
	}
	return roster, nil
}
