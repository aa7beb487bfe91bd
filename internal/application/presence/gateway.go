package presence

import (
	"context"
	"fmt"

	"huddle/internal/domain/room"
	"huddle/internal/shared/biztime"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/id"
	"huddle/internal/shared/logger"
)

// TokenClaims is the decoded content of a room token.
type TokenClaims struct {
	UserSID     string
	RoomSID     string
	RoomCode    string
	DisplayName string
}

// TokenService mints and verifies room tokens.
type TokenService interface {
	Generate(userSID, roomSID, roomCode, displayName string) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// Gateway resolves join requests against the durable side: it validates the
// room, creates or re-binds the identity, opens the work session and mints
// the room token. It implements both IdentityResolver and WorkSessionLedger.
type Gateway struct {
	rooms        room.RoomRepository
	users        room.UserRepository
	workSessions room.WorkSessionRepository
	tokens       TokenService
	logger       logger.Interface
}

func NewGateway(
	rooms room.RoomRepository,
	users room.UserRepository,
	workSessions room.WorkSessionRepository,
	tokens TokenService,
	log logger.Interface,
) *Gateway {
	return &Gateway{
		rooms:        rooms,
		users:        users,
		workSessions: workSessions,
		tokens:       tokens,
		logger:       log,
	}
}

// ResolveByCredentials admits a first-time joiner: the room code must name an
// active, unexpired room, and a fresh identity is created for the display
// name. A room token is minted so the client can rejoin without the code.
func (g *Gateway) ResolveByCredentials(ctx context.Context, displayName, avatarTag, roomCode string) (*ResolvedIdentity, error) {
	code := id.NormalizeRoomCode(roomCode)
	if !id.IsValidRoomCode(code) {
		return nil, errors.NewValidationError("invalid room code format")
	}

	rm, err := g.rooms.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("room not found or expired")
		}
		return nil, fmt.Errorf("failed to resolve room: %w", err)
	}

	user, err := room.NewUser(displayName, avatarTag)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := g.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return g.admit(ctx, user, rm)
}

// ResolveByToken admits a rejoiner. The token's room must still be joinable;
// an abolished or expired room invalidates the token even before it expires.
func (g *Gateway) ResolveByToken(ctx context.Context, token string) (*ResolvedIdentity, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, errors.NewAuthError("invalid or expired token")
	}

	rm, err := g.rooms.GetBySID(ctx, claims.RoomSID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("room no longer exists")
		}
		return nil, fmt.Errorf("failed to resolve room: %w", err)
	}
	if !rm.Joinable(biztime.NowUTC()) {
		return nil, errors.NewAuthError("room is closed or expired")
	}

	user, err := g.users.GetBySID(ctx, claims.UserSID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("identity no longer exists")
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	return g.admit(ctx, user, rm)
}

// admit binds the identity to the room, mints a fresh token and opens the
// work session. The work session row is committed last: a failure anywhere
// in admit must not leave an open session behind.
func (g *Gateway) admit(ctx context.Context, user *room.User, rm *room.Room) (*ResolvedIdentity, error) {
	user.EnterRoom(rm.SID)
	if err := g.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to bind identity to room: %w", err)
	}

	token, err := g.tokens.Generate(user.SID, rm.SID, rm.Code, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to mint room token: %w", err)
	}

	ws, err := room.NewWorkSession(user.SID, rm.SID)
	if err != nil {
		return nil, fmt.Errorf("failed to open work session: %w", err)
	}
	if err := g.workSessions.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to open work session: %w", err)
	}

	return &ResolvedIdentity{
		UserSID:     user.SID,
		RoomSID:     rm.SID,
		RoomCode:    rm.Code,
		DisplayName: user.DisplayName,
		AvatarTag:   user.AvatarTag,
		Token:       token,
	}, nil
}

// Finalize closes the user's open work session and detaches them from their
// room. Returns (nil, nil) when no session was open.
func (g *Gateway) Finalize(ctx context.Context, userSID string) (*room.WorkReport, error) {
	report, err := g.workSessions.CloseOpenByUser(ctx, userSID)
	if err != nil {
		return nil, fmt.Errorf("failed to close work session: %w", err)
	}
	if err := g.users.ClearMembership(ctx, userSID); err != nil {
		return nil, fmt.Errorf("failed to clear room membership: %w", err)
	}
	return report, nil
}

// VerifyToken checks a room token and returns its claims. Used by the
// transport's authenticate handler.
func (g *Gateway) VerifyToken(token string) (*TokenClaims, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, errors.NewAuthError("invalid or expired token")
	}
	return claims, nil
}
