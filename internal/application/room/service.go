// Package room manages the durable room lifecycle: create, join, abolish.
// Joining here is the HTTP-side handshake that mints a token; the live
// presence join happens over the socket with that token.
package room

import (
	"context"
	"fmt"
	"time"

	appresence "huddle/internal/application/presence"
	domain "huddle/internal/domain/room"
	"huddle/internal/shared/biztime"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/id"
	"huddle/internal/shared/logger"
)

const EventRoomAbolished = "room-abolished"

// createAttempts bounds code-collision retries on room creation.
const createAttempts = 5

// AbolishedPayload announces that a room was shut down by its creator.
type AbolishedPayload struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

// CreateCommand opens a new room; the creator gets a fresh identity bound to
// it.
type CreateCommand struct {
	RoomName    string
	DisplayName string
	AvatarTag   string
}

// JoinCommand admits a joiner by room code.
type JoinCommand struct {
	RoomCode    string
	DisplayName string
	AvatarTag   string
}

// Result is the HTTP-facing outcome of create and join: enough for the
// client to open the socket with the token.
type Result struct {
	RoomSID   string
	RoomCode  string
	RoomName  string
	UserSID   string
	Token     string
	ExpiresAt time.Time
}

// Service owns the durable room records. It shares the token service with
// the presence gateway so HTTP-minted tokens work on the socket unchanged.
type Service struct {
	rooms        domain.RoomRepository
	users        domain.UserRepository
	workSessions domain.WorkSessionRepository
	tokens       appresence.TokenService
	router       appresence.EventRouter
	expiryHours  int
	logger       logger.Interface
}

// NewService builds the room service. A non-positive expiryHours falls back
// to the domain default.
func NewService(
	rooms domain.RoomRepository,
	users domain.UserRepository,
	workSessions domain.WorkSessionRepository,
	tokens appresence.TokenService,
	router appresence.EventRouter,
	expiryHours int,
	log logger.Interface,
) *Service {
	return &Service{
		rooms:        rooms,
		users:        users,
		workSessions: workSessions,
		tokens:       tokens,
		router:       router,
		expiryHours:  expiryHours,
		logger:       log,
	}
}

// Create opens a room, retrying code generation on the rare collision with a
// live room, and binds a fresh creator identity to it.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Result, error) {
	user, err := domain.NewUser(cmd.DisplayName, cmd.AvatarTag)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	var rm *domain.Room
	for attempt := 0; attempt < createAttempts; attempt++ {
		candidate, err := domain.NewRoom(cmd.RoomName, user.SID, s.expiryHours)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}

		_, err = s.rooms.GetActiveByCode(ctx, candidate.Code)
		if err == nil {
			// live room already holds this code, roll a new one
			continue
		}
		if !errors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check room code: %w", err)
		}

		if err := s.rooms.Create(ctx, candidate); err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
		rm = candidate
		break
	}
	if rm == nil {
		return nil, errors.NewInternalError("could not allocate a unique room code")
	}

	user.EnterRoom(rm.SID)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to bind creator to room: %w", err)
	}

	token, err := s.tokens.Generate(user.SID, rm.SID, rm.Code, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to mint room token: %w", err)
	}

	s.logger.Infow("room created",
		"room_sid", rm.SID,
		"room_code", rm.Code,
		"creator_sid", user.SID)

	return &Result{
		RoomSID:   rm.SID,
		RoomCode:  rm.Code,
		RoomName:  rm.Name,
		UserSID:   user.SID,
		Token:     token,
		ExpiresAt: rm.ExpiresAt,
	}, nil
}

// Join validates the code against active rooms, creates the joiner's
// identity and mints a token. No work session opens here; that happens when
// the socket join lands.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (*Result, error) {
	code := id.NormalizeRoomCode(cmd.RoomCode)
	if !id.IsValidRoomCode(code) {
		return nil, errors.NewValidationError("invalid room code format")
	}

	rm, err := s.rooms.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("room not found or expired")
		}
		return nil, fmt.Errorf("failed to resolve room: %w", err)
	}

	user, err := domain.NewUser(cmd.DisplayName, cmd.AvatarTag)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	token, err := s.tokens.Generate(user.SID, rm.SID, rm.Code, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to mint room token: %w", err)
	}

	return &Result{
		RoomSID:   rm.SID,
		RoomCode:  rm.Code,
		RoomName:  rm.Name,
		UserSID:   user.SID,
		Token:     token,
		ExpiresAt: rm.ExpiresAt,
	}, nil
}

// Abolish shuts a room down: creator-only, deactivates the record, finalizes
// every open work session, clears memberships and tells the room. Live
// connections stay up; clients are expected to leave on the broadcast.
func (s *Service) Abolish(ctx context.Context, userSID, roomSID string) error {
	rm, err := s.rooms.GetBySID(ctx, roomSID)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewNotFoundError("room not found")
		}
		return fmt.Errorf("failed to resolve room: %w", err)
	}
	if !rm.IsActive {
		return errors.NewValidationError("room is already closed")
	}

	if err := rm.Abolish(userSID); err != nil {
		return errors.NewForbiddenError(err.Error())
	}
	if err := s.rooms.Update(ctx, rm); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}

	if err := s.workSessions.CloseOpenByRoom(ctx, rm.SID); err != nil {
		s.logger.Warnw("failed to finalize work sessions on abolish",
			"room_sid", rm.SID,
			"error", err)
	}
	if err := s.users.ClearMembershipsByRoom(ctx, rm.SID); err != nil {
		s.logger.Warnw("failed to clear memberships on abolish",
			"room_sid", rm.SID,
			"error", err)
	}

	s.router.ToRoom(rm.Code, EventRoomAbolished, AbolishedPayload{
		RoomCode: rm.Code,
		Reason:   "abolished by creator",
	})

	s.logger.Infow("room abolished",
		"room_sid", rm.SID,
		"room_code", rm.Code,
		"by", userSID)
	return nil
}

// ResolveActive re-checks that a room is still open; the socket layer uses
// it when honoring the abolish-room event by code.
func (s *Service) ResolveActive(ctx context.Context, roomCode string) (*domain.Room, error) {
	rm, err := s.rooms.GetActiveByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if !rm.Joinable(biztime.NowUTC()) {
		return nil, errors.NewNotFoundError("room not found or expired")
	}
	return rm, nil
}
