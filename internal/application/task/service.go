// Package task exposes the room task board: create, move, edit and delete
// cards, with every mutation broadcast to the room.
package task

import (
	"context"
	"fmt"

	appresence "huddle/internal/application/presence"
	domain "huddle/internal/domain/presence"
	"huddle/internal/domain/room"
	"huddle/internal/domain/task"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

const (
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
)

// Payload is the wire shape of a board card.
type Payload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Column      string `json:"column"`
	// Notice is human-readable change context, set on column moves.
	Notice    string `json:"notice,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// DeletedPayload announces a removed card.
type DeletedPayload struct {
	ID string `json:"id"`
}

// UpdateCommand carries a partial edit. Nil fields are left unchanged.
type UpdateCommand struct {
	Title       *string
	Description *string
	Status      *string
}

// Service mutates the durable task store and fans results out to the room.
// Every operation requires the caller to hold a live, room-scoped session;
// the board does not exist outside a room.
type Service struct {
	tasks    task.Repository
	rooms    room.RoomRepository
	sessions domain.Store
	router   appresence.EventRouter
	logger   logger.Interface
}

func NewService(
	tasks task.Repository,
	rooms room.RoomRepository,
	sessions domain.Store,
	router appresence.EventRouter,
	log logger.Interface,
) *Service {
	return &Service{
		tasks:    tasks,
		rooms:    rooms,
		sessions: sessions,
		router:   router,
		logger:   log,
	}
}

// Create adds a card to the caller's room board and announces it.
func (s *Service) Create(ctx context.Context, connID, title, description string) (*Payload, error) {
	session, rm, err := s.roomScope(ctx, connID)
	if err != nil {
		return nil, err
	}

	entity, err := task.NewTask(rm.SID, title, description)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.tasks.Create(ctx, entity); err != nil {
		return nil, errors.NewStoreUnavailableError("failed to save task")
	}

	payload := toPayload(entity, "")
	s.router.ToRoom(session.RoomCode, EventTaskCreated, payload)
	return payload, nil
}

// Update edits a card, optionally moving it between columns. A column move
// carries a notice naming who moved the card where.
func (s *Service) Update(ctx context.Context, connID, taskSID string, cmd UpdateCommand) (*Payload, error) {
	session, rm, err := s.roomScope(ctx, connID)
	if err != nil {
		return nil, err
	}

	entity, err := s.boardTask(ctx, taskSID, rm)
	if err != nil {
		return nil, err
	}

	notice := ""
	if cmd.Status != nil && task.Status(*cmd.Status) != entity.Status {
		if err := entity.Move(task.Status(*cmd.Status)); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		notice = fmt.Sprintf("%s moved %q to %s",
			session.DisplayName, entity.Title, task.ColumnLabel(entity.Status))
	}
	if cmd.Title != nil {
		entity.Title = *cmd.Title
	}
	if cmd.Description != nil {
		entity.Description = *cmd.Description
	}

	if err := s.tasks.Update(ctx, entity); err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.NewStoreUnavailableError("failed to save task")
	}

	payload := toPayload(entity, notice)
	s.router.ToRoom(session.RoomCode, EventTaskUpdated, payload)
	return payload, nil
}

// Delete removes a card from the caller's room board and announces it.
func (s *Service) Delete(ctx context.Context, connID, taskSID string) error {
	session, rm, err := s.roomScope(ctx, connID)
	if err != nil {
		return err
	}

	if _, err := s.boardTask(ctx, taskSID, rm); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskSID); err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.NewStoreUnavailableError("failed to delete task")
	}

	s.router.ToRoom(session.RoomCode, EventTaskDeleted, DeletedPayload{ID: taskSID})
	return nil
}

// ListByRoomCode returns a room's board in creation order. Used by the HTTP
// surface so clients can load the board without replaying socket traffic.
func (s *Service) ListByRoomCode(ctx context.Context, roomCode string) ([]*Payload, error) {
	rm, err := s.rooms.GetActiveByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	entities, err := s.tasks.ListByRoom(ctx, rm.SID)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("failed to load tasks")
	}

	payloads := make([]*Payload, 0, len(entities))
	for _, entity := range entities {
		payloads = append(payloads, toPayload(entity, ""))
	}
	return payloads, nil
}

// roomScope resolves the caller's live session and its durable room.
func (s *Service) roomScope(ctx context.Context, connID string) (*domain.Session, *room.Room, error) {
	session, err := s.sessions.Get(ctx, connID)
	if err != nil {
		return nil, nil, errors.NewStoreUnavailableError("failed to resolve sender session")
	}
	if session == nil || session.RoomCode == "" {
		return nil, nil, errors.NewValidationError("connection has not joined a room")
	}

	rm, err := s.rooms.GetActiveByCode(ctx, session.RoomCode)
	if err != nil {
		return nil, nil, err
	}
	return session, rm, nil
}

// boardTask loads a card and checks it belongs to the caller's room.
func (s *Service) boardTask(ctx context.Context, taskSID string, rm *room.Room) (*task.Task, error) {
	entity, err := s.tasks.GetBySID(ctx, taskSID)
	if err != nil {
		return nil, err
	}
	if entity.RoomSID != rm.SID {
		return nil, errors.NewNotFoundError("task not found")
	}
	return entity, nil
}

func toPayload(entity *task.Task, notice string) *Payload {
	return &Payload{
		ID:          entity.SID,
		Title:       entity.Title,
		Description: entity.Description,
		Status:      string(entity.Status),
		Column:      task.ColumnLabel(entity.Status),
		Notice:      notice,
		CreatedAt:   entity.CreatedAt.UnixMilli(),
		UpdatedAt:   entity.UpdatedAt.UnixMilli(),
	}
}
