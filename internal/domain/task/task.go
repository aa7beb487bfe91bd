// Package task models the shared task board scoped to a room.
package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"huddle/internal/shared/biztime"
	"huddle/internal/shared/id"
)

// Status is a board column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Column pairs a status key with its display label.
type Column struct {
	Key   Status
	Label string
}

// BoardColumns is the fixed column set, in display order.
var BoardColumns = []Column{
	{StatusTodo, "To Do"},
	{StatusInProgress, "In Progress"},
	{StatusDone, "Done"},
}

// ColumnLabel returns the display label for a status, or the raw status
// string if it is not a known column.
func ColumnLabel(s Status) string {
	for _, c := range BoardColumns {
		if c.Key == s {
			return c.Label
		}
	}
	return string(s)
}

// ValidStatus reports whether s is a known board column.
func ValidStatus(s Status) bool {
	for _, c := range BoardColumns {
		if c.Key == s {
			return true
		}
	}
	return false
}

// Task is one card on a room's board.
type Task struct {
	ID          uint
	SID         string
	RoomSID     string
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask creates a card in the todo column.
func NewTask(roomSID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if roomSID == "" {
		return nil, fmt.Errorf("room is required")
	}

	sid, err := id.GenerateWithPrefix("task", 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate task ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Task{
		SID:         sid,
		RoomSID:     roomSID,
		Title:       title,
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Move changes the card's column.
func (t *Task) Move(status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("unknown task status %q", status)
	}
	t.Status = status
	t.UpdatedAt = biztime.NowUTC()
	return nil
}

// Repository persists tasks.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetBySID(ctx context.Context, sid string) (*Task, error)
	ListByRoom(ctx context.Context, roomSID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, sid string) error
}
