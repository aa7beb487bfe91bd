// Package room models the durable side of a virtual office: rooms addressed
// by short code, the identities that join them, and the work sessions opened
// while a member is present.
package room

import (
	"fmt"
	"time"

	"huddle/internal/shared/biztime"
	"huddle/internal/shared/id"
)

// DefaultExpiryHours is how long a room stays joinable after creation.
const DefaultExpiryHours = 24

// Room is a short-lived, code-addressed session container. The code is
// stored normalized uppercase and is the broadcast-partitioning key for
// everything scoped to the room.
type Room struct {
	ID         uint
	SID        string
	Code       string
	Name       string
	CreatorSID string
	IsActive   bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// NewRoom creates an active room with a freshly generated code.
func NewRoom(name, creatorSID string, expiryHours int) (*Room, error) {
	if name == "" {
		return nil, fmt.Errorf("room name is required")
	}
	if creatorSID == "" {
		return nil, fmt.Errorf("creator is required")
	}
	if expiryHours <= 0 {
		expiryHours = DefaultExpiryHours
	}

	code, err := id.GenerateRoomCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room code: %w", err)
	}
	sid, err := id.GenerateWithPrefix("room", 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Room{
		SID:        sid,
		Code:       code,
		Name:       name,
		CreatorSID: creatorSID,
		IsActive:   true,
		ExpiresAt:  now.Add(time.Duration(expiryHours) * time.Hour),
		CreatedAt:  now,
	}, nil
}

// Joinable reports whether the room accepts new members at the given time.
func (r *Room) Joinable(at time.Time) bool {
	return r.IsActive && at.Before(r.ExpiresAt)
}

// Abolish deactivates the room. Only the creator may abolish.
func (r *Room) Abolish(bySID string) error {
	if r.CreatorSID != bySID {
		return fmt.Errorf("only the room creator can abolish the room")
	}
	r.IsActive = false
	return nil
}
