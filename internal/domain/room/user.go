package room

import (
	"fmt"
	"time"

	"huddle/internal/shared/biztime"
	"huddle/internal/shared/id"
)

// User is a lightweight durable identity: a display name bound to at most
// one current room. There are no credentials; possession of a valid room
// code (or a token minted from one) is the whole authorization model.
type User struct {
	ID             uint
	SID            string
	DisplayName    string
	AvatarTag      string
	CurrentRoomSID string
	LastLoginAt    *time.Time
	LastLogoutAt   *time.Time
	CreatedAt      time.Time
}

// NewUser creates an identity for a joiner.
func NewUser(displayName, avatarTag string) (*User, error) {
	if len(displayName) < 2 {
		return nil, fmt.Errorf("display name must be at least 2 characters")
	}
	if avatarTag == "" {
		avatarTag = "default"
	}

	sid, err := id.GenerateWithPrefix("usr", 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	now := biztime.NowUTC()
	return &User{
		SID:         sid,
		DisplayName: displayName,
		AvatarTag:   avatarTag,
		LastLoginAt: &now,
		CreatedAt:   now,
	}, nil
}

// EnterRoom records the user's current room membership.
func (u *User) EnterRoom(roomSID string) {
	u.CurrentRoomSID = roomSID
	now := biztime.NowUTC()
	u.LastLoginAt = &now
}

// LeaveRoom clears the user's room membership.
func (u *User) LeaveRoom() {
	u.CurrentRoomSID = ""
	now := biztime.NowUTC()
	u.LastLogoutAt = &now
}
