// Package presence holds the live, ephemeral per-connection state: where a
// connection's avatar is, which room scope it belongs to, and which map zone
// it currently occupies. Everything here is derived from the connection's
// lifetime; nothing survives a disconnect.
package presence

import (
	"fmt"
	"math/rand"
	"time"

	"huddle/internal/shared/biztime"
)

// Facing is the direction an avatar faces.
type Facing string

const (
	FacingUp    Facing = "up"
	FacingDown  Facing = "down"
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// ParseFacing validates a wire-level direction string.
func ParseFacing(s string) (Facing, error) {
	switch Facing(s) {
	case FacingUp, FacingDown, FacingLeft, FacingRight:
		return Facing(s), nil
	default:
		return "", fmt.Errorf("unknown facing direction %q", s)
	}
}

// Position is a point on the office map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Spawn placement: a fixed base point plus jitter so simultaneous joiners
// don't stack on one pixel.
const (
	SpawnBaseX    = 400
	SpawnBaseY    = 300
	SpawnJitter   = 50
	DefaultAvatar = "default"
)

// Session is the live presence record for one connection. One exists per
// active connection; it is created on join, rewritten on every move, and
// deleted on quit or disconnect.
type Session struct {
	ConnID      string   `json:"id"`
	UserSID     string   `json:"userId,omitempty"`
	RoomCode    string   `json:"roomCode,omitempty"`
	DisplayName string   `json:"username"`
	AvatarTag   string   `json:"avatar"`
	Position    Position `json:"position"`
	Facing      Facing   `json:"direction"`
	Moving      bool     `json:"isMoving"`

	// CurrentZone is derived from Position via the ZoneIndex on every move.
	// It is never set independently.
	CurrentZone  string    `json:"currentZone,omitempty"`
	LastActiveAt time.Time `json:"lastActive"`
}

// NewSession creates a session at the spawn point. DisplayName and AvatarTag
// are fixed for the session's lifetime.
func NewSession(connID, userSID, roomCode, displayName, avatarTag string) (*Session, error) {
	if connID == "" {
		return nil, fmt.Errorf("connection ID is required")
	}
	if displayName == "" {
		return nil, fmt.Errorf("display name is required")
	}
	if avatarTag == "" {
		avatarTag = DefaultAvatar
	}

	return &Session{
		ConnID:      connID,
		UserSID:     userSID,
		RoomCode:    roomCode,
		DisplayName: displayName,
		AvatarTag:   avatarTag,
		Position: Position{
			X: SpawnBaseX + float64(rand.Intn(SpawnJitter)),
			Y: SpawnBaseY + float64(rand.Intn(SpawnJitter)),
		},
		Facing:       FacingDown,
		Moving:       false,
		LastActiveAt: biztime.NowUTC(),
	}, nil
}

// Authenticated reports whether the session is bound to a durable identity.
func (s *Session) Authenticated() bool {
	return s.UserSID != ""
}

// Clone returns a deep copy. Stores hand out clones so callers cannot mutate
// shared state behind the store's back.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}
