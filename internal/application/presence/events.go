package presence

import (
	domain "huddle/internal/domain/presence"
)

// Outbound event names emitted by the engine.
const (
	EventCurrentRoster = "current-roster"
	EventNewUserJoined = "new-user-joined"
	EventPlayerMoved   = "player-moved"
	EventRoomChanged   = "room-changed"
	EventUserLeft      = "user-left"
)

// MovedPayload is the per-move broadcast to the rest of the room.
type MovedPayload struct {
	ConnID    string          `json:"id"`
	Position  domain.Position `json:"position"`
	Direction domain.Facing   `json:"direction"`
	IsMoving  bool            `json:"isMoving"`
	Zone      string          `json:"currentZone,omitempty"`
}

// RoomChangedPayload announces a zone transition to the mover. Exactly one is
// emitted per transition; entered or left may be empty at the map's open
// areas, never both.
type RoomChangedPayload struct {
	Entered string `json:"entered,omitempty"`
	Left    string `json:"left,omitempty"`
}

// UserLeftPayload announces a departure to the rest of the room. WorkTime is
// present only when a work session was finalized for the leaver.
type UserLeftPayload struct {
	ConnID   string `json:"socketId"`
	WorkTime string `json:"workTime,omitempty"`
}
