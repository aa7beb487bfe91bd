package room

import "context"

// RoomRepository persists rooms. Lookup by code always uses the normalized
// uppercase form.
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetBySID(ctx context.Context, sid string) (*Room, error)
	GetActiveByCode(ctx context.Context, code string) (*Room, error)
	Update(ctx context.Context, room *Room) error
}

// UserRepository persists identities.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetBySID(ctx context.Context, sid string) (*User, error)
	Update(ctx context.Context, user *User) error
	ClearMembership(ctx context.Context, userSID string) error
	ClearMembershipsByRoom(ctx context.Context, roomSID string) error
}

// WorkSessionRepository persists work sessions. CloseOpenByUser finalizes
// the user's open session (if any) and returns the computed report; it
// returns (nil, nil) when the user has no open session.
type WorkSessionRepository interface {
	Create(ctx context.Context, session *WorkSession) error
	CloseOpenByUser(ctx context.Context, userSID string) (*WorkReport, error)
	CloseOpenByRoom(ctx context.Context, roomSID string) error
}
