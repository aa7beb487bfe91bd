package presence

import "context"

// Store is the live session registry, keyed by connection ID. Implementations
// must treat a missing key as an ordinary outcome, not an error: Get and
// UpdatePosition return (nil, nil) for absent sessions, and the caller is
// required to drop the triggering event silently in that case. That contract
// is what makes a move racing a disconnect safe.
//
// UpdatePosition is a read-modify-write with no cross-call locking. Rapid
// back-to-back moves from one connection may interleave and lose an
// intermediate position; this is an accepted trade-off, not a bug to fix.
type Store interface {
	// Put creates or fully overwrites the session for its connection ID.
	Put(ctx context.Context, session *Session) error

	// Get returns the session, or (nil, nil) when none exists.
	Get(ctx context.Context, connID string) (*Session, error)

	// Delete removes the session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, connID string) error

	// UpdatePosition rewrites position, facing and derived zone, marks the
	// session as moving and refreshes its activity timestamp. Returns the
	// updated session, or (nil, nil) when the session no longer exists.
	UpdatePosition(ctx context.Context, connID string, pos Position, facing Facing, zone string) (*Session, error)

	// ListAll returns every live session keyed by connection ID.
	ListAll(ctx context.Context) (map[string]*Session, error)
}
