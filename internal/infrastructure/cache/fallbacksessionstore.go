package cache

import (
	"context"
	"sync"

	"huddle/internal/domain/presence"
	"huddle/internal/shared/logger"
)

// FallbackSessionStore wraps a primary store (Redis) and an in-memory
// secondary. The first primary failure flips the store into degraded mode
// permanently for the process lifetime; presence state is ephemeral, so
// losing the primary's contents on the flip is acceptable and re-joining
// connections repopulate the secondary.
type FallbackSessionStore struct {
	primary   presence.Store
	secondary presence.Store
	logger    logger.Interface

	mu       sync.RWMutex
	degraded bool
}

// NewFallbackSessionStore creates a store that degrades from primary to
// secondary on the first primary error.
func NewFallbackSessionStore(primary, secondary presence.Store) *FallbackSessionStore {
	return &FallbackSessionStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.NewLogger().With("component", "cache.fallback"),
	}
}

// Degraded reports whether the store has flipped to the secondary.
func (s *FallbackSessionStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *FallbackSessionStore) active() presence.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.degraded {
		return s.secondary
	}
	return s.primary
}

func (s *FallbackSessionStore) degrade(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warnw("primary session store failed, degrading to in-memory store",
		"operation", op,
		"error", err)
}

func (s *FallbackSessionStore) Put(ctx context.Context, session *presence.Session) error {
	if err := s.active().Put(ctx, session); err != nil {
		s.degrade("put", err)
		return s.secondary.Put(ctx, session)
	}
	return nil
}

func (s *FallbackSessionStore) Get(ctx context.Context, connID string) (*presence.Session, error) {
	session, err := s.active().Get(ctx, connID)
	if err != nil {
		s.degrade("get", err)
		return s.secondary.Get(ctx, connID)
	}
	return session, nil
}

func (s *FallbackSessionStore) Delete(ctx context.Context, connID string) error {
	if err := s.active().Delete(ctx, connID); err != nil {
		s.degrade("delete", err)
		return s.secondary.Delete(ctx, connID)
	}
	return nil
}

func (s *FallbackSessionStore) UpdatePosition(ctx context.Context, connID string, pos presence.Position, facing presence.Facing, zone string) (*presence.Session, error) {
	session, err := s.active().UpdatePosition(ctx, connID, pos, facing, zone)
	if err != nil {
		s.degrade("update_position", err)
		return s.secondary.UpdatePosition(ctx, connID, pos, facing, zone)
	}
	return session, nil
}

func (s *FallbackSessionStore) ListAll(ctx context.Context) (map[string]*presence.Session, error) {
	all, err := s.active().ListAll(ctx)
	if err != nil {
		s.degrade("list_all", err)
		return s.secondary.ListAll(ctx)
	}
	return all, nil
}
