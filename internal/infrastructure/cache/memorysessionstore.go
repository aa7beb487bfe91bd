// Package cache holds the live session stores: a Redis-backed store for
// multi-process deployments, an in-memory store for single-process use and
// tests, and a fallback wrapper that degrades from one to the other.
package cache

import (
	"context"
	"sync"

	"huddle/internal/domain/presence"
	"huddle/internal/shared/biztime"
)

// MemorySessionStore keeps live sessions in a process-local map. Sessions are
// cloned on the way in and out so callers never share mutable state with the
// store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*presence.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*presence.Session),
	}
}

func (s *MemorySessionStore) Put(ctx context.Context, session *presence.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ConnID] = session.Clone()
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, connID string) (*presence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[connID]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, connID)
	return nil
}

func (s *MemorySessionStore) UpdatePosition(ctx context.Context, connID string, pos presence.Position, facing presence.Facing, zone string) (*presence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[connID]
	if !ok {
		return nil, nil
	}
	session.Position = pos
	session.Facing = facing
	session.CurrentZone = zone
	session.Moving = true
	session.LastActiveAt = biztime.NowUTC()
	return session.Clone(), nil
}

func (s *MemorySessionStore) ListAll(ctx context.Context) (map[string]*presence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make(map[string]*presence.Session, len(s.sessions))
	for connID, session := range s.sessions {
		all[connID] = session.Clone()
	}
	return all, nil
}
