package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"huddle/internal/domain/presence"
	"huddle/internal/shared/biztime"
)

const sessionKeyPrefix = "presence:conn:"

// RedisSessionStore keeps live sessions as JSON values in Redis, one key per
// connection. No TTL is set: the disconnect path is responsible for deleting
// the key, and a crashed process leaves at worst a stale roster entry that
// the next full roster rebuild does not resurrect into a live connection.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a new RedisSessionStore instance.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(connID string) string {
	return sessionKeyPrefix + connID
}

func (s *RedisSessionStore) Put(ctx context.Context, session *presence.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ConnID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, connID string) (*presence.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(connID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session presence.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, connID string) error {
	if err := s.client.Del(ctx, sessionKey(connID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// UpdatePosition is get-modify-set without a lock; interleaved moves from the
// same connection may lose an intermediate position, which the store contract
// tolerates.
func (s *RedisSessionStore) UpdatePosition(ctx context.Context, connID string, pos presence.Position, facing presence.Facing, zone string) (*presence.Session, error) {
	session, err := s.Get(ctx, connID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	session.Position = pos
	session.Facing = facing
	session.CurrentZone = zone
	session.Moving = true
	session.LastActiveAt = biztime.NowUTC()

	if err := s.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RedisSessionStore) ListAll(ctx context.Context) (map[string]*presence.Session, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	all := make(map[string]*presence.Session, len(keys))
	if len(keys) == 0 {
		return all, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	for _, raw := range values {
		str, ok := raw.(string)
		if !ok {
			// key expired or was deleted between SCAN and MGET
			continue
		}
		var session presence.Session
		if err := json.Unmarshal([]byte(str), &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		all[session.ConnID] = &session
	}
	return all, nil
}
