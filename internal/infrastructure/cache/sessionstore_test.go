package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle/internal/domain/presence"
)

func newTestSession(t *testing.T, connID string) *presence.Session {
	session, err := presence.NewSession(connID, "usr_test00000001", "ABC234", "Alice", "avatar-1")
	require.NoError(t, err)
	return session
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := newTestSession(t, "conn-1")
	require.NoError(t, store.Put(ctx, session))

	found, err := store.Get(ctx, "conn-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alice", found.DisplayName)
	assert.Equal(t, "ABC234", found.RoomCode)

	require.NoError(t, store.Delete(ctx, "conn-1"))

	found, err = store.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStore_MissingSessionIsNotAnError(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	found, err := store.Get(ctx, "conn-unknown")
	require.NoError(t, err)
	assert.Nil(t, found)

	updated, err := store.UpdatePosition(ctx, "conn-unknown", presence.Position{X: 1, Y: 2}, presence.FacingUp, "")
	require.NoError(t, err)
	assert.Nil(t, updated)

	// deleting an absent session is a no-op
	assert.NoError(t, store.Delete(ctx, "conn-unknown"))
}

func TestMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession(t, "conn-1")))

	first, err := store.Get(ctx, "conn-1")
	require.NoError(t, err)
	first.DisplayName = "Mallory"

	second, err := store.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", second.DisplayName)
}

func TestMemoryStore_UpdatePosition(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession(t, "conn-1")))

	updated, err := store.UpdatePosition(ctx, "conn-1", presence.Position{X: 120, Y: 80}, presence.FacingLeft, "meeting-room")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, float64(120), updated.Position.X)
	assert.Equal(t, presence.FacingLeft, updated.Facing)
	assert.Equal(t, "meeting-room", updated.CurrentZone)
	assert.True(t, updated.Moving)
}

func TestMemoryStore_UpdatePosition_LastWriteWins(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession(t, "conn-1")))

	_, err := store.UpdatePosition(ctx, "conn-1", presence.Position{X: 10, Y: 10}, presence.FacingUp, "")
	require.NoError(t, err)
	_, err = store.UpdatePosition(ctx, "conn-1", presence.Position{X: 20, Y: 20}, presence.FacingDown, "")
	require.NoError(t, err)

	found, err := store.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, float64(20), found.Position.X)
	assert.Equal(t, presence.FacingDown, found.Facing)
}

func TestMemoryStore_ListAll(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, newTestSession(t, fmt.Sprintf("conn-%d", i))))
	}

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Contains(t, all, "conn-1")
}

// failingStore errors on every call, standing in for an unreachable Redis.
type failingStore struct{}

func (f *failingStore) Put(ctx context.Context, session *presence.Session) error {
	return fmt.Errorf("connection refused")
}

func (f *failingStore) Get(ctx context.Context, connID string) (*presence.Session, error) {
	return nil, fmt.Errorf("connection refused")
}

func (f *failingStore) Delete(ctx context.Context, connID string) error {
	return fmt.Errorf("connection refused")
}

func (f *failingStore) UpdatePosition(ctx context.Context, connID string, pos presence.Position, facing presence.Facing, zone string) (*presence.Session, error) {
	return nil, fmt.Errorf("connection refused")
}

func (f *failingStore) ListAll(ctx context.Context) (map[string]*presence.Session, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestFallbackStore_HealthyPrimary(t *testing.T) {
	primary := NewMemorySessionStore()
	secondary := NewMemorySessionStore()
	store := NewFallbackSessionStore(primary, secondary)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession(t, "conn-1")))
	assert.False(t, store.Degraded())

	// writes land in the primary, not the secondary
	found, err := primary.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.NotNil(t, found)

	found, err = secondary.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFallbackStore_DegradesOnPrimaryFailure(t *testing.T) {
	secondary := NewMemorySessionStore()
	store := NewFallbackSessionStore(&failingStore{}, secondary)
	ctx := context.Background()

	session := newTestSession(t, "conn-1")
	require.NoError(t, store.Put(ctx, session))
	assert.True(t, store.Degraded())

	// once degraded, all operations go straight to the secondary
	found, err := store.Get(ctx, "conn-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alice", found.DisplayName)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
