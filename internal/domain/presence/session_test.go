package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Defaults(t *testing.T) {
	s, err := NewSession("conn_1", "usr_1", "ABC123", "alice", "")
	require.NoError(t, err)

	assert.Equal(t, "conn_1", s.ConnID)
	assert.Equal(t, "usr_1", s.UserSID)
	assert.Equal(t, "ABC123", s.RoomCode)
	assert.Equal(t, "alice", s.DisplayName)
	assert.Equal(t, DefaultAvatar, s.AvatarTag)
	assert.Equal(t, FacingDown, s.Facing)
	assert.False(t, s.Moving)
	assert.Empty(t, s.CurrentZone)
	assert.False(t, s.LastActiveAt.IsZero())
	assert.True(t, s.Authenticated())
}

func TestNewSession_SpawnJitter(t *testing.T) {
	s, err := NewSession("conn_1", "", "", "bob", "robot")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, s.Position.X, float64(SpawnBaseX))
	assert.Less(t, s.Position.X, float64(SpawnBaseX+SpawnJitter))
	assert.GreaterOrEqual(t, s.Position.Y, float64(SpawnBaseY))
	assert.Less(t, s.Position.Y, float64(SpawnBaseY+SpawnJitter))
	assert.False(t, s.Authenticated())
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession("", "", "", "alice", "")
	assert.Error(t, err)

	_, err = NewSession("conn_1", "", "", "", "")
	assert.Error(t, err)
}

func TestParseFacing(t *testing.T) {
	for _, valid := range []string{"up", "down", "left", "right"} {
		f, err := ParseFacing(valid)
		require.NoError(t, err)
		assert.Equal(t, Facing(valid), f)
	}

	_, err := ParseFacing("north")
	assert.Error(t, err)
	_, err = ParseFacing("")
	assert.Error(t, err)
}

func TestSession_Clone(t *testing.T) {
	s, err := NewSession("conn_1", "usr_1", "ABC123", "alice", "cat")
	require.NoError(t, err)

	dup := s.Clone()
	dup.Position.X = 999
	dup.CurrentZone = "elsewhere"

	assert.NotEqual(t, s.Position.X, dup.Position.X)
	assert.Empty(t, s.CurrentZone)

	var nilSession *Session
	assert.Nil(t, nilSession.Clone())
}
