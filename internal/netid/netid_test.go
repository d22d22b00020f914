package netid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNickname(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		nick, err := NewNickname("alice")
		require.NoError(t, err)
		assert.Equal(t, Nickname("alice"), nick)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := NewNickname("way-too-long-nick")
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Nickname", verr.Type)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewNickname("")
		require.Error(t, err)
	})
}

func TestNewUsername(t *testing.T) {
	_, err := NewUsername("0123456789X")
	require.Error(t, err)

	u, err := NewUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, Username("alice"), u)
}

func TestNewUsernameCoerce(t *testing.T) {
	u := NewUsernameCoerce("ali[ce]extremelylongident")
	assert.LessOrEqual(t, len(u.String()), MaxUsernameLength)
	assert.NotContains(t, u.String(), "[")
}

func TestNewChannelName(t *testing.T) {
	_, err := NewChannelName("general")
	require.Error(t, err)

	ch, err := NewChannelName("#general")
	require.NoError(t, err)
	assert.Equal(t, ChannelName("#general"), ch)
}

func TestPatternMatches(t *testing.T) {
	p, err := NewPattern("*!*@*.example.com")
	require.NoError(t, err)

	assert.True(t, p.Matches("alice!ident@host.example.com"))
	assert.False(t, p.Matches("alice!ident@host.example.org"))
}

func TestObjectIdRoundTrip(t *testing.T) {
	id := UserId{Sequential{Server: 1, Epoch: 2, Local: 3}}

	data, err := MarshalObjectId(id)
	require.NoError(t, err)

	got, err := UnmarshalObjectId(data)
	require.NoError(t, err)

	assert.Equal(t, ObjectId(id), got)
	assert.Equal(t, KindUser, got.Kind())
}

func TestObjectIdRoundTripMembership(t *testing.T) {
	id := MembershipId{
		User:    UserId{Sequential{Server: 1, Epoch: 1, Local: 5}},
		Channel: ChannelId{Sequential{Server: 1, Epoch: 1, Local: 6}},
	}

	data, err := MarshalObjectId(id)
	require.NoError(t, err)

	got, err := UnmarshalObjectId(data)
	require.NoError(t, err)
	assert.Equal(t, ObjectId(id), got)
}

func TestSequentialNext(t *testing.T) {
	s := Sequential{Server: 1, Epoch: 1, Local: 5}
	n := s.Next()
	assert.Equal(t, LocalSeq(6), n.Local)
	assert.Equal(t, s.Server, n.Server)
	assert.Equal(t, s.Epoch, n.Epoch)
}
