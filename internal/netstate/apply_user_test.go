package netstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func newUserEvent(server netid.ServerId, local netid.LocalSeq, at time.Time, nick string) (event.Event, netid.UserId) {
	uid := netid.UserId{Sequential: netid.Sequential{Server: server, Epoch: 1, Local: local}}
	modeId := netid.UModeId{Sequential: netid.Sequential{Server: server, Epoch: 1, Local: local + 1}}
	ev := event.Event{
		Id:        netid.EventId{Sequential: netid.Sequential{Server: server, Epoch: 1, Local: local}},
		Timestamp: at,
		Target:    uid,
		Details: event.NewUser{
			Nickname: netid.Nickname(nick),
			Username: netid.Username("u"),
			Visible:  netid.Hostname("host"),
			ModeId:   modeId,
			Server:   server,
		},
	}
	return ev, uid
}

// TestNickCollisionEarlierTimestampWins exercises the two-server race
// where servers 1 and 2 each register "alice" concurrently: the earlier
// Created timestamp keeps the nick, the later one is renamed to its
// hashed fallback, regardless of which event this replica applies first.
func TestNickCollisionEarlierTimestampWins(t *testing.T) {
	base := time.Now().UTC()
	earlier, earlierId := newUserEvent(1, 1, base, "alice")
	later, laterId := newUserEvent(2, 1, base.Add(time.Second), "alice")

	n := New(nil)
	_, err := n.Apply(earlier)
	require.NoError(t, err)
	changes, err := n.Apply(later)
	require.NoError(t, err)

	earlierUser, ok := n.User(earlierId)
	require.True(t, ok)
	assert.Equal(t, netid.Nickname("alice"), earlierUser.Nickname)

	laterUser, ok := n.User(laterId)
	require.True(t, ok)
	assert.Equal(t, netid.HashedNickFor(laterId), laterUser.Nickname)
	assert.NotEqual(t, netid.Nickname("alice"), laterUser.Nickname)

	var sawCollision bool
	for _, c := range changes {
		if nc, ok := c.(UserNickChanged); ok && nc.User == laterId {
			assert.True(t, nc.Collided)
			sawCollision = true
		}
	}
	assert.True(t, sawCollision, "expected a UserNickChanged notification for the losing user")
}

// TestNickCollisionConvergesRegardlessOfApplyOrder applies the same two
// events in the opposite order on a second replica and checks both
// replicas land on the same winner, the defining property of the
// conflict policy.
func TestNickCollisionConvergesRegardlessOfApplyOrder(t *testing.T) {
	base := time.Now().UTC()
	earlier, earlierId := newUserEvent(1, 1, base, "alice")
	later, laterId := newUserEvent(2, 1, base.Add(time.Second), "alice")

	first := New(nil)
	_, err := first.Apply(earlier)
	require.NoError(t, err)
	_, err = first.Apply(later)
	require.NoError(t, err)

	second := New(nil)
	_, err = second.Apply(later)
	require.NoError(t, err)
	_, err = second.Apply(earlier)
	require.NoError(t, err)

	firstWinner, _ := first.User(earlierId)
	secondWinner, _ := second.User(earlierId)
	assert.Equal(t, firstWinner.Nickname, secondWinner.Nickname)

	firstLoser, _ := first.User(laterId)
	secondLoser, _ := second.User(laterId)
	assert.Equal(t, firstLoser.Nickname, secondLoser.Nickname)
	assert.Equal(t, netid.Nickname("alice"), firstWinner.Nickname)
}

// TestNickCollisionEqualTimestampBreaksOnUserId covers the exact-tie
// case: identical Created timestamps fall back to the lexicographically
// smaller UserId.
func TestNickCollisionEqualTimestampBreaksOnUserId(t *testing.T) {
	base := time.Now().UTC()
	a, aId := newUserEvent(1, 1, base, "alice")
	b, bId := newUserEvent(2, 1, base, "alice")

	n := New(nil)
	_, err := n.Apply(a)
	require.NoError(t, err)
	_, err = n.Apply(b)
	require.NoError(t, err)

	var winnerId, loserId netid.UserId
	if aId.String() < bId.String() {
		winnerId, loserId = aId, bId
	} else {
		winnerId, loserId = bId, aId
	}

	winner, ok := n.User(winnerId)
	require.True(t, ok)
	assert.Equal(t, netid.Nickname("alice"), winner.Nickname)

	loser, ok := n.User(loserId)
	require.True(t, ok)
	assert.Equal(t, netid.HashedNickFor(loserId), loser.Nickname)
}
