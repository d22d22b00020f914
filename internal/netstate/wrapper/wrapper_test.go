package wrapper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
	"github.com/Libera-Chat/sable-sub002/internal/netstate/wrapper"
)

func seededNetwork(t *testing.T) (*netstate.Network, netid.UserId, netid.ChannelId) {
	t.Helper()
	n := netstate.New(nil)

	srv := netid.ServerId(1)
	epoch := netid.EpochId(1)
	seq := func(local netid.LocalSeq) netid.Sequential {
		return netid.Sequential{Server: srv, Epoch: epoch, Local: local}
	}

	_, err := n.Apply(event.Event{
		Id:        netid.EventId{Sequential: seq(1)},
		Timestamp: time.Unix(1000, 0),
		Target:    netid.ServerId(srv),
		Details:   event.NewServer{Name: "irc.example.org", Epoch: epoch, Joined: time.Unix(1000, 0)},
	})
	require.NoError(t, err)

	uid := netid.UserId{Sequential: seq(2)}
	modeId := netid.UModeId{Sequential: seq(3)}
	_, err = n.Apply(event.Event{
		Id:        netid.EventId{Sequential: seq(4)},
		Timestamp: time.Unix(1001, 0),
		Target:    uid,
		Details: event.NewUser{
			Nickname: "alice", Username: "alice", Visible: "host.example.org",
			ModeId: modeId, Server: srv,
		},
	})
	require.NoError(t, err)

	cid := netid.ChannelId{Sequential: seq(100)}
	cmodeId := netid.CModeId{Sequential: seq(5)}
	_, err = n.Apply(event.Event{
		Id:        netid.EventId{Sequential: seq(6)},
		Timestamp: time.Unix(1002, 0),
		Target:    cid,
		Details:   event.NewChannel{Name: "#test", ModeId: cmodeId, Created: time.Unix(1002, 0)},
	})
	require.NoError(t, err)

	mid := netid.MembershipId{User: uid, Channel: cid}
	_, err = n.Apply(event.Event{
		Id:        netid.EventId{Sequential: seq(7)},
		Timestamp: time.Unix(1003, 0),
		Target:    mid,
		Details:   event.ChannelJoin{InitialFlags: modes.MembershipFlagSet(0).Set(modes.MembershipOp)},
	})
	require.NoError(t, err)

	return n, uid, cid
}

func TestUserWrapperNavigatesToServerAndMemberships(t *testing.T) {
	n, uid, cid := seededNetwork(t)

	u, err := wrapper.WrapUser(n, uid)
	require.NoError(t, err)
	assert.EqualValues(t, "alice", u.Nickname())

	srv, err := u.Server()
	require.NoError(t, err)
	assert.Equal(t, "irc.example.org", srv.Name())

	memberships := u.Memberships()
	require.Len(t, memberships, 1)
	assert.Equal(t, cid, memberships[0].Id().Channel)
}

func TestMembershipWrapperResolvesUserAndChannel(t *testing.T) {
	n, uid, cid := seededNetwork(t)

	m, err := wrapper.WrapMembership(n, netid.MembershipId{User: uid, Channel: cid})
	require.NoError(t, err)

	u, err := m.User()
	require.NoError(t, err)
	assert.Equal(t, uid, u.Id())

	c, err := m.Channel()
	require.NoError(t, err)
	assert.Equal(t, cid, c.Id())

	assert.Equal(t, byte('@'), m.HighestPrefix())
}

func TestChannelWrapperListsMembers(t *testing.T) {
	n, uid, cid := seededNetwork(t)

	c, err := wrapper.WrapChannel(n, cid)
	require.NoError(t, err)

	members := c.Members()
	require.Len(t, members, 1)
	assert.Equal(t, uid, members[0].Id().User)
}

func TestNickBindingResolvesToCurrentOwner(t *testing.T) {
	n, uid, _ := seededNetwork(t)

	b, err := wrapper.WrapNickBinding(n, "alice")
	require.NoError(t, err)
	assert.Equal(t, netid.Nickname("alice"), b.Nick())

	u, err := b.User()
	require.NoError(t, err)
	assert.Equal(t, uid, u.Id())
}

func TestWrapUserUnknownIdReturnsLookupError(t *testing.T) {
	n := netstate.New(nil)
	_, err := wrapper.WrapUser(n, netid.UserId{Sequential: netid.Sequential{Server: 9, Epoch: 9, Local: 9}})
	require.Error(t, err)
	var lookupErr *wrapper.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, netid.KindUser, lookupErr.Kind)
}

func TestMessageWrapperResolvesChannelTarget(t *testing.T) {
	n, uid, cid := seededNetwork(t)

	mid := netid.MessageId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 8}}
	_, err := n.Apply(event.Event{
		Id:        netid.EventId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 9}},
		Timestamp: time.Unix(1004, 0),
		Target:    mid,
		Details:   event.NewMessage{Source: uid, Destination: cid, Text: "hi", IsNotice: false},
	})
	require.NoError(t, err)

	m, err := wrapper.WrapMessage(n, mid)
	require.NoError(t, err)

	target, err := m.Target()
	require.NoError(t, err)
	require.NotNil(t, target.Channel)
	assert.Equal(t, cid, target.Channel.Id())
	assert.Nil(t, target.User)
}
