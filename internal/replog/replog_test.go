package replog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/eventlog"
	"github.com/Libera-Chat/sable-sub002/internal/gossip"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
)

func newTestNode(t *testing.T, server netid.ServerId, epoch netid.EpochId) *ReplicatedEventLog {
	t.Helper()
	gossipNet := gossip.NewGossipNetwork(server, nil)
	r := New(server, DefaultConfig(), netstate.New(nil), eventlog.New(server, epoch), gossipNet, nil, false, nil)
	return r
}

func runNode(t *testing.T, ctx context.Context, r *ReplicatedEventLog) {
	t.Helper()
	go func() {
		_ = r.Run(ctx)
	}()
}

func TestSubmitEventAppliesLocallyAndNotifies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestNode(t, 1, 1)
	runNode(t, ctx, r)

	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()

	uid := netid.UserId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 1}}
	modeId := netid.UModeId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 2}}
	_, err := r.SubmitEvent(ctx, uid, event.NewUser{
		Nickname: netid.Nickname("alice"),
		ModeId:   modeId,
		Server:   1,
	})
	require.NoError(t, err)

	select {
	case changes := <-updates:
		require.Len(t, changes, 1)
		added, ok := changes[0].(netstate.UserAdded)
		require.True(t, ok)
		assert.Equal(t, uid, added.User.Id)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for NetworkStateChange")
	}

	var found bool
	r.View(func(n *netstate.Network) {
		_, found = n.User(uid)
	})
	assert.True(t, found)
}

// TestDependencyBuffering mirrors spec.md §8 scenario 2: a ChannelJoin
// whose clock depends on a NewUser and a NewChannel neither of which
// have arrived yet is buffered, and applies once both parents do; here
// the join arrives first and the parents follow in one batch.
func TestDependencyBuffering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestNode(t, 1, 1)
	runNode(t, ctx, r)

	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()

	remoteServer := netid.ServerId(2)
	uid := netid.UserId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 1}}
	modeId := netid.UModeId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 2}}
	cid := netid.ChannelId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 3}}
	cmodeId := netid.CModeId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 4}}
	memId := netid.MembershipId{User: uid, Channel: cid}

	newUserEv := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 1}},
		Clock:   clock.New(),
		Target:  uid,
		Details: event.NewUser{Nickname: netid.Nickname("bob"), ModeId: modeId, Server: remoteServer},
	}
	newUserClock := clock.New()
	newUserClock.UpdateWithId(newUserEv.Id)

	newChanEv := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 2}},
		Clock:   newUserClock,
		Target:  cid,
		Details: event.NewChannel{Name: netid.ChannelName("#test"), ModeId: cmodeId, Created: time.Now()},
	}
	newChanClock := newUserClock.Clone()
	newChanClock.UpdateWithId(newChanEv.Id)

	joinEv := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: remoteServer, Epoch: 1, Local: 3}},
		Clock:   newChanClock,
		Target:  memId,
		Details: event.ChannelJoin{},
	}

	// Deliver the join first: its dependencies are unmet, so it is
	// buffered and produces no notification.
	r.deliverRemote(ctx, []event.Event{joinEv})
	time.Sleep(50 * time.Millisecond)
	select {
	case changes := <-updates:
		t.Fatalf("expected no notification yet, got %v", changes)
	default:
	}

	var pending int
	r.netMu.RLock()
	pending = r.log.PendingCount()
	r.netMu.RUnlock()
	assert.Equal(t, 1, pending)

	// Deliver both parents, in order; admitting NewChannel should drain
	// the buffered join too.
	r.deliverRemote(ctx, []event.Event{newUserEv, newChanEv})

	seen := map[string]bool{}
	deadline := time.After(time.Second)
	for len(seen) < 3 {
		select {
		case changes := <-updates:
			for _, c := range changes {
				switch c.(type) {
				case netstate.UserAdded:
					seen["user"] = true
				case netstate.ChannelAdded:
					seen["channel"] = true
				case netstate.MembershipAdded:
					seen["join"] = true
				default:
					seen["other"] = true
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for admitted events, saw %v", seen)
		}
	}

	r.netMu.RLock()
	pending = r.log.PendingCount()
	r.netMu.RUnlock()
	assert.Equal(t, 0, pending)
}

func TestCheckPingoutsSubmitsServerQuitForStalePeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestNode(t, 1, 1)
	r.cfg.PingoutDuration = time.Millisecond
	runNode(t, ctx, r)

	// A NewServer whose Joined (and so initial LastPing) is already
	// older than PingoutDuration looks stale to checkPingouts without
	// needing to wait out a real ping interval.
	_, err := r.SubmitEvent(ctx, netid.ServerId(2), event.NewServer{
		Name: "b", Epoch: 1, Joined: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	r.checkPingouts(ctx)

	require.Eventually(t, func() bool {
		var quit bool
		r.View(func(n *netstate.Network) {
			if srv, ok := n.Server(netid.ServerId(2)); ok {
				quit = srv.Quit
			}
		})
		return quit
	}, time.Second, 10*time.Millisecond)
}
