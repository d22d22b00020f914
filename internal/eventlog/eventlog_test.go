package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func remoteEvent(server netid.ServerId, epoch netid.EpochId, local netid.LocalSeq, deps clock.EventClock) event.Event {
	id := netid.EventId{Sequential: netid.Sequential{Server: server, Epoch: epoch, Local: local}}
	return event.Event{
		Id:      id,
		Clock:   deps,
		Target:  netid.UserId{Sequential: netid.Sequential{Server: server, Epoch: epoch, Local: local}},
		Details: event.UserQuit{Message: "bye"},
	}
}

func TestCreateAndAddOwnEvents(t *testing.T) {
	l := New(1, 1)
	uid := netid.UserId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 1}}

	ev := l.Create(uid, event.NewUser{Nickname: "alice"})
	result, admitted := l.Add(ev)

	assert.Equal(t, Admitted, result)
	require.Len(t, admitted, 1)
	assert.Equal(t, ev.Id, admitted[0].Id)

	// Re-adding the same event is a duplicate.
	result2, admitted2 := l.Add(ev)
	assert.Equal(t, Duplicate, result2)
	assert.Empty(t, admitted2)
}

func TestAddBuffersUnmetDependency(t *testing.T) {
	l := New(1, 1)

	depClock := clock.New()
	depClock.UpdateWithId(netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}})

	ev := remoteEvent(2, 1, 2, depClock)
	result, admitted := l.Add(ev)

	assert.Equal(t, Buffered, result)
	assert.Empty(t, admitted)
	assert.Equal(t, 1, l.PendingCount())
}

func TestAddDrainsPendingOnceDependencySatisfied(t *testing.T) {
	l := New(1, 1)

	dep := netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}}
	depClock := clock.New()
	depClock.UpdateWithId(dep)

	later := remoteEvent(2, 1, 2, depClock)
	result, admitted := l.Add(later)
	require.Equal(t, Buffered, result)
	require.Empty(t, admitted)

	first := event.Event{
		Id:      dep,
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}},
		Details: event.NewUser{Nickname: "bob"},
	}
	result2, admitted2 := l.Add(first)
	require.Equal(t, Admitted, result2)
	require.Len(t, admitted2, 2)
	assert.Equal(t, dep, admitted2[0].Id)
	assert.Equal(t, later.Id, admitted2[1].Id)
	assert.Equal(t, 0, l.PendingCount())
}

func TestMissing(t *testing.T) {
	l := New(1, 1)
	ev1 := l.Create(netid.UserId{}, event.NewUser{Nickname: "alice"})
	l.Add(ev1)
	ev2 := l.Create(netid.UserId{}, event.NewUser{Nickname: "bob"})
	l.Add(ev2)

	empty := clock.New()
	missing := l.Missing(empty)
	require.Len(t, missing, 2)

	partial := clock.New()
	partial.UpdateWithId(ev1.Id)
	missing2 := l.Missing(partial)
	require.Len(t, missing2, 1)
	assert.Equal(t, ev2.Id, missing2[0].Id)
}

func TestAddDropsEventFromSupersededEpoch(t *testing.T) {
	l := New(1, 1)

	newer := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Details: event.NewUser{Nickname: "alice"},
	}
	result, admitted := l.Add(newer)
	require.Equal(t, Admitted, result)
	require.Len(t, admitted, 1)

	stale := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 5}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 5}},
		Details: event.NewUser{Nickname: "bob"},
	}
	result2, admitted2 := l.Add(stale)
	assert.Equal(t, Stale, result2)
	assert.Empty(t, admitted2)
}

func TestAddDropsPendingFromSupersededEpochOnceLaterEpochSeen(t *testing.T) {
	l := New(1, 1)

	dep := netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}}
	depClock := clock.New()
	depClock.UpdateWithId(dep)
	stalePending := remoteEvent(2, 1, 2, depClock)
	result, _ := l.Add(stalePending)
	require.Equal(t, Buffered, result)
	require.Equal(t, 1, l.PendingCount())

	newer := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Details: event.NewUser{Nickname: "carol"},
	}
	result2, _ := l.Add(newer)
	require.Equal(t, Admitted, result2)

	assert.Equal(t, 0, l.PendingCount(), "the pending event from the superseded epoch should have been dropped")
}

func TestAddDropsEventFromQuitEpoch(t *testing.T) {
	l := New(1, 1)
	l.MarkEpochQuit(2, 1)

	late := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 1}},
		Details: event.NewUser{Nickname: "eve"},
	}
	result, admitted := l.Add(late)
	assert.Equal(t, Stale, result)
	assert.Empty(t, admitted)

	// A new incarnation of the same server, one epoch later, is unaffected.
	fresh := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 2, Local: 1}},
		Details: event.NewUser{Nickname: "eve"},
	}
	result2, admitted2 := l.Add(fresh)
	assert.Equal(t, Admitted, result2)
	assert.Len(t, admitted2, 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New(1, 1)
	ev1 := l.Create(netid.UserId{}, event.NewUser{Nickname: "alice"})
	l.Add(ev1)
	l.MarkEpochQuit(2, 3)

	data, err := l.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(data)
	require.NoError(t, err)

	assert.Equal(t, l.clock, restored.clock)
	assert.Equal(t, len(l.order), len(restored.order))

	// MarkEpochQuit's dead-epoch bookkeeping must survive the round trip too.
	stale := event.Event{
		Id:      netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 3, Local: 1}},
		Clock:   clock.New(),
		Target:  netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 3, Local: 1}},
		Details: event.NewUser{Nickname: "bob"},
	}
	staleResult, _ := restored.Add(stale)
	assert.Equal(t, Stale, staleResult)

	// The restored log should treat ev1 as already seen.
	result, _ := restored.Add(ev1)
	assert.Equal(t, Duplicate, result)
}
