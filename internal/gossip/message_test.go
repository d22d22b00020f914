package gossip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func sampleEvent() event.Event {
	id := netid.EventId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 1}}
	c := clock.New()
	c.UpdateWithId(id)
	return event.Event{
		Id:        id,
		Timestamp: time.Unix(100, 0).UTC(),
		Clock:     c,
		Target:    netid.ServerId(1),
		Details:   event.ServerPing{},
	}
}

func TestEncodeDecodeNewEvent(t *testing.T) {
	ev := sampleEvent()
	msg, err := Encode("c1", KindNewEvent, NewEventPayload{Event: ev})
	require.NoError(t, err)
	assert.Equal(t, KindNewEvent, msg.Kind)

	got, err := msg.DecodeNewEvent()
	require.NoError(t, err)
	assert.Equal(t, ev.Id, got.Event.Id)
	assert.IsType(t, event.ServerPing{}, got.Event.Details)
}

func TestEncodeDecodeBulkEvents(t *testing.T) {
	events := []event.Event{sampleEvent(), sampleEvent()}
	msg, err := Encode("", KindBulkEvents, BulkEventsPayload{Events: events})
	require.NoError(t, err)

	got, err := msg.DecodeBulkEvents()
	require.NoError(t, err)
	require.Len(t, got.Events, 2)
}

func TestEncodeDecodeSyncRequest(t *testing.T) {
	c := clock.New()
	c.UpdateWithId(netid.EventId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 5}})
	msg, err := Encode("", KindSyncRequest, SyncRequestPayload{Clock: c})
	require.NoError(t, err)

	got, err := msg.DecodeSyncRequest()
	require.NoError(t, err)
	v, ok := got.Clock.Get(netid.ServerId(2), netid.EpochId(1))
	require.True(t, ok)
	assert.Equal(t, netid.LocalSeq(5), v)
}

func TestEncodeDecodeDone(t *testing.T) {
	msg, err := Encode("", KindDone, DonePayload{})
	require.NoError(t, err)
	assert.Equal(t, KindDone, msg.Kind)

	_, err = msg.DecodeDone()
	require.NoError(t, err)
}

func TestEncodeDecodePingPong(t *testing.T) {
	now := time.Unix(500, 0).UTC()
	pingMsg, err := Encode("", KindPing, PingPayload{Server: 9, Timestamp: now})
	require.NoError(t, err)
	ping, err := pingMsg.DecodePing()
	require.NoError(t, err)
	assert.Equal(t, netid.ServerId(9), ping.Server)

	pongMsg, err := Encode("", KindPong, PongPayload{Server: 9, Timestamp: now})
	require.NoError(t, err)
	pong, err := pongMsg.DecodePong()
	require.NoError(t, err)
	assert.Equal(t, netid.ServerId(9), pong.Server)
}
