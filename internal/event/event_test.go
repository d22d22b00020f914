package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func sampleClock() clock.EventClock {
	c := clock.New()
	c.UpdateWithId(netid.EventId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 4}})
	return c
}

func TestEventRoundTripNewUser(t *testing.T) {
	uid := netid.UserId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 5}}
	ev := Event{
		Id:        netid.EventId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 6}},
		Timestamp: time.Unix(1000, 0).UTC(),
		Clock:     sampleClock(),
		Target:    uid,
		Details: NewUser{
			Nickname: "alice",
			Username: "alice",
			Visible:  "host.example.com",
			ModeId:   netid.UModeId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 7}},
			Server:   1,
		},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var out Event
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, ev.Id, out.Id)
	assert.True(t, ev.Timestamp.Equal(out.Timestamp))
	assert.True(t, ev.Clock.Equal(out.Clock))
	assert.Equal(t, ev.Target, out.Target)

	got, ok := out.Details.(NewUser)
	require.True(t, ok)
	assert.Equal(t, netid.Nickname("alice"), got.Nickname)
}

func TestEventRoundTripChannelModeChange(t *testing.T) {
	cmid := netid.CModeId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 9}}
	uid := netid.UserId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 5}}

	details := ChannelModeChange{
		Added:       modes.ChannelModeSet(0).Set(modes.ChannelModeSecret),
		MemberAdded: []MemberFlagChange{{User: uid, Flags: modes.MembershipFlagSet(0).Set(modes.MembershipOp)}},
	}

	ev := Event{
		Id:        netid.EventId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 10}},
		Timestamp: time.Now().UTC(),
		Clock:     sampleClock(),
		Target:    cmid,
		Details:   details,
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var out Event
	require.NoError(t, json.Unmarshal(data, &out))

	got, ok := out.Details.(ChannelModeChange)
	require.True(t, ok)
	assert.True(t, got.Added.IsSet(modes.ChannelModeSecret))
	require.Len(t, got.MemberAdded, 1)
	assert.Equal(t, uid, got.MemberAdded[0].User)
	assert.True(t, got.MemberAdded[0].Flags.IsSet(modes.MembershipOp))
}

func TestEventRoundTripNewMessageToChannel(t *testing.T) {
	chid := netid.ChannelId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 2}}
	uid := netid.UserId{Sequential: netid.Sequential{Server: 1, Epoch: 1, Local: 5}}

	msg := NewMessage{Source: uid, Destination: chid, Text: "hello", IsNotice: false}

	data, err := MarshalEventDetails(msg)
	require.NoError(t, err)

	decoded, err := UnmarshalEventDetails(data)
	require.NoError(t, err)

	got, ok := decoded.(NewMessage)
	require.True(t, ok)
	assert.Equal(t, uid, got.Source)
	assert.Equal(t, netid.ObjectId(chid), got.Destination)
	assert.Equal(t, "hello", got.Text)
}

func TestEventRoundTripNewAuditLogEntryNoActor(t *testing.T) {
	entry := NewAuditLogEntry{Category: "oper", Message: "no actor"}

	data, err := MarshalEventDetails(entry)
	require.NoError(t, err)

	decoded, err := UnmarshalEventDetails(data)
	require.NoError(t, err)

	got, ok := decoded.(NewAuditLogEntry)
	require.True(t, ok)
	assert.Nil(t, got.Actor)
	assert.Equal(t, "oper", got.Category)
}

func TestEventRoundTripNewAuditLogEntryWithActor(t *testing.T) {
	uid := netid.UserId{Sequential: netid.Sequential{Server: 2, Epoch: 1, Local: 3}}
	entry := NewAuditLogEntry{Category: "kline", Actor: uid, Message: "banned host"}

	data, err := MarshalEventDetails(entry)
	require.NoError(t, err)

	decoded, err := UnmarshalEventDetails(data)
	require.NoError(t, err)

	got, ok := decoded.(NewAuditLogEntry)
	require.True(t, ok)
	assert.Equal(t, netid.ObjectId(uid), got.Actor)
}

func TestUnmarshalEventDetailsUnknownKind(t *testing.T) {
	_, err := UnmarshalEventDetails([]byte(`{"kind":"NotARealKind","data":{}}`))
	require.Error(t, err)
}

func TestAllVariantsTargetKinds(t *testing.T) {
	cases := []struct {
		details EventDetails
		want    netid.ObjectKind
	}{
		{NewUser{}, netid.KindUser},
		{UserNickChange{}, netid.KindUser},
		{UserModeChange{}, netid.KindUserMode},
		{UserQuit{}, netid.KindUser},
		{OperUp{}, netid.KindUser},
		{NewChannel{}, netid.KindChannel},
		{ChannelJoin{}, netid.KindMembership},
		{ChannelPart{}, netid.KindMembership},
		{ChannelKick{}, netid.KindMembership},
		{ChannelModeChange{}, netid.KindChannelMode},
		{ChannelTopic{}, netid.KindChannel},
		{ListModeAdd{}, netid.KindListMode},
		{ListModeRemove{}, netid.KindListMode},
		{NewMessage{}, netid.KindMessage},
		{NewServer{}, netid.KindServer},
		{ServerPing{}, netid.KindServer},
		{ServerQuit{}, netid.KindServer},
		{LoadConfig{}, netid.KindServer},
		{NewAuditLogEntry{}, netid.KindAuditLogEntry},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.details.TargetKind())
	}
}
