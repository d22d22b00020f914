package clock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func evID(server netid.ServerId, epoch netid.EpochId, local netid.LocalSeq) netid.EventId {
	return netid.EventId{Sequential: netid.Sequential{Server: server, Epoch: epoch, Local: local}}
}

func TestUpdateWithIdAndContains(t *testing.T) {
	c := New()
	id := evID(1, 1, 5)

	assert.False(t, c.Contains(id))

	c.UpdateWithId(id)
	assert.True(t, c.Contains(id))
	assert.True(t, c.Contains(evID(1, 1, 3)))
	assert.False(t, c.Contains(evID(1, 1, 6)))
	assert.False(t, c.Contains(evID(2, 1, 1)))
}

func TestUpdateWithIdKeepsMax(t *testing.T) {
	c := New()
	c.UpdateWithId(evID(1, 1, 5))
	c.UpdateWithId(evID(1, 1, 3))

	v, ok := c.Get(1, 1)
	require.True(t, ok)
	assert.Equal(t, netid.LocalSeq(5), v)
}

func TestLessEqAndEqual(t *testing.T) {
	a := New()
	a.UpdateWithId(evID(1, 1, 3))

	b := New()
	b.UpdateWithId(evID(1, 1, 3))
	b.UpdateWithId(evID(2, 1, 1))

	assert.True(t, a.LessEq(b))
	assert.True(t, a.Less(b))
	assert.False(t, b.LessEq(a))
	assert.False(t, a.Equal(b))

	c := a.Clone()
	assert.True(t, a.Equal(c))
}

func TestMerge(t *testing.T) {
	a := New()
	a.UpdateWithId(evID(1, 1, 5))

	b := New()
	b.UpdateWithId(evID(1, 1, 2))
	b.UpdateWithId(evID(2, 1, 9))

	m := a.Merge(b)
	v1, _ := m.Get(1, 1)
	v2, _ := m.Get(2, 1)
	assert.Equal(t, netid.LocalSeq(5), v1)
	assert.Equal(t, netid.LocalSeq(9), v2)
}

func TestJSONRoundTrip(t *testing.T) {
	c := New()
	c.UpdateWithId(evID(3, 2, 7))
	c.UpdateWithId(evID(1, 1, 4))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var out EventClock
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, c.Equal(out))
}

func TestEmptyClockLessEqAnything(t *testing.T) {
	empty := New()
	other := New()
	other.UpdateWithId(evID(1, 1, 1))

	assert.True(t, empty.LessEq(other))
}
