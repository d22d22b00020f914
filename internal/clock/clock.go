// Package clock implements EventClock, the vector clock that induces a
// partial order over events originating at different servers.
package clock

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

type originator struct {
	Server netid.ServerId
	Epoch  netid.EpochId
}

// EventClock maps (ServerId, EpochId) to the highest LocalSeq seen from
// that incarnation. It is the dependency set carried by every Event and
// the dedup/progress tracker held by the EventLog.
type EventClock struct {
	entries map[originator]netid.LocalSeq
}

// New returns an empty EventClock.
func New() EventClock {
	return EventClock{entries: make(map[originator]netid.LocalSeq)}
}

// Clone returns an independent copy of c.
func (c EventClock) Clone() EventClock {
	out := make(map[originator]netid.LocalSeq, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return EventClock{entries: out}
}

func (c *EventClock) ensureMap() {
	if c.entries == nil {
		c.entries = make(map[originator]netid.LocalSeq)
	}
}

// UpdateWithId raises the entry for (id.Server, id.Epoch) to
// max(current, id.Local), creating the entry if it is absent.
func (c *EventClock) UpdateWithId(id netid.EventId) {
	c.ensureMap()
	key := originator{Server: id.Server, Epoch: id.Epoch}
	if cur, ok := c.entries[key]; !ok || id.Local > cur {
		c.entries[key] = id.Local
	}
}

// Get returns the highest LocalSeq seen for (server, epoch), if any.
func (c EventClock) Get(server netid.ServerId, epoch netid.EpochId) (netid.LocalSeq, bool) {
	v, ok := c.entries[originator{Server: server, Epoch: epoch}]
	return v, ok
}

// Contains reports whether c has applied id or a later event from the
// same (server, epoch) — the "have we applied this or an ancestor?"
// predicate used both for deduplication and for dependency checks.
func (c EventClock) Contains(id netid.EventId) bool {
	v, ok := c.Get(id.Server, id.Epoch)
	return ok && v >= id.Local
}

// LessEq reports whether c <= other: every entry in c has a
// corresponding entry in other with a value >= c's.
func (c EventClock) LessEq(other EventClock) bool {
	for k, v := range c.entries {
		ov, ok := other.entries[k]
		if !ok || ov < v {
			return false
		}
	}
	return true
}

// Less reports whether c <= other and c != other.
func (c EventClock) Less(other EventClock) bool {
	return c.LessEq(other) && !c.Equal(other)
}

// Equal reports whether c and other carry exactly the same entries.
func (c EventClock) Equal(other EventClock) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for k, v := range c.entries {
		if ov, ok := other.entries[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Merge returns a new clock whose entry for every (server, epoch) is the
// max of c's and other's, used when admitting remote events or
// reconciling with a peer's advertised clock.
func (c EventClock) Merge(other EventClock) EventClock {
	out := c.Clone()
	out.ensureMap()
	for k, v := range other.entries {
		if cur, ok := out.entries[k]; !ok || v > cur {
			out.entries[k] = v
		}
	}
	return out
}

// Len reports the number of distinct (server, epoch) origins tracked.
func (c EventClock) Len() int { return len(c.entries) }

type wireEntry struct {
	Server netid.ServerId `json:"server"`
	Epoch  netid.EpochId  `json:"epoch"`
	Local  netid.LocalSeq `json:"local"`
}

// MarshalJSON encodes the clock as a sorted list of entries; Go map
// iteration order is not stable, and the wire format round-trip
// requirement (every replica must agree byte-for-byte to dedupe) demands
// a canonical encoding.
func (c EventClock) MarshalJSON() ([]byte, error) {
	entries := make([]wireEntry, 0, len(c.entries))
	for k, v := range c.entries {
		entries = append(entries, wireEntry{Server: k.Server, Epoch: k.Epoch, Local: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Server != entries[j].Server {
			return entries[i].Server < entries[j].Server
		}
		return entries[i].Epoch < entries[j].Epoch
	})
	return json.Marshal(entries)
}

// UnmarshalJSON decodes the canonical entry-list representation.
func (c *EventClock) UnmarshalJSON(data []byte) error {
	var entries []wireEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("clock: decode entries: %w", err)
	}
	c.entries = make(map[originator]netid.LocalSeq, len(entries))
	for _, e := range entries {
		c.entries[originator{Server: e.Server, Epoch: e.Epoch}] = e.Local
	}
	return nil
}
