// Package eventlog implements EventLog, the per-server append log of
// Events plus the bookkeeping needed to admit remote events out of
// order and catch a replica up to a peer's clock.
package eventlog

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// EventLog holds every event this replica has admitted, in the order it
// admitted them (not necessarily creation order across servers), plus
// the per-(server, epoch) next-sequence counters this replica owns.
type EventLog struct {
	ownServer netid.ServerId
	ownEpoch  netid.EpochId
	nextLocal netid.LocalSeq

	clock   clock.EventClock
	events  map[netid.EventId]event.Event
	order   []netid.EventId
	pending map[netid.EventId]event.Event

	// epochs holds, per ServerId, the highest EpochId this log has ever
	// admitted an event from. An incoming event whose epoch is strictly
	// older than the entry already recorded here originates from an
	// incarnation that a restart has already superseded, and is
	// discarded rather than buffered: there is no dependency it could
	// ever become satisfied by, since that server's old incarnation will
	// never emit another event.
	epochs map[netid.ServerId]netid.EpochId

	// deadEpochs holds, per ServerId, the highest EpochId known to have
	// quit (via MarkEpochQuit). An event carrying that epoch or an older
	// one for the same server is discarded on arrival, per the
	// server-quit-races-new-events policy: unlike epochs, this catches
	// an event from the very incarnation that just quit, not only a
	// superseded older one.
	deadEpochs map[netid.ServerId]netid.EpochId
}

// New creates an empty EventLog for the given server identity.
func New(server netid.ServerId, epoch netid.EpochId) *EventLog {
	return &EventLog{
		ownServer:  server,
		ownEpoch:   epoch,
		nextLocal:  1,
		clock:      clock.New(),
		events:     make(map[netid.EventId]event.Event),
		pending:    make(map[netid.EventId]event.Event),
		epochs:     map[netid.ServerId]netid.EpochId{server: epoch},
		deadEpochs: make(map[netid.ServerId]netid.EpochId),
	}
}

// MarkEpochQuit records that server's given epoch has quit (voluntarily
// or via a pingout-triggered ServerQuit). Subsequent calls to Add
// discard, rather than admit or buffer, any event still carrying that
// epoch or an older one for the same server.
func (l *EventLog) MarkEpochQuit(server netid.ServerId, epoch netid.EpochId) {
	if cur, ok := l.deadEpochs[server]; !ok || epoch > cur {
		l.deadEpochs[server] = epoch
	}
}

// Clock returns a copy of the log's current dependency clock.
func (l *EventLog) Clock() clock.EventClock { return l.clock.Clone() }

// NextLocalSeq reports the Local value Create will assign to the next
// event this replica originates, without allocating it. Node uses this
// once at startup to seed its entity id generator past every Local value
// this log has ever handed out for this server's (server, epoch) stream.
func (l *EventLog) NextLocalSeq() netid.LocalSeq { return l.nextLocal }

// Create allocates a new Event owned by this replica: a fresh EventId in
// this replica's own (server, epoch) stream, stamped with the current
// clock as its dependency set, carrying the given target and details. It
// does not add the event to the log; callers pass the result to Add.
func (l *EventLog) Create(target netid.ObjectId, details event.EventDetails) event.Event {
	id := netid.EventId{Sequential: netid.Sequential{Server: l.ownServer, Epoch: l.ownEpoch, Local: l.nextLocal}}
	l.nextLocal++
	return event.Event{
		Id:        id,
		Timestamp: time.Now().UTC(),
		Clock:     l.clock.Clone(),
		Target:    target,
		Details:   details,
	}
}

// ApplyResult reports what Add did with an incoming event.
type ApplyResult int

const (
	// Admitted means the event was new and is now part of the log.
	Admitted ApplyResult = iota
	// Duplicate means the log already held this event or a later one
	// from the same (server, epoch); Add is a no-op.
	Duplicate
	// Buffered means the event's dependency clock is not yet satisfied;
	// it is held in the pending set until Add admits its prerequisites.
	Buffered
	// Stale means the event's (server, epoch) has already been
	// superseded by a later epoch this log has seen from that server, or
	// was marked quit via MarkEpochQuit; Add drops it rather than
	// buffering it.
	Stale
)

// Add admits ev into the log if it is new and its dependencies are
// satisfied, buffers it if a dependency is missing, or reports it as a
// duplicate. Admitting an event may transitively admit previously
// buffered events whose dependencies it completes; newly admitted is
// returned in dependency order, ready to feed to the state machine's
// Apply in order.
func (l *EventLog) Add(ev event.Event) (ApplyResult, []event.Event) {
	if l.clock.Contains(ev.Id) {
		return Duplicate, nil
	}
	if _, ok := l.pending[ev.Id]; ok {
		return Duplicate, nil
	}
	if dead, ok := l.deadEpochs[ev.Id.Server]; ok && ev.Id.Epoch <= dead {
		return Stale, nil
	}
	if highest, ok := l.epochs[ev.Id.Server]; ok && ev.Id.Epoch < highest {
		return Stale, nil
	}
	if !ev.Clock.LessEq(l.clock) {
		l.pending[ev.Id] = ev
		return Buffered, nil
	}

	admitted := l.admit(ev)
	return Admitted, admitted
}

// admit adds ev to the log and drains any pending events whose
// dependencies are now satisfied, repeating until a fixed point.
func (l *EventLog) admit(ev event.Event) []event.Event {
	var admitted []event.Event
	l.insert(ev)
	admitted = append(admitted, ev)

	progress := true
	for progress {
		progress = false
		for id, p := range l.pending {
			if p.Clock.LessEq(l.clock) {
				delete(l.pending, id)
				l.insert(p)
				admitted = append(admitted, p)
				progress = true
			}
		}
	}
	return admitted
}

func (l *EventLog) insert(ev event.Event) {
	l.events[ev.Id] = ev
	l.order = append(l.order, ev.Id)
	l.clock.UpdateWithId(ev.Id)

	if cur, ok := l.epochs[ev.Id.Server]; !ok || ev.Id.Epoch > cur {
		l.epochs[ev.Id.Server] = ev.Id.Epoch
		// A new incarnation of this server supersedes any event still
		// waiting in pending from an older one; it will never have its
		// dependencies satisfied now, so drop it instead of holding it
		// forever.
		for id, p := range l.pending {
			if id.Server == ev.Id.Server && id.Epoch < ev.Id.Epoch {
				delete(l.pending, id)
			}
		}
	}
}

// Missing returns every event this log holds that remote does not,
// sorted into an order safe to replay (each event's dependencies precede
// it), suitable for answering a peer's SyncRequest.
func (l *EventLog) Missing(remote clock.EventClock) []event.Event {
	var out []event.Event
	for _, id := range l.order {
		if !remote.Contains(id) {
			out = append(out, l.events[id])
		}
	}
	return out
}

// PendingCount reports how many events are buffered awaiting
// dependencies, used by diagnostics and the sync-gap-timeout check.
func (l *EventLog) PendingCount() int { return len(l.pending) }

// epochEntry is one (server, highest-epoch-seen) pair in the
// snapshot's epochs list; map iteration order is not stable, so the
// list is sorted before encoding to keep the snapshot byte-reproducible.
type epochEntry struct {
	Server netid.ServerId `json:"server"`
	Epoch  netid.EpochId  `json:"epoch"`
}

// snapshot is the JSON-serializable point-in-time form of an EventLog.
type snapshot struct {
	OwnServer  netid.ServerId   `json:"own_server"`
	OwnEpoch   netid.EpochId    `json:"own_epoch"`
	NextLocal  netid.LocalSeq   `json:"next_local"`
	Clock      clock.EventClock `json:"clock"`
	Events     []event.Event    `json:"events"`
	Pending    []event.Event    `json:"pending"`
	Epochs     []epochEntry     `json:"epochs"`
	DeadEpochs []epochEntry     `json:"dead_epochs"`
}

// Snapshot encodes the full state of the log as JSON.
func (l *EventLog) Snapshot() ([]byte, error) {
	events := make([]event.Event, 0, len(l.order))
	for _, id := range l.order {
		events = append(events, l.events[id])
	}
	pending := make([]event.Event, 0, len(l.pending))
	for _, ev := range l.pending {
		pending = append(pending, ev)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Id.String() < pending[j].Id.String()
	})
	epochs := make([]epochEntry, 0, len(l.epochs))
	for server, epoch := range l.epochs {
		epochs = append(epochs, epochEntry{Server: server, Epoch: epoch})
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i].Server < epochs[j].Server })
	deadEpochs := make([]epochEntry, 0, len(l.deadEpochs))
	for server, epoch := range l.deadEpochs {
		deadEpochs = append(deadEpochs, epochEntry{Server: server, Epoch: epoch})
	}
	sort.Slice(deadEpochs, func(i, j int) bool { return deadEpochs[i].Server < deadEpochs[j].Server })

	s := snapshot{
		OwnServer:  l.ownServer,
		OwnEpoch:   l.ownEpoch,
		NextLocal:  l.nextLocal,
		Clock:      l.clock,
		Events:     events,
		Pending:    pending,
		Epochs:     epochs,
		DeadEpochs: deadEpochs,
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("eventlog: marshal snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the log's entire state with the snapshot encoded in
// data, as produced by Snapshot.
func Restore(data []byte) (*EventLog, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("eventlog: decode snapshot: %w", err)
	}
	l := &EventLog{
		ownServer:  s.OwnServer,
		ownEpoch:   s.OwnEpoch,
		nextLocal:  s.NextLocal,
		clock:      s.Clock,
		events:     make(map[netid.EventId]event.Event, len(s.Events)),
		pending:    make(map[netid.EventId]event.Event, len(s.Pending)),
		epochs:     make(map[netid.ServerId]netid.EpochId, len(s.Epochs)+1),
		deadEpochs: make(map[netid.ServerId]netid.EpochId, len(s.DeadEpochs)),
	}
	for _, ev := range s.Events {
		l.events[ev.Id] = ev
		l.order = append(l.order, ev.Id)
	}
	for _, ev := range s.Pending {
		l.pending[ev.Id] = ev
	}
	for _, e := range s.Epochs {
		l.epochs[e.Server] = e.Epoch
	}
	for _, e := range s.DeadEpochs {
		l.deadEpochs[e.Server] = e.Epoch
	}
	if cur, ok := l.epochs[l.ownServer]; !ok || l.ownEpoch > cur {
		l.epochs[l.ownServer] = l.ownEpoch
	}
	return l, nil
}
