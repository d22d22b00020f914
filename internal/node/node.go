// Package node implements Node, the façade the IRC server process
// embeds: submit a local event, read the network, subscribe to derived
// changes, allocate ids for new objects, and shut down cleanly.
package node

import (
	"context"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/eventlog"
	"github.com/Libera-Chat/sable-sub002/internal/gossip"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
	"github.com/Libera-Chat/sable-sub002/internal/replog"
)

// Node is the single entrypoint the rest of the IRC server process
// depends on. It owns nothing directly; every method delegates to the
// ReplicatedEventLog that actually holds the Network and EventLog, or to
// the IdGenerator seeded alongside it.
type Node struct {
	self netid.ServerId
	log  *replog.ReplicatedEventLog
	ids  *IdGenerator
}

// New builds a Node around an already-constructed ReplicatedEventLog.
// eventLog is consulted once, for NextLocalSeq, to seed the id
// generator past every Local value this server's epoch has used.
func New(self netid.ServerId, epoch netid.EpochId, eventLog *eventlog.EventLog, rel *replog.ReplicatedEventLog) *Node {
	return &Node{
		self: self,
		log:  rel,
		ids:  NewIdGenerator(self, epoch, eventLog.NextLocalSeq()),
	}
}

// IdGenerator returns this replica's typed id allocator.
func (n *Node) IdGenerator() *IdGenerator { return n.ids }

// SubmitEvent is the local mutation entrypoint: it allocates nothing
// itself (callers that need an id for an object their details reference
// must call IdGenerator first), builds the Event via the log and applies
// it. It returns once the event is applied; the broadcast to peers
// follows on the apply goroutine.
func (n *Node) SubmitEvent(ctx context.Context, target netid.ObjectId, details event.EventDetails) (event.Event, error) {
	return n.log.SubmitEvent(ctx, target, details)
}

// Network calls fn with read-only access to the current Network. fn must
// not block: it runs under an RLock shared with every other reader, and
// blocks the single apply goroutine from making progress until it
// returns.
func (n *Node) Network(fn func(*netstate.Network)) {
	n.log.View(fn)
}

// SubscribeUpdates returns a channel of derived NetworkStateChange
// batches and an unsubscribe function. The channel is closed once
// unsubscribe runs; a slow subscriber has batches dropped for it rather
// than stalling the apply goroutine.
func (n *Node) SubscribeUpdates() (<-chan []netstate.NetworkStateChange, func()) {
	return n.log.Subscribe()
}

// Run drives the node's apply/inbound/ping/pingout/sync (and, when
// ObjectExpiry is set, expiry-sweep) loops until ctx is
// canceled or a fatal error occurs in one of them.
func (n *Node) Run(ctx context.Context) error {
	return n.log.Run(ctx)
}

// Shutdown stops the node cooperatively. Upgrade additionally persists a
// snapshot so the next process can resume without a full peer sync.
func (n *Node) Shutdown(action replog.ShutdownAction) error {
	return n.log.Shutdown(action)
}

// Gossip exposes the underlying GossipNetwork for callers (cmd/sabled)
// that need to Listen or Connect before calling Run.
func (n *Node) Gossip() *gossip.GossipNetwork {
	return n.log.GossipNetwork()
}
