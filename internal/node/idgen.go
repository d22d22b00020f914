package node

import (
	"sync/atomic"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// IdGenerator hands out the sequential ids a locally-submitted event
// needs for the objects it creates, e.g. the UModeId a NewUser event
// references before the event that creates it has even been built.
// Callers reach this concurrently from whatever goroutine is about to
// call Node.SubmitEvent, ahead of the single apply goroutine, so
// allocation is a plain atomic counter rather than something funneled
// through the log.
//
// Every Next* method draws from the same counter. Different id kinds
// are distinct Go types, so two of them sharing a numeric Local value
// can never be confused for one another; keeping one counter rather
// than one per kind keeps seeding after a snapshot restore simple.
type IdGenerator struct {
	server netid.ServerId
	epoch  netid.EpochId
	next   atomic.Int64
}

// NewIdGenerator builds a generator whose first allocation is seed+1. seed
// should be at or past every Local value this (server, epoch) has ever handed
// out, typically EventLog.NextLocalSeq() read once at Node construction.
func NewIdGenerator(server netid.ServerId, epoch netid.EpochId, seed netid.LocalSeq) *IdGenerator {
	g := &IdGenerator{server: server, epoch: epoch}
	g.next.Store(int64(seed))
	return g
}

func (g *IdGenerator) sequential() netid.Sequential {
	local := netid.LocalSeq(g.next.Add(1))
	return netid.Sequential{Server: g.server, Epoch: g.epoch, Local: local}
}

// NextUserId allocates the id for a user this replica is about to create.
func (g *IdGenerator) NextUserId() netid.UserId { return netid.UserId{Sequential: g.sequential()} }

// NextUModeId allocates the id for the UserMode owned by a new user.
func (g *IdGenerator) NextUModeId() netid.UModeId { return netid.UModeId{Sequential: g.sequential()} }

// NextChannelId allocates the id for a channel this replica is about to create.
func (g *IdGenerator) NextChannelId() netid.ChannelId {
	return netid.ChannelId{Sequential: g.sequential()}
}

// NextCModeId allocates the id for the ChannelMode owned by a new channel.
func (g *IdGenerator) NextCModeId() netid.CModeId { return netid.CModeId{Sequential: g.sequential()} }

// NextMessageId allocates the id for a new message.
func (g *IdGenerator) NextMessageId() netid.MessageId {
	return netid.MessageId{Sequential: g.sequential()}
}

// NextAuditLogEntryId allocates the id for a new audit log entry.
func (g *IdGenerator) NextAuditLogEntryId() netid.AuditLogEntryId {
	return netid.AuditLogEntryId{Sequential: g.sequential()}
}

// NextListModeId allocates the id for a new list-mode bucket on a channel.
func (g *IdGenerator) NextListModeId() netid.ListModeId {
	return netid.ListModeId{Sequential: g.sequential()}
}

// NextListModeEntryId allocates the id for a new entry within a list mode.
func (g *IdGenerator) NextListModeEntryId() netid.ListModeEntryId {
	return netid.ListModeEntryId{Sequential: g.sequential()}
}
