package netstate

import (
	"sort"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// Read accessors. Every method here returns a value copy (or a slice of
// value copies): per the data model's ownership rule, a Network is the
// sole owner of its domain state, and anything handed to a caller is a
// transient view that must not let the caller mutate the original.

// User looks up a user by ID.
func (n *Network) User(id netid.UserId) (User, bool) {
	u, ok := n.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// UserByNick resolves a bound nickname to its owning UserId.
func (n *Network) UserByNick(nick netid.Nickname) (netid.UserId, bool) {
	id, ok := n.nicks[nick]
	return id, ok
}

// UserMode looks up a user's mode state by its UModeId.
func (n *Network) UserMode(id netid.UModeId) (UserModeState, bool) {
	m, ok := n.userModes[id]
	if !ok {
		return UserModeState{}, false
	}
	return *m, true
}

// Channel looks up a channel by ID.
func (n *Network) Channel(id netid.ChannelId) (Channel, bool) {
	c, ok := n.channels[id]
	if !ok {
		return Channel{}, false
	}
	return *c, true
}

// ChannelMode looks up a channel's mode state by its CModeId.
func (n *Network) ChannelMode(id netid.CModeId) (ChannelModeState, bool) {
	m, ok := n.channelModes[id]
	if !ok {
		return ChannelModeState{}, false
	}
	return *m, true
}

// Membership looks up a membership by its (user, channel) pair.
func (n *Network) Membership(id netid.MembershipId) (Membership, bool) {
	m, ok := n.memberships[id]
	if !ok {
		return Membership{}, false
	}
	return *m, true
}

// ChannelMembers returns the UserIds currently joined to a channel,
// sorted for deterministic iteration.
func (n *Network) ChannelMembers(id netid.ChannelId) []netid.UserId {
	members := n.channelMember[id]
	out := make([]netid.UserId, 0, len(members))
	for uid := range members {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ListMode looks up a channel's ban/quiet/except/invex bucket. The
// returned value's Entries map is a shallow copy safe for the caller to
// range over.
func (n *Network) ListMode(id netid.ListModeId) (ListMode, bool) {
	lm, ok := n.listModes[id]
	if !ok {
		return ListMode{}, false
	}
	cp := *lm
	cp.Entries = make(map[netid.ListModeEntryId]*ListModeEntry, len(lm.Entries))
	for k, v := range lm.Entries {
		e := *v
		cp.Entries[k] = &e
	}
	return cp, true
}

// Message looks up one recorded message by ID.
func (n *Network) Message(id netid.MessageId) (Message, bool) {
	m, ok := n.messages[id]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// Server looks up a peer by ServerId.
func (n *Network) Server(id netid.ServerId) (Server, bool) {
	s, ok := n.servers[id]
	if !ok {
		return Server{}, false
	}
	return *s, true
}

// Config returns the current network-wide configuration document.
func (n *Network) Config() NetworkConfig {
	return *n.config
}

// Users returns every connected user, sorted by ID for deterministic
// iteration (e.g. snapshot encoding, diagnostics).
func (n *Network) Users() []User {
	out := make([]User, 0, len(n.users))
	for _, u := range n.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.String() < out[j].Id.String() })
	return out
}

// Channels returns every channel, sorted by ID.
func (n *Network) Channels() []Channel {
	out := make([]Channel, 0, len(n.channels))
	for _, c := range n.channels {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.String() < out[j].Id.String() })
	return out
}

// Memberships returns every membership, sorted by ID.
func (n *Network) Memberships() []Membership {
	out := make([]Membership, 0, len(n.memberships))
	for _, m := range n.memberships {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.String() < out[j].Id.String() })
	return out
}

// Servers returns every known peer (including ones that have quit but
// not yet been pruned), sorted by ServerId. The replication orchestrator
// uses this to find servers whose LastPing has gone stale.
func (n *Network) Servers() []Server {
	out := make([]Server, 0, len(n.servers))
	for _, s := range n.servers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Messages returns the bounded recent-message window in insertion order.
func (n *Network) Messages() []Message {
	out := make([]Message, 0, len(n.messageOrder))
	for _, mid := range n.messageOrder {
		if m, ok := n.messages[mid]; ok {
			out = append(out, *m)
		}
	}
	return out
}

// AuditLog returns the audit trail in append order.
func (n *Network) AuditLog() []AuditLogEntry {
	out := make([]AuditLogEntry, 0, len(n.auditLogOrder))
	for _, aid := range n.auditLogOrder {
		if e, ok := n.auditLog[aid]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// ListModes returns every list-mode bucket, sorted by ID.
func (n *Network) ListModes() []ListMode {
	out := make([]ListMode, 0, len(n.listModes))
	for id := range n.listModes {
		lm, _ := n.ListMode(id)
		out = append(out, lm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.String() < out[j].Id.String() })
	return out
}
