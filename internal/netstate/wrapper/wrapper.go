// Package wrapper provides read-only, relational views over a
// netstate.Network: small objects that pair one piece of state (a user, a
// channel, a membership...) with the Network it came from, so callers can
// walk from one object to the objects it references (a Membership to its
// User and Channel, a Server to the Users currently on it) without
// threading the Network through every call site by hand.
//
// A wrapper never owns the state it exposes — it holds a value copy
// handed back by one of Network's accessors plus a reference to the
// Network itself, and every relational method re-queries the Network
// rather than caching a stale view. Nothing here mutates a Network.
package wrapper

import (
	"fmt"

	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
)

// LookupError reports that a wrapper's relational lookup found nothing —
// typically because the referenced object was concurrently removed.
type LookupError struct {
	Kind netid.ObjectKind
	Id   netid.ObjectId
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("wrapper: no %s with id %v", e.Kind, e.Id)
}

// User wraps a netstate.User.
type User struct {
	network *netstate.Network
	data    netstate.User
}

// WrapUser looks up id and returns its wrapper.
func WrapUser(n *netstate.Network, id netid.UserId) (User, error) {
	u, ok := n.User(id)
	if !ok {
		return User{}, &LookupError{Kind: netid.KindUser, Id: id}
	}
	return User{network: n, data: u}, nil
}

func (u User) Id() netid.UserId            { return u.data.Id }
func (u User) Nickname() netid.Nickname    { return u.data.Nickname }
func (u User) Username() netid.Username    { return u.data.Username }
func (u User) Hostname() netid.Hostname    { return u.data.Visible }
func (u User) Underlying() netstate.User   { return u.data }

// Mode returns the wrapper for this user's mode state.
func (u User) Mode() (UserMode, error) {
	m, ok := u.network.UserMode(u.data.ModeId)
	if !ok {
		return UserMode{}, &LookupError{Kind: netid.KindUserMode, Id: u.data.ModeId}
	}
	return UserMode{network: u.network, data: m}, nil
}

// Server returns the wrapper for the server this user is connected to.
func (u User) Server() (Server, error) {
	return WrapServer(u.network, u.data.Server)
}

// Memberships returns this user's channel memberships, sorted by channel
// ID for deterministic output.
func (u User) Memberships() []Membership {
	var out []Membership
	for _, m := range u.network.Memberships() {
		if m.Id.User == u.data.Id {
			out = append(out, Membership{network: u.network, data: m})
		}
	}
	return out
}

// UserMode wraps a netstate.UserModeState.
type UserMode struct {
	network *netstate.Network
	data    netstate.UserModeState
}

func (m UserMode) Id() netid.UModeId { return m.data.Id }

// User returns the user this mode state belongs to.
func (m UserMode) User() (User, error) {
	return WrapUser(m.network, m.data.Owner)
}

// HasMode reports whether flag f is set.
func (m UserMode) HasMode(f modes.UserModeFlag) bool { return m.data.Flags.IsSet(f) }

// Format renders the mode set for client-protocol or log output, e.g. "+io".
func (m UserMode) Format() string { return "+" + m.data.Flags.ToChars() }

// Channel wraps a netstate.Channel.
type Channel struct {
	network *netstate.Network
	data    netstate.Channel
}

// WrapChannel looks up id and returns its wrapper.
func WrapChannel(n *netstate.Network, id netid.ChannelId) (Channel, error) {
	c, ok := n.Channel(id)
	if !ok {
		return Channel{}, &LookupError{Kind: netid.KindChannel, Id: id}
	}
	return Channel{network: n, data: c}, nil
}

func (c Channel) Id() netid.ChannelId          { return c.data.Id }
func (c Channel) Name() netid.ChannelName      { return c.data.Name }
func (c Channel) Topic() string                { return c.data.Topic }
func (c Channel) Underlying() netstate.Channel { return c.data }

// Mode returns the wrapper for this channel's mode state.
func (c Channel) Mode() (ChannelMode, error) {
	m, ok := c.network.ChannelMode(c.data.ModeId)
	if !ok {
		return ChannelMode{}, &LookupError{Kind: netid.KindChannelMode, Id: c.data.ModeId}
	}
	return ChannelMode{network: c.network, data: m}, nil
}

// Members returns the wrappers for every user currently joined.
func (c Channel) Members() []Membership {
	var out []Membership
	for _, uid := range c.network.ChannelMembers(c.data.Id) {
		mid := netid.MembershipId{User: uid, Channel: c.data.Id}
		if m, ok := c.network.Membership(mid); ok {
			out = append(out, Membership{network: c.network, data: m})
		}
	}
	return out
}

// ListMode returns the wrapper for one of this channel's ban/quiet/except
// /invex buckets, by its ListModeId.
func (c Channel) ListMode(id netid.ListModeId) (ListMode, error) {
	return WrapListMode(c.network, id)
}

// ChannelMode wraps a netstate.ChannelModeState.
type ChannelMode struct {
	network *netstate.Network
	data    netstate.ChannelModeState
}

func (m ChannelMode) Id() netid.CModeId { return m.data.Id }

// Channel returns the channel this mode state belongs to.
func (m ChannelMode) Channel() (Channel, error) {
	return WrapChannel(m.network, m.data.Owner)
}

func (m ChannelMode) HasMode(f modes.ChannelModeFlag) bool { return m.data.Flags.IsSet(f) }
func (m ChannelMode) Format() string                       { return "+" + m.data.Flags.ToChars() }

// Membership wraps a netstate.Membership.
type Membership struct {
	network *netstate.Network
	data    netstate.Membership
}

// WrapMembership looks up id and returns its wrapper.
func WrapMembership(n *netstate.Network, id netid.MembershipId) (Membership, error) {
	m, ok := n.Membership(id)
	if !ok {
		return Membership{}, &LookupError{Kind: netid.KindMembership, Id: id}
	}
	return Membership{network: n, data: m}, nil
}

func (m Membership) Id() netid.MembershipId { return m.data.Id }

// User returns the member.
func (m Membership) User() (User, error) { return WrapUser(m.network, m.data.Id.User) }

// Channel returns the channel membership applies to.
func (m Membership) Channel() (Channel, error) { return WrapChannel(m.network, m.data.Id.Channel) }

// Flags returns the member's privilege bits (op, voice).
func (m Membership) Flags() modes.MembershipFlagSet { return m.data.Flags }

// HighestPrefix returns the member's highest-privilege nick prefix, or 0.
func (m Membership) HighestPrefix() byte { return m.data.Flags.HighestPrefix() }

// Server wraps a netstate.Server.
type Server struct {
	network *netstate.Network
	data    netstate.Server
}

// WrapServer looks up id and returns its wrapper.
func WrapServer(n *netstate.Network, id netid.ServerId) (Server, error) {
	s, ok := n.Server(id)
	if !ok {
		return Server{}, &LookupError{Kind: netid.KindServer, Id: id}
	}
	return Server{network: n, data: s}, nil
}

func (s Server) Id() netid.ServerId   { return s.data.Id }
func (s Server) Name() string         { return s.data.Name }
func (s Server) Epoch() netid.EpochId { return s.data.Epoch }
func (s Server) Quit() bool           { return s.data.Quit }

// Users returns every user currently connected to this server.
func (s Server) Users() []User {
	var out []User
	for _, u := range s.network.Users() {
		if u.Server == s.data.Id {
			out = append(out, User{network: s.network, data: u})
		}
	}
	return out
}

// ListMode wraps a netstate.ListMode.
type ListMode struct {
	network *netstate.Network
	data    netstate.ListMode
}

// WrapListMode looks up id and returns its wrapper.
func WrapListMode(n *netstate.Network, id netid.ListModeId) (ListMode, error) {
	lm, ok := n.ListMode(id)
	if !ok {
		return ListMode{}, &LookupError{Kind: netid.KindListMode, Id: id}
	}
	return ListMode{network: n, data: lm}, nil
}

func (l ListMode) Id() netid.ListModeId       { return l.data.Id }
func (l ListMode) Type() modes.ListModeType   { return l.data.Type }

// Channel returns the channel this list belongs to.
func (l ListMode) Channel() (Channel, error) { return WrapChannel(l.network, l.data.Channel) }

// Entries returns the wrappers for every entry in the list, sorted by
// entry ID for deterministic output.
func (l ListMode) Entries() []ListModeEntry {
	out := make([]ListModeEntry, 0, len(l.data.Entries))
	for _, e := range l.data.Entries {
		out = append(out, ListModeEntry{network: l.network, list: l.data.Id, data: *e})
	}
	sortEntries(out)
	return out
}

// ListModeEntry wraps a netstate.ListModeEntry.
type ListModeEntry struct {
	network *netstate.Network
	list    netid.ListModeId
	data    netstate.ListModeEntry
}

func (e ListModeEntry) Id() netid.ListModeEntryId { return e.data.Id }
func (e ListModeEntry) Pattern() netid.Pattern     { return e.data.Pattern }
func (e ListModeEntry) SetBy() string              { return e.data.SetBy }

// List returns the list this entry belongs to.
func (e ListModeEntry) List() (ListMode, error) { return WrapListMode(e.network, e.list) }

func sortEntries(entries []ListModeEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].data.Id.String() < entries[j-1].data.Id.String(); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// MessageTarget is the destination of a Message: either a User or a
// Channel, mirroring the two ObjectId kinds NewMessage's Destination may
// carry.
type MessageTarget struct {
	User    *User
	Channel *Channel
}

// Message wraps a netstate.Message.
type Message struct {
	network *netstate.Network
	data    netstate.Message
}

// WrapMessage looks up id and returns its wrapper.
func WrapMessage(n *netstate.Network, id netid.MessageId) (Message, error) {
	m, ok := n.Message(id)
	if !ok {
		return Message{}, &LookupError{Kind: netid.KindMessage, Id: id}
	}
	return Message{network: n, data: m}, nil
}

func (m Message) Id() netid.MessageId { return m.data.Id }
func (m Message) Text() string        { return m.data.Text }
func (m Message) IsNotice() bool      { return m.data.IsNotice }

// Source returns the sending user.
func (m Message) Source() (User, error) { return WrapUser(m.network, m.data.Source) }

// Target resolves this message's destination to either a User or a
// Channel wrapper.
func (m Message) Target() (MessageTarget, error) {
	switch id := m.data.Destination.(type) {
	case netid.UserId:
		u, err := WrapUser(m.network, id)
		if err != nil {
			return MessageTarget{}, err
		}
		return MessageTarget{User: &u}, nil
	case netid.ChannelId:
		c, err := WrapChannel(m.network, id)
		if err != nil {
			return MessageTarget{}, err
		}
		return MessageTarget{Channel: &c}, nil
	default:
		return MessageTarget{}, fmt.Errorf("wrapper: message destination has unsupported kind %s", m.data.Destination.Kind())
	}
}

// NickBinding is a synthetic wrapper over the (Nickname -> UserId)
// binding a Network maintains internally; unlike the other wrapper
// types it has no corresponding stored struct of its own, since the
// Network only ever needs the live binding, not its history.
type NickBinding struct {
	network *netstate.Network
	nick    netid.Nickname
	user    netid.UserId
}

// WrapNickBinding resolves nick to its current owner and returns the
// binding's wrapper.
func WrapNickBinding(n *netstate.Network, nick netid.Nickname) (NickBinding, error) {
	uid, ok := n.UserByNick(nick)
	if !ok {
		return NickBinding{}, &LookupError{Kind: netid.KindUser, Id: nil}
	}
	return NickBinding{network: n, nick: nick, user: uid}, nil
}

func (b NickBinding) Nick() netid.Nickname { return b.nick }

// User returns the user this nickname is currently bound to.
func (b NickBinding) User() (User, error) { return WrapUser(b.network, b.user) }
