package netstate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// wireListMode is ListMode's JSON shape: Entries carried as a slice,
// since its Go-side representation is a map keyed by a struct type that
// encoding/json cannot use directly as an object key.
type wireListMode struct {
	Id      netid.ListModeId   `json:"id"`
	Channel netid.ChannelId    `json:"channel"`
	Type    modes.ListModeType `json:"type"`
	Entries []ListModeEntry    `json:"entries"`
}

// MarshalJSON encodes a ListMode with its Entries map flattened to a
// slice.
func (l ListMode) MarshalJSON() ([]byte, error) {
	entries := make([]ListModeEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		entries = append(entries, *e)
	}
	return json.Marshal(wireListMode{Id: l.Id, Channel: l.Channel, Type: l.Type, Entries: entries})
}

// UnmarshalJSON decodes the wireListMode shape back into a ListMode,
// rebuilding the Entries map.
func (l *ListMode) UnmarshalJSON(data []byte) error {
	var w wireListMode
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("netstate: decode ListMode: %w", err)
	}
	l.Id = w.Id
	l.Channel = w.Channel
	l.Type = w.Type
	l.Entries = make(map[netid.ListModeEntryId]*ListModeEntry, len(w.Entries))
	for _, e := range w.Entries {
		ec := e
		l.Entries[e.Id] = &ec
	}
	return nil
}

// wireMessage is Message's JSON shape with Destination carried as a
// kind-tagged envelope, since netid.ObjectId is an interface encoding/json
// cannot decode into directly.
type wireMessage struct {
	Id          netid.MessageId `json:"id"`
	Source      netid.UserId    `json:"source"`
	Destination json.RawMessage `json:"destination"`
	Text        string          `json:"text"`
	IsNotice    bool            `json:"is_notice"`
	Timestamp   time.Time       `json:"timestamp"`
}

// MarshalJSON encodes a Message with its Destination as a kind-tagged
// envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	dest, err := netid.MarshalObjectId(m.Destination)
	if err != nil {
		return nil, fmt.Errorf("netstate: marshal Message destination: %w", err)
	}
	return json.Marshal(wireMessage{
		Id: m.Id, Source: m.Source, Destination: dest,
		Text: m.Text, IsNotice: m.IsNotice, Timestamp: m.Timestamp,
	})
}

// UnmarshalJSON decodes the wireMessage envelope back into a Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w struct {
		Id          netid.MessageId `json:"id"`
		Source      netid.UserId    `json:"source"`
		Destination json.RawMessage `json:"destination"`
		Text        string          `json:"text"`
		IsNotice    bool            `json:"is_notice"`
		Timestamp   time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("netstate: decode Message: %w", err)
	}
	dest, err := netid.UnmarshalObjectId(w.Destination)
	if err != nil {
		return fmt.Errorf("netstate: decode Message destination: %w", err)
	}
	m.Id = w.Id
	m.Source = w.Source
	m.Destination = dest
	m.Text = w.Text
	m.IsNotice = w.IsNotice
	m.Timestamp = w.Timestamp
	return nil
}

// wireAuditLogEntry is AuditLogEntry's JSON shape with Actor carried as a
// kind-tagged envelope, mirroring wireMessage.
type wireAuditLogEntry struct {
	Id       netid.AuditLogEntryId `json:"id"`
	Category string                `json:"category"`
	Actor    json.RawMessage       `json:"actor,omitempty"`
	Message  string                `json:"message"`
	At       time.Time             `json:"at"`
}

func (e AuditLogEntry) MarshalJSON() ([]byte, error) {
	var actor json.RawMessage
	if e.Actor != nil {
		data, err := netid.MarshalObjectId(e.Actor)
		if err != nil {
			return nil, fmt.Errorf("netstate: marshal AuditLogEntry actor: %w", err)
		}
		actor = data
	}
	return json.Marshal(wireAuditLogEntry{Id: e.Id, Category: e.Category, Actor: actor, Message: e.Message, At: e.At})
}

func (e *AuditLogEntry) UnmarshalJSON(data []byte) error {
	var w struct {
		Id       netid.AuditLogEntryId `json:"id"`
		Category string                `json:"category"`
		Actor    json.RawMessage       `json:"actor,omitempty"`
		Message  string                `json:"message"`
		At       time.Time             `json:"at"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("netstate: decode AuditLogEntry: %w", err)
	}
	e.Id = w.Id
	e.Category = w.Category
	e.Message = w.Message
	e.At = w.At
	e.Actor = nil
	if len(w.Actor) > 0 {
		actor, err := netid.UnmarshalObjectId(w.Actor)
		if err != nil {
			return fmt.Errorf("netstate: decode AuditLogEntry actor: %w", err)
		}
		e.Actor = actor
	}
	return nil
}

// NetworkSnapshot is the point-in-time, JSON-serializable form of a
// Network: the full state transferred to a bootstrapping peer
// (GossipNetwork's GetNetworkState/NetworkState handshake) or written to
// the persisted snapshot file on an Upgrade shutdown. Per the spec's
// Open Question on audit-log retention, the conservative choice is
// taken: AuditLog is always included.
type NetworkSnapshot struct {
	Users         []User             `json:"users"`
	UserModes     []UserModeState    `json:"user_modes"`
	Channels      []Channel          `json:"channels"`
	ChannelModes  []ChannelModeState `json:"channel_modes"`
	Memberships   []Membership       `json:"memberships"`
	ListModes     []ListMode         `json:"list_modes"`
	Messages      []Message          `json:"messages"`
	Servers       []Server           `json:"servers"`
	AuditLog      []AuditLogEntry    `json:"audit_log"`
	Config        NetworkConfig      `json:"config"`
}

// Snapshot captures the entire Network as a value safe to encode and
// later Restore elsewhere, implementing the "Network -> snapshot ->
// Network preserves every observable accessor" round-trip law.
func (n *Network) Snapshot() NetworkSnapshot {
	userModes := make([]UserModeState, 0, len(n.userModes))
	for _, m := range n.userModes {
		userModes = append(userModes, *m)
	}
	channelModes := make([]ChannelModeState, 0, len(n.channelModes))
	for _, m := range n.channelModes {
		channelModes = append(channelModes, *m)
	}

	return NetworkSnapshot{
		Users:        n.Users(),
		UserModes:    userModes,
		Channels:     n.Channels(),
		ChannelModes: channelModes,
		Memberships:  n.Memberships(),
		ListModes:    n.ListModes(),
		Messages:     n.Messages(),
		Servers:      n.Servers(),
		AuditLog:     n.AuditLog(),
		Config:       n.Config(),
	}
}

// Restore rebuilds a Network from a NetworkSnapshot, re-deriving every
// index (nick bindings, channel membership sets) from the primary
// tables. policy may be nil, in which case DefaultBanResolver is used,
// matching New.
func Restore(s NetworkSnapshot, policy BanResolver) *Network {
	n := New(policy)

	for _, u := range s.Users {
		uc := u
		n.users[u.Id] = &uc
		n.nicks[u.Nickname] = u.Id
	}
	for _, m := range s.UserModes {
		mc := m
		n.userModes[m.Id] = &mc
	}
	for _, c := range s.Channels {
		cc := c
		n.channels[c.Id] = &cc
		n.channelNames[c.Name] = c.Id
		if _, ok := n.channelMember[c.Id]; !ok {
			n.channelMember[c.Id] = make(map[netid.UserId]struct{})
		}
	}
	for _, m := range s.ChannelModes {
		mc := m
		n.channelModes[m.Id] = &mc
	}
	for _, m := range s.Memberships {
		mc := m
		n.memberships[m.Id] = &mc
		if _, ok := n.channelMember[m.Id.Channel]; !ok {
			n.channelMember[m.Id.Channel] = make(map[netid.UserId]struct{})
		}
		n.channelMember[m.Id.Channel][m.Id.User] = struct{}{}
	}
	for _, lm := range s.ListModes {
		entries := make(map[netid.ListModeEntryId]*ListModeEntry, len(lm.Entries))
		for id, e := range lm.Entries {
			ec := *e
			entries[id] = &ec
		}
		n.listModes[lm.Id] = &ListMode{Id: lm.Id, Channel: lm.Channel, Type: lm.Type, Entries: entries}
	}
	for _, m := range s.Messages {
		mc := m
		n.messages[m.Id] = &mc
		n.messageOrder = append(n.messageOrder, m.Id)
	}
	for _, srv := range s.Servers {
		sc := srv
		n.servers[srv.Id] = &sc
	}
	for _, e := range s.AuditLog {
		ec := e
		n.auditLog[e.Id] = &ec
		n.auditLogOrder = append(n.auditLogOrder, e.Id)
	}
	n.config = &s.Config

	return n
}

// MarshalSnapshot encodes a NetworkSnapshot as JSON, the wire and
// persisted-file representation used by state transfer and the
// `Upgrade` snapshot file.
func MarshalSnapshot(s NetworkSnapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("netstate: marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes the JSON produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (NetworkSnapshot, error) {
	var s NetworkSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return NetworkSnapshot{}, fmt.Errorf("netstate: decode snapshot: %w", err)
	}
	return s, nil
}
