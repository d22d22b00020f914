package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// NewUser introduces a newly connected user, binding its nickname and
// creating its UserMode object. Target is the new UserId.
type NewUser struct {
	Nickname netid.Nickname `json:"nickname"`
	Username netid.Username `json:"username"`
	Visible  netid.Hostname `json:"visible_hostname"`
	ModeId   netid.UModeId  `json:"mode_id"`
	Server   netid.ServerId `json:"server"`
}

func (NewUser) TargetKind() netid.ObjectKind { return netid.KindUser }

// UserNickChange rebinds a user's nickname, releasing the old binding and
// claiming the new one. Target is the UserId being renamed.
type UserNickChange struct {
	NewNick netid.Nickname `json:"new_nick"`
}

func (UserNickChange) TargetKind() netid.ObjectKind { return netid.KindUser }

// UserModeChange adds and removes bits from a user's mode. Target is the
// UModeId, not the UserId, since UserMode is its own addressable object.
type UserModeChange struct {
	Added   modes.UserModeSet `json:"added"`
	Removed modes.UserModeSet `json:"removed"`
}

func (UserModeChange) TargetKind() netid.ObjectKind { return netid.KindUserMode }

// UserQuit removes a user from the network. Target is the departing
// UserId.
type UserQuit struct {
	Message string `json:"message"`
}

func (UserQuit) TargetKind() netid.ObjectKind { return netid.KindUser }

// OperUp grants operator privilege to a user, adding UserModeOper to its
// mode and recording which operator block authorized it. Target is the
// UserId being promoted.
type OperUp struct {
	OperName string `json:"oper_name"`
}

func (OperUp) TargetKind() netid.ObjectKind { return netid.KindUser }

// NewChannel creates a channel with an initial timestamp and mode set.
// Target is the new ChannelId.
type NewChannel struct {
	Name    netid.ChannelName `json:"name"`
	ModeId  netid.CModeId     `json:"mode_id"`
	Created time.Time         `json:"created"`
}

func (NewChannel) TargetKind() netid.ObjectKind { return netid.KindChannel }

// ChannelJoin adds a membership. Target is the MembershipId (user,
// channel) pair; the join may carry op/voice if it raced a mode grant
// the originating server already knew about (for example, the channel's
// founder joining an empty channel).
type ChannelJoin struct {
	InitialFlags modes.MembershipFlagSet `json:"initial_flags"`
}

func (ChannelJoin) TargetKind() netid.ObjectKind { return netid.KindMembership }

// ChannelPart removes a membership voluntarily. Target is the
// MembershipId being removed.
type ChannelPart struct {
	Message string `json:"message"`
}

func (ChannelPart) TargetKind() netid.ObjectKind { return netid.KindMembership }

// ChannelKick removes a membership involuntarily. Target is the
// MembershipId being removed; Source names who issued the kick.
type ChannelKick struct {
	Source  netid.UserId `json:"source"`
	Message string       `json:"message"`
}

func (ChannelKick) TargetKind() netid.ObjectKind { return netid.KindMembership }

// MemberFlagChange names a membership privilege grant or revocation
// bundled into a ChannelModeChange.
type MemberFlagChange struct {
	User  netid.UserId            `json:"user"`
	Flags modes.MembershipFlagSet `json:"flags"`
}

// ChannelModeChange adds and removes channel-wide mode bits, and/or
// grants and revokes per-member privilege bits for the members listed in
// MemberAdded/MemberRemoved. Target is the CModeId.
type ChannelModeChange struct {
	Added         modes.ChannelModeSet `json:"added"`
	Removed       modes.ChannelModeSet `json:"removed"`
	MemberAdded   []MemberFlagChange   `json:"member_added,omitempty"`
	MemberRemoved []MemberFlagChange   `json:"member_removed,omitempty"`
}

func (ChannelModeChange) TargetKind() netid.ObjectKind { return netid.KindChannelMode }

// ChannelTopic sets a channel's topic. Target is the ChannelId.
type ChannelTopic struct {
	Text    string       `json:"text"`
	SetBy   netid.UserId `json:"set_by"`
	SetTime time.Time    `json:"set_time"`
}

func (ChannelTopic) TargetKind() netid.ObjectKind { return netid.KindChannel }

// ListModeAdd appends an entry to a channel's ban/quiet/except/invex
// list. Target is the ListModeId naming which list; Channel and Type are
// carried alongside it because a ListMode bucket has no independent
// creation event of its own and must be lazily created on first use.
type ListModeAdd struct {
	Channel netid.ChannelId       `json:"channel"`
	Type    modes.ListModeType    `json:"type"`
	EntryId netid.ListModeEntryId `json:"entry_id"`
	Pattern netid.Pattern         `json:"pattern"`
	SetBy   string                `json:"set_by"`
	SetTime time.Time             `json:"set_time"`
}

func (ListModeAdd) TargetKind() netid.ObjectKind { return netid.KindListMode }

// ListModeRemove removes an entry from a channel's list mode. Target is
// the ListModeId; EntryId names which entry.
type ListModeRemove struct {
	EntryId netid.ListModeEntryId `json:"entry_id"`
}

func (ListModeRemove) TargetKind() netid.ObjectKind { return netid.KindListMode }

// NewMessage records a privmsg/notice in the bounded recent-message
// window. Target is the new MessageId. Destination is a user or a
// channel, so it travels as a kind-tagged ObjectId envelope.
type NewMessage struct {
	Source      netid.UserId   `json:"source"`
	Destination netid.ObjectId `json:"-"`
	Text        string         `json:"text"`
	IsNotice    bool           `json:"is_notice"`
}

func (NewMessage) TargetKind() netid.ObjectKind { return netid.KindMessage }

type wireNewMessage struct {
	Source      netid.UserId    `json:"source"`
	Destination json.RawMessage `json:"destination"`
	Text        string          `json:"text"`
	IsNotice    bool            `json:"is_notice"`
}

func (m NewMessage) MarshalJSON() ([]byte, error) {
	dest, err := netid.MarshalObjectId(m.Destination)
	if err != nil {
		return nil, fmt.Errorf("event: marshal NewMessage destination: %w", err)
	}
	return json.Marshal(wireNewMessage{Source: m.Source, Destination: dest, Text: m.Text, IsNotice: m.IsNotice})
}

func (m *NewMessage) UnmarshalJSON(data []byte) error {
	var w wireNewMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("event: decode NewMessage: %w", err)
	}
	dest, err := netid.UnmarshalObjectId(w.Destination)
	if err != nil {
		return fmt.Errorf("event: decode NewMessage destination: %w", err)
	}
	m.Source = w.Source
	m.Destination = dest
	m.Text = w.Text
	m.IsNotice = w.IsNotice
	return nil
}

// NewServer introduces a peer to the network. Target is the ServerId.
type NewServer struct {
	Name   string        `json:"name"`
	Epoch  netid.EpochId `json:"epoch"`
	Joined time.Time     `json:"joined"`
}

func (NewServer) TargetKind() netid.ObjectKind { return netid.KindServer }

// ServerPing is the periodic liveness heartbeat a server emits into its
// own event stream; gossip peers use its absence, not its presence, as
// the pingout signal. Target is the emitting ServerId.
type ServerPing struct{}

func (ServerPing) TargetKind() netid.ObjectKind { return netid.KindServer }

// ServerQuit removes a peer and everything that depended on it (its
// users, by implication of later UserQuit events the departing replica
// itself would have emitted, or synthetically if it never got the
// chance). Target is the departing ServerId.
type ServerQuit struct {
	Reason string `json:"reason"`
}

func (ServerQuit) TargetKind() netid.ObjectKind { return netid.KindServer }

// LoadConfig replaces the network's shared configuration document
// (oper blocks, server blocks, and similar network-wide settings) with a
// new version. Target is conventionally the singleton ServerId(0);
// netstate checks only that the target is a ServerId, not which one.
type LoadConfig struct {
	Version int64  `json:"version"`
	Payload []byte `json:"payload"`
}

func (LoadConfig) TargetKind() netid.ObjectKind { return netid.KindServer }

// NewAuditLogEntry appends an entry to the network's audit trail. Target
// is the new AuditLogEntryId. Actor names whoever triggered the entry,
// if known, and travels as a kind-tagged ObjectId envelope.
type NewAuditLogEntry struct {
	Category string         `json:"category"`
	Actor    netid.ObjectId `json:"-"`
	Message  string         `json:"message"`
}

func (NewAuditLogEntry) TargetKind() netid.ObjectKind { return netid.KindAuditLogEntry }

type wireAuditLogEntry struct {
	Category string          `json:"category"`
	Actor    json.RawMessage `json:"actor,omitempty"`
	Message  string          `json:"message"`
}

func (e NewAuditLogEntry) MarshalJSON() ([]byte, error) {
	var actor json.RawMessage
	if e.Actor != nil {
		data, err := netid.MarshalObjectId(e.Actor)
		if err != nil {
			return nil, fmt.Errorf("event: marshal NewAuditLogEntry actor: %w", err)
		}
		actor = data
	}
	return json.Marshal(wireAuditLogEntry{Category: e.Category, Actor: actor, Message: e.Message})
}

func (e *NewAuditLogEntry) UnmarshalJSON(data []byte) error {
	var w wireAuditLogEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("event: decode NewAuditLogEntry: %w", err)
	}
	e.Category = w.Category
	e.Message = w.Message
	e.Actor = nil
	if len(w.Actor) > 0 {
		actor, err := netid.UnmarshalObjectId(w.Actor)
		if err != nil {
			return fmt.Errorf("event: decode NewAuditLogEntry actor: %w", err)
		}
		e.Actor = actor
	}
	return nil
}
