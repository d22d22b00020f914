// Package netstate implements the replicated network state machine: the
// deterministic Apply function that turns an Event into mutations of a
// Network and a set of NetworkStateChange notifications, plus the
// conflict-resolution policies that let two replicas that applied events
// in different orders converge to the same state.
package netstate

import (
	"fmt"
	"sort"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/policy"
)

// BanResolver is the policy hook the state machine consults when a join
// might be blocked by a concurrently-applied ban; see package policy.
type BanResolver = policy.BanResolver

// DefaultBanResolver is the state machine's default policy when none is
// supplied to New.
type DefaultBanResolver = policy.DefaultBanResolver

// LookupError reports that an event targeted or referenced an object
// this replica does not have — either because of a bug on the sending
// side, or because the object was legitimately removed by a
// concurrently-applied event (e.g. a kick racing a part).
type LookupError struct {
	Kind netid.ObjectKind
	Id   netid.ObjectId
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("netstate: no %s with id %v", e.Kind, e.Id)
}

// TypeMismatchError reports that an Event's Details variant does not
// match the ObjectKind its Target carries.
type TypeMismatchError struct {
	Details event.EventDetails
	Target  netid.ObjectId
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("netstate: %T targets %s, expected %s", e.Details, e.Target.Kind(), e.Details.TargetKind())
}

// User is the network's view of a connected user.
type User struct {
	Id       netid.UserId
	Nickname netid.Nickname
	Username netid.Username
	Visible  netid.Hostname
	ModeId   netid.UModeId
	Server   netid.ServerId
	Created  time.Time
}

// UserModeState holds a user's mode bits.
type UserModeState struct {
	Id    netid.UModeId
	Owner netid.UserId
	Flags modes.UserModeSet
}

// Channel is the network's view of a channel.
type Channel struct {
	Id      netid.ChannelId
	Name    netid.ChannelName
	ModeId  netid.CModeId
	Created time.Time
	Topic   string
	TopicBy netid.UserId
	TopicAt time.Time
}

// ChannelModeState holds a channel's mode bits.
type ChannelModeState struct {
	Id    netid.CModeId
	Owner netid.ChannelId
	Flags modes.ChannelModeSet
}

// Membership is one user's membership in one channel.
type Membership struct {
	Id    netid.MembershipId
	Flags modes.MembershipFlagSet
}

// Message is one recorded privmsg/notice.
type Message struct {
	Id          netid.MessageId
	Source      netid.UserId
	Destination netid.ObjectId
	Text        string
	IsNotice    bool
	Timestamp   time.Time
}

// Server is the network's view of one peer.
type Server struct {
	Id       netid.ServerId
	Name     string
	Epoch    netid.EpochId
	Joined   time.Time
	LastPing time.Time
	Quit     bool
}

// ListModeEntry is one pattern entry in a channel's list mode.
type ListModeEntry struct {
	Id      netid.ListModeEntryId
	Pattern netid.Pattern
	SetBy   string
	SetTime time.Time
}

// ListMode is one channel's ban/quiet/except/invex list.
type ListMode struct {
	Id      netid.ListModeId
	Channel netid.ChannelId
	Type    modes.ListModeType
	Entries map[netid.ListModeEntryId]*ListModeEntry
}

// AuditLogEntry is one entry in the network's audit trail.
type AuditLogEntry struct {
	Id       netid.AuditLogEntryId
	Category string
	Actor    netid.ObjectId
	Message  string
	At       time.Time
}

// NetworkConfig is the network-wide configuration document distributed
// via LoadConfig events.
type NetworkConfig struct {
	Version int64
	Payload []byte
}

// Network is the full replicated state: every user, channel, membership,
// message, server, and audit entry this replica has applied. All
// mutation happens through Apply; external readers must treat Network as
// read-only (the Node façade enforces this with an RWMutex).
type Network struct {
	users     map[netid.UserId]*User
	userModes map[netid.UModeId]*UserModeState
	nicks     map[netid.Nickname]netid.UserId

	channels      map[netid.ChannelId]*Channel
	channelModes  map[netid.CModeId]*ChannelModeState
	memberships   map[netid.MembershipId]*Membership
	channelMember map[netid.ChannelId]map[netid.UserId]struct{}
	listModes     map[netid.ListModeId]*ListMode

	channelNames map[netid.ChannelName]netid.ChannelId
	channelAlias map[netid.ChannelId]netid.ChannelId
	modeAlias    map[netid.CModeId]netid.CModeId

	messages     map[netid.MessageId]*Message
	messageOrder []netid.MessageId

	servers map[netid.ServerId]*Server

	auditLog      map[netid.AuditLogEntryId]*AuditLogEntry
	auditLogOrder []netid.AuditLogEntryId

	config *NetworkConfig

	policy BanResolver
}

// New returns an empty Network. policy may be nil, in which case
// DefaultBanResolver is used.
func New(policy BanResolver) *Network {
	if policy == nil {
		policy = DefaultBanResolver{}
	}
	return &Network{
		users:         make(map[netid.UserId]*User),
		userModes:     make(map[netid.UModeId]*UserModeState),
		nicks:         make(map[netid.Nickname]netid.UserId),
		channels:      make(map[netid.ChannelId]*Channel),
		channelModes:  make(map[netid.CModeId]*ChannelModeState),
		memberships:   make(map[netid.MembershipId]*Membership),
		channelMember: make(map[netid.ChannelId]map[netid.UserId]struct{}),
		listModes:     make(map[netid.ListModeId]*ListMode),
		channelNames:  make(map[netid.ChannelName]netid.ChannelId),
		channelAlias:  make(map[netid.ChannelId]netid.ChannelId),
		modeAlias:     make(map[netid.CModeId]netid.CModeId),
		messages:      make(map[netid.MessageId]*Message),
		servers:       make(map[netid.ServerId]*Server),
		auditLog:      make(map[netid.AuditLogEntryId]*AuditLogEntry),
		config:        &NetworkConfig{},
		policy:        policy,
	}
}

// MessageRetention bounds how long a Message stays in the recent window
// before EvictStaleMessagesAt drops it; eviction is age-based and silent.
// replog.DefaultConfig uses it as the default ObjectExpiry.
const MessageRetention = 10 * time.Minute

// Apply advances the state machine by one Event, mutating n and
// returning the notifications observers should see. Apply must be called
// by exactly one goroutine at a time (the Node façade's apply loop).
func (n *Network) Apply(ev event.Event) ([]NetworkStateChange, error) {
	if ev.Target != nil && ev.Target.Kind() != ev.Details.TargetKind() {
		return nil, &TypeMismatchError{Details: ev.Details, Target: ev.Target}
	}

	switch d := ev.Details.(type) {
	case event.NewUser:
		return n.applyNewUser(ev, d)
	case event.UserNickChange:
		return n.applyUserNickChange(ev, d)
	case event.UserModeChange:
		return n.applyUserModeChange(ev, d)
	case event.UserQuit:
		return n.applyUserQuit(ev, d)
	case event.OperUp:
		return n.applyOperUp(ev, d)
	case event.NewChannel:
		return n.applyNewChannel(ev, d)
	case event.ChannelJoin:
		return n.applyChannelJoin(ev, d)
	case event.ChannelPart:
		return n.applyChannelPart(ev, d)
	case event.ChannelKick:
		return n.applyChannelKick(ev, d)
	case event.ChannelModeChange:
		return n.applyChannelModeChange(ev, d)
	case event.ChannelTopic:
		return n.applyChannelTopic(ev, d)
	case event.ListModeAdd:
		return n.applyListModeAdd(ev, d)
	case event.ListModeRemove:
		return n.applyListModeRemove(ev, d)
	case event.NewMessage:
		return n.applyNewMessage(ev, d)
	case event.NewServer:
		return n.applyNewServer(ev, d)
	case event.ServerPing:
		return n.applyServerPing(ev, d)
	case event.ServerQuit:
		return n.applyServerQuit(ev, d)
	case event.LoadConfig:
		return n.applyLoadConfig(ev, d)
	case event.NewAuditLogEntry:
		return n.applyNewAuditLogEntry(ev, d)
	default:
		return nil, fmt.Errorf("netstate: unhandled event details type %T", ev.Details)
	}
}

func sortedUserIds(m map[netid.UserId]struct{}) []netid.UserId {
	out := make([]netid.UserId, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
