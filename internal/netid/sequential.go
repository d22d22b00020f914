package netid

import "fmt"

// ServerId names one server in the network. It never changes for the
// lifetime of a server's configuration, independent of restarts.
type ServerId uint16

// EpochId names one incarnation of a server. A server's epoch advances on
// every restart; (ServerId, EpochId) together uniquely identify an
// incarnation whose event stream has a single, unbroken local sequence.
type EpochId int64

// LocalSeq is a per-(ServerId, EpochId) monotonically increasing counter.
// Reusing a LocalSeq within the same (server, epoch) is forbidden.
type LocalSeq int64

// Sequential is the common shape of every ID the network allocates by
// stamping it with the allocating server's current epoch and next local
// sequence number. It is embedded by each concrete sequential ID type so
// that EventId, UserId, ChannelId, and so on share layout and comparison
// semantics while remaining distinct Go types.
type Sequential struct {
	Server ServerId `json:"server"`
	Epoch  EpochId  `json:"epoch"`
	Local  LocalSeq `json:"local"`
}

func (s Sequential) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Server, s.Epoch, s.Local)
}

// EventId identifies one Event. It is the primary key of the EventLog and
// the unit tracked by EventClock.
type EventId struct{ Sequential }

func (EventId) Kind() ObjectKind { return KindEvent }

// UserId identifies one connected (or recently quit, within the same
// apply batch) user.
type UserId struct{ Sequential }

func (UserId) Kind() ObjectKind { return KindUser }

// UModeId identifies the UserMode object owned 1:1 by a User.
type UModeId struct{ Sequential }

func (UModeId) Kind() ObjectKind { return KindUserMode }

// ChannelId identifies one channel.
type ChannelId struct{ Sequential }

func (ChannelId) Kind() ObjectKind { return KindChannel }

// CModeId identifies the ChannelMode object owned 1:1 by a Channel.
type CModeId struct{ Sequential }

func (CModeId) Kind() ObjectKind { return KindChannelMode }

// MessageId identifies one message in the bounded recent-message window.
type MessageId struct{ Sequential }

func (MessageId) Kind() ObjectKind { return KindMessage }

// AuditLogEntryId identifies one audit log entry.
type AuditLogEntryId struct{ Sequential }

func (AuditLogEntryId) Kind() ObjectKind { return KindAuditLogEntry }

// ListModeId identifies one list-mode bucket (a channel's ban list, quiet
// list, exception list, or invite-exception list).
type ListModeId struct{ Sequential }

func (ListModeId) Kind() ObjectKind { return KindListMode }

// ListModeEntryId identifies one entry within a ListMode's pattern list.
type ListModeEntryId struct{ Sequential }

func (ListModeEntryId) Kind() ObjectKind { return KindListModeEntry }

// Next returns the sequential ID for the following local sequence number
// within the same (server, epoch), suitable for the EventLog's internal
// counters. It does not mutate s.
func (s Sequential) Next() Sequential {
	return Sequential{Server: s.Server, Epoch: s.Epoch, Local: s.Local + 1}
}
