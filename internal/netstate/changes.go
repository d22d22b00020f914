package netstate

import (
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// NetworkStateChange is the tagged union of notifications Apply can
// produce. Subscribers (see the node package) receive these instead of
// raw Events so they don't need to understand conflict-resolution
// rewrites: a nick collision, for example, surfaces as a UserNickChanged
// naming the losing user's fallback nickname, not as the original event.
type NetworkStateChange interface {
	isNetworkStateChange()
}

type UserAdded struct{ User User }
type UserNickChanged struct {
	User    netid.UserId
	OldNick netid.Nickname
	NewNick netid.Nickname
	// Collided is set when this rename was forced by a nick collision
	// rather than requested by the user directly.
	Collided bool
}
type UserModeChanged struct {
	User    netid.UserId
	Added   modes.UserModeSet
	Removed modes.UserModeSet
}
type UserQuitChange struct {
	User    netid.UserId
	Message string
}
type UserOperUp struct {
	User     netid.UserId
	OperName string
}
type ChannelAdded struct{ Channel Channel }
type MembershipAdded struct {
	Membership Membership
}
type MembershipRemoved struct {
	Id     netid.MembershipId
	Reason string // "part", "kick", "quit", "server-quit"
}
type ChannelModeChanged struct {
	Channel netid.ChannelId
}
type ChannelTopicChanged struct {
	Channel netid.ChannelId
	Topic   string
}
type ListModeEntryAdded struct {
	List  netid.ListModeId
	Entry ListModeEntry
}
type ListModeEntryRemoved struct {
	List  netid.ListModeId
	Entry netid.ListModeEntryId
}
type MessageAdded struct{ Message Message }
type ServerAdded struct{ Server Server }
type ServerQuitChange struct {
	Server  netid.ServerId
	Reason  string
	Orphans []netid.UserId
}
type ConfigLoaded struct{ Version int64 }
type AuditLogAppended struct{ Entry AuditLogEntry }

func (UserAdded) isNetworkStateChange()            {}
func (UserNickChanged) isNetworkStateChange()       {}
func (UserModeChanged) isNetworkStateChange()       {}
func (UserQuitChange) isNetworkStateChange()        {}
func (UserOperUp) isNetworkStateChange()            {}
func (ChannelAdded) isNetworkStateChange()          {}
func (MembershipAdded) isNetworkStateChange()       {}
func (MembershipRemoved) isNetworkStateChange()     {}
func (ChannelModeChanged) isNetworkStateChange()    {}
func (ChannelTopicChanged) isNetworkStateChange()   {}
func (ListModeEntryAdded) isNetworkStateChange()    {}
func (ListModeEntryRemoved) isNetworkStateChange()  {}
func (MessageAdded) isNetworkStateChange()          {}
func (ServerAdded) isNetworkStateChange()           {}
func (ServerQuitChange) isNetworkStateChange()      {}
func (ConfigLoaded) isNetworkStateChange()          {}
func (AuditLogAppended) isNetworkStateChange()      {}
