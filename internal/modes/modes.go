// Package modes defines the network's mode-flag enumerations: the bits
// that make up a channel's mode, a member's per-channel privileges, a
// user's mode, and the list-mode (ban/quiet/except/invex) types.
//
// The source this core replicates carries both a "ChannelMode" and a
// "ChannelPermission" flag set with apparently overlapping roles — the
// spec flags this as an open question. Resolved here per the ground
// truth in the reference implementation's schema: channel-wide flags
// (no-external-messages, topic-lock, secret) live on the channel itself;
// op/voice are per-*membership* privileges, not a channel-wide flag set.
// "ChannelPermission" was an earlier name for the same membership bits
// and is not carried forward as a separate type.
package modes

import "strings"

// ChannelModeFlag is a single channel-wide mode bit.
type ChannelModeFlag uint32

const (
	ChannelModeNoExternal ChannelModeFlag = 1 << iota
	ChannelModeTopicLock
	ChannelModeSecret
)

var channelModeLetters = map[ChannelModeFlag]byte{
	ChannelModeNoExternal: 'n',
	ChannelModeTopicLock:  't',
	ChannelModeSecret:     's',
}

// ChannelModeSet is a bitset of ChannelModeFlag values.
type ChannelModeSet uint32

func (s ChannelModeSet) IsSet(f ChannelModeFlag) bool { return uint32(s)&uint32(f) != 0 }
func (s ChannelModeSet) Set(f ChannelModeFlag) ChannelModeSet {
	return ChannelModeSet(uint32(s) | uint32(f))
}
func (s ChannelModeSet) Clear(f ChannelModeFlag) ChannelModeSet {
	return ChannelModeSet(uint32(s) &^ uint32(f))
}

// Union returns the bitwise union of s and other.
func (s ChannelModeSet) Union(other ChannelModeSet) ChannelModeSet {
	return ChannelModeSet(uint32(s) | uint32(other))
}

// Intersect returns the bitwise intersection of s and other.
func (s ChannelModeSet) Intersect(other ChannelModeSet) ChannelModeSet {
	return ChannelModeSet(uint32(s) & uint32(other))
}

// ToChars renders the set as its mode-letter string, e.g. "nt".
func (s ChannelModeSet) ToChars() string {
	var b strings.Builder
	for _, f := range []ChannelModeFlag{ChannelModeNoExternal, ChannelModeTopicLock, ChannelModeSecret} {
		if s.IsSet(f) {
			b.WriteByte(channelModeLetters[f])
		}
	}
	return b.String()
}

// MembershipFlag is a single per-member privilege bit (operator, voice).
type MembershipFlag uint32

const (
	MembershipOp MembershipFlag = 1 << iota
	MembershipVoice
)

var membershipPrefixes = map[MembershipFlag]byte{
	MembershipOp:    '@',
	MembershipVoice: '+',
}

var membershipLetters = map[MembershipFlag]byte{
	MembershipOp:    'o',
	MembershipVoice: 'v',
}

// MembershipFlagSet is a bitset of MembershipFlag values.
type MembershipFlagSet uint32

func (s MembershipFlagSet) IsSet(f MembershipFlag) bool { return uint32(s)&uint32(f) != 0 }
func (s MembershipFlagSet) Set(f MembershipFlag) MembershipFlagSet {
	return MembershipFlagSet(uint32(s) | uint32(f))
}
func (s MembershipFlagSet) Clear(f MembershipFlag) MembershipFlagSet {
	return MembershipFlagSet(uint32(s) &^ uint32(f))
}
func (s MembershipFlagSet) Union(other MembershipFlagSet) MembershipFlagSet {
	return MembershipFlagSet(uint32(s) | uint32(other))
}

// HighestPrefix returns the single highest-privilege prefix character
// for s ('@' outranks '+'), or 0 if s carries no privilege.
func (s MembershipFlagSet) HighestPrefix() byte {
	if s.IsSet(MembershipOp) {
		return membershipPrefixes[MembershipOp]
	}
	if s.IsSet(MembershipVoice) {
		return membershipPrefixes[MembershipVoice]
	}
	return 0
}

// ToChars renders the set as its mode-letter string, e.g. "ov".
func (s MembershipFlagSet) ToChars() string {
	var b strings.Builder
	for _, f := range []MembershipFlag{MembershipOp, MembershipVoice} {
		if s.IsSet(f) {
			b.WriteByte(membershipLetters[f])
		}
	}
	return b.String()
}

// UserModeFlag is a single user-wide mode bit.
type UserModeFlag uint32

const (
	UserModeInvisible UserModeFlag = 1 << iota
	UserModeOper
)

var userModeLetters = map[UserModeFlag]byte{
	UserModeInvisible: 'i',
	UserModeOper:      'o',
}

// UserModeSet is a bitset of UserModeFlag values.
type UserModeSet uint32

func (s UserModeSet) IsSet(f UserModeFlag) bool { return uint32(s)&uint32(f) != 0 }
func (s UserModeSet) Set(f UserModeFlag) UserModeSet {
	return UserModeSet(uint32(s) | uint32(f))
}
func (s UserModeSet) Clear(f UserModeFlag) UserModeSet {
	return UserModeSet(uint32(s) &^ uint32(f))
}
func (s UserModeSet) Union(other UserModeSet) UserModeSet {
	return UserModeSet(uint32(s) | uint32(other))
}

// ToChars renders the set as its mode-letter string, e.g. "io".
func (s UserModeSet) ToChars() string {
	var b strings.Builder
	for _, f := range []UserModeFlag{UserModeInvisible, UserModeOper} {
		if s.IsSet(f) {
			b.WriteByte(userModeLetters[f])
		}
	}
	return b.String()
}

// ListModeType names one of a channel's pattern-list modes.
type ListModeType uint8

const (
	ListModeBan ListModeType = iota
	ListModeQuiet
	ListModeExcept
	ListModeInvex
)

// Letter returns the mode letter used on the wire and in client protocol
// for this list type.
func (t ListModeType) Letter() byte {
	switch t {
	case ListModeBan:
		return 'b'
	case ListModeQuiet:
		return 'q'
	case ListModeExcept:
		return 'e'
	case ListModeInvex:
		return 'I'
	default:
		return '?'
	}
}

// ListModeFromChar reverses Letter, returning ok=false for an unknown
// letter.
func ListModeFromChar(c byte) (ListModeType, bool) {
	switch c {
	case 'b':
		return ListModeBan, true
	case 'q':
		return ListModeQuiet, true
	case 'e':
		return ListModeExcept, true
	case 'I':
		return ListModeInvex, true
	default:
		return 0, false
	}
}

// AllListModeTypes enumerates every list-mode type, in the reference
// implementation's canonical order.
func AllListModeTypes() []ListModeType {
	return []ListModeType{ListModeBan, ListModeQuiet, ListModeExcept, ListModeInvex}
}
