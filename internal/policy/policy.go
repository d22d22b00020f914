// Package policy implements the pluggable policy boundary the network
// state machine calls out to at the one point a replicated invariant
// depends on it: whether a join should be blocked by a ban list entry
// that may have been added concurrently with the join itself. The rest
// of a full IRC server's policy surface (capability negotiation,
// client-visible command permission checks) is client-session logic and
// stays out of this module.
package policy

import (
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// BanResolver decides whether a join from the given hostmask should be
// rejected because it matches a ban entry, and whether a ban exception
// (an except-list entry) lifts that rejection.
type BanResolver interface {
	// IsBanned reports whether hostmask matches any pattern in bans and
	// is not exempted by any pattern in excepts.
	IsBanned(hostmask string, bans, excepts []netid.Pattern) bool
}

// DefaultBanResolver matches hostmasks against patterns using the
// standard glob semantics (netid.Pattern.Matches), with a ban exception
// always taking precedence over a ban — the ordering the
// reference implementation uses to resolve a join that races a
// concurrently-applied ban entry: the join is only rejected if, at the
// moment this replica applies it, a matching ban exists with no
// matching exception already applied.
type DefaultBanResolver struct{}

func (DefaultBanResolver) IsBanned(hostmask string, bans, excepts []netid.Pattern) bool {
	matched := false
	for _, b := range bans {
		if b.Matches(hostmask) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, e := range excepts {
		if e.Matches(hostmask) {
			return false
		}
	}
	return true
}
