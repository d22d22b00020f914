package netstate

import "github.com/Libera-Chat/sable-sub002/internal/netid"

// IsFatalInvariant reports whether err, returned from Apply, reflects a
// broken invariant rather than an ordinary concurrent race. Membership,
// Channel, and User lookups can legitimately miss (a kick racing a part,
// a quit racing a kick) and are left to converge silently or be dropped;
// a missing UserMode or ChannelMode, by contrast, can never happen
// without a bug, since those objects are created atomically with their
// owner and never independently removed. Replicas must agree on which
// case this is — silently continuing past a genuine invariant violation
// would let this replica's state permanently diverge from the rest of
// the network.
func IsFatalInvariant(err error) bool {
	le, ok := err.(*LookupError)
	if !ok {
		return false
	}
	switch le.Kind {
	case netid.KindUserMode, netid.KindChannelMode:
		return true
	default:
		return false
	}
}
