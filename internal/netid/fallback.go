package netid

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// HashedNickFor derives the deterministic fallback nickname assigned to
// the loser of a nickname collision (see the network state machine's
// conflict-resolution policy). Every replica must compute the same
// fallback for the same UserId without coordination, so the algorithm is
// pinned precisely: FNV-1a of a stable rendering of the UserId, written
// out in decimal and truncated to MaxNicknameLength.
//
// This mirrors the reference implementation's hashed_nick_for, which
// hashes the UserId with a 32-bit FNV-1a hasher and renders the digest as
// decimal digits.
func HashedNickFor(id UserId) Nickname {
	h := fnv.New32a()
	// Sequential.String() is a stable, unambiguous rendering of the three
	// fields; every replica derives the identical byte sequence from the
	// identical UserId.
	_, _ = fmt.Fprint(h, id.String())

	digits := strconv.FormatUint(uint64(h.Sum32()), 10)
	if len(digits) > MaxNicknameLength {
		digits = digits[:MaxNicknameLength]
	}
	// Nickname validation requires non-empty; a 32-bit sum always
	// produces at least one digit, so this never fails.
	nick, _ := NewNickname(digits)
	return nick
}
