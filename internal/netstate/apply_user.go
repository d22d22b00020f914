package netstate

import (
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// userWins reports whether the user created at aCreated/aId keeps a
// contested nickname over one created at bCreated/bId: the earlier
// timestamp wins, and the lexicographically smaller UserId string breaks
// an exact tie so every replica resolves the race identically regardless
// of apply order.
func userWins(aCreated int64, aId netid.UserId, bCreated int64, bId netid.UserId) bool {
	if aCreated != bCreated {
		return aCreated < bCreated
	}
	return aId.String() < bId.String()
}

func (n *Network) applyNewUser(ev event.Event, d event.NewUser) ([]NetworkStateChange, error) {
	uid, ok := ev.Target.(netid.UserId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}

	nick := d.Nickname
	var changes []NetworkStateChange
	collided := false
	if existing, bound := n.nicks[nick]; bound && existing != uid {
		existingUser := n.users[existing]
		if existingUser == nil || userWins(existingUser.Created.UnixNano(), existingUser.Id, ev.Timestamp.UnixNano(), uid) {
			// The existing registration keeps the nick; the new user
			// falls back to its hashed nickname.
			nick = netid.HashedNickFor(uid)
			collided = true
		} else {
			// The new user's claim is earlier; the existing user is
			// rebound to its own fallback.
			oldNick := existingUser.Nickname
			fallback := netid.HashedNickFor(existing)
			delete(n.nicks, oldNick)
			n.nicks[fallback] = existing
			existingUser.Nickname = fallback
			changes = append(changes, UserNickChanged{User: existing, OldNick: oldNick, NewNick: fallback, Collided: true})
		}
	}

	u := &User{
		Id:       uid,
		Nickname: nick,
		Username: d.Username,
		Visible:  d.Visible,
		ModeId:   d.ModeId,
		Server:   d.Server,
		Created:  ev.Timestamp,
	}
	n.users[uid] = u
	n.nicks[nick] = uid
	n.userModes[d.ModeId] = &UserModeState{Id: d.ModeId, Owner: uid}

	changes = append(changes, UserAdded{User: *u})
	if collided {
		changes = append(changes, UserNickChanged{User: uid, OldNick: d.Nickname, NewNick: nick, Collided: true})
	}
	return changes, nil
}

func (n *Network) applyUserNickChange(ev event.Event, d event.UserNickChange) ([]NetworkStateChange, error) {
	uid, ok := ev.Target.(netid.UserId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	u, ok := n.users[uid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindUser, Id: uid}
	}

	newNick := d.NewNick
	collided := false
	if existing, bound := n.nicks[newNick]; bound && existing != uid {
		newNick = netid.HashedNickFor(uid)
		collided = true
	}

	oldNick := u.Nickname
	delete(n.nicks, oldNick)
	n.nicks[newNick] = uid
	u.Nickname = newNick

	return []NetworkStateChange{UserNickChanged{User: uid, OldNick: oldNick, NewNick: newNick, Collided: collided}}, nil
}

func (n *Network) applyUserModeChange(ev event.Event, d event.UserModeChange) ([]NetworkStateChange, error) {
	mid, ok := ev.Target.(netid.UModeId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	um, ok := n.userModes[mid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindUserMode, Id: mid}
	}

	for _, f := range []modes.UserModeFlag{modes.UserModeInvisible, modes.UserModeOper} {
		if d.Added.IsSet(f) {
			um.Flags = um.Flags.Set(f)
		}
		if d.Removed.IsSet(f) {
			um.Flags = um.Flags.Clear(f)
		}
	}

	return []NetworkStateChange{UserModeChanged{User: um.Owner, Added: d.Added, Removed: d.Removed}}, nil
}

func (n *Network) applyUserQuit(ev event.Event, d event.UserQuit) ([]NetworkStateChange, error) {
	uid, ok := ev.Target.(netid.UserId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	if _, ok := n.users[uid]; !ok {
		return nil, &LookupError{Kind: netid.KindUser, Id: uid}
	}
	return n.removeUser(uid, d.Message, "quit"), nil
}

// removeUser cascades the destruction of uid's NickBinding, UserMode,
// and Memberships, then the User itself, per the destruction-cascades
// rule in the data model. It is shared by a voluntary UserQuit and the
// synthetic per-user removal a ServerQuit performs for every user it
// orphans; reason distinguishes the two in the MembershipRemoved
// notifications ("quit" vs "server-quit"). The caller is responsible for
// having already checked uid exists.
func (n *Network) removeUser(uid netid.UserId, message, reason string) []NetworkStateChange {
	u := n.users[uid]

	var changes []NetworkStateChange
	for chid, members := range n.channelMember {
		if _, in := members[uid]; in {
			mid := netid.MembershipId{User: uid, Channel: chid}
			delete(n.memberships, mid)
			delete(members, uid)
			changes = append(changes, MembershipRemoved{Id: mid, Reason: reason})
		}
	}

	delete(n.nicks, u.Nickname)
	delete(n.users, uid)
	delete(n.userModes, u.ModeId)

	changes = append(changes, UserQuitChange{User: uid, Message: message})
	return changes
}

func (n *Network) applyOperUp(ev event.Event, d event.OperUp) ([]NetworkStateChange, error) {
	uid, ok := ev.Target.(netid.UserId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	u, ok := n.users[uid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindUser, Id: uid}
	}
	if um, ok := n.userModes[u.ModeId]; ok {
		um.Flags = um.Flags.Set(modes.UserModeOper)
	}
	return []NetworkStateChange{UserOperUp{User: uid, OperName: d.OperName}}, nil
}
