package netstate

import (
	"fmt"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/modes"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// resolveChannel follows a channel id through channelAlias to the
// canonical id a name collision merged it onto, or returns id unchanged
// if it was never aliased.
func (n *Network) resolveChannel(id netid.ChannelId) netid.ChannelId {
	for {
		next, ok := n.channelAlias[id]
		if !ok {
			return id
		}
		id = next
	}
}

// resolveChannelMode is resolveChannel's counterpart for a channel's
// mode-state id, which is re-keyed alongside the channel it belongs to.
func (n *Network) resolveChannelMode(id netid.CModeId) netid.CModeId {
	for {
		next, ok := n.modeAlias[id]
		if !ok {
			return id
		}
		id = next
	}
}

func (n *Network) applyNewChannel(ev event.Event, d event.NewChannel) ([]NetworkStateChange, error) {
	cid, ok := ev.Target.(netid.ChannelId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}

	if existingId, bound := n.channelNames[d.Name]; bound && existingId != cid {
		existing := n.channels[existingId]
		if existing != nil && d.Created.Before(existing.Created) {
			// This creation predates the one already recorded under the
			// name; it becomes canonical and the existing channel's
			// state is folded onto it.
			return n.mergeChannel(cid, d, existing), nil
		}
		// The existing channel keeps the name; this creation loses the
		// race and is aliased onto it so events already addressed to
		// cid (and d.ModeId) converge on the survivor.
		n.channelAlias[cid] = existingId
		n.modeAlias[d.ModeId] = existing.ModeId
		return nil, nil
	}

	ch := &Channel{Id: cid, Name: d.Name, ModeId: d.ModeId, Created: d.Created}
	n.channels[cid] = ch
	n.channelModes[d.ModeId] = &ChannelModeState{Id: d.ModeId, Owner: cid}
	n.channelMember[cid] = make(map[netid.UserId]struct{})
	n.channelNames[d.Name] = cid

	return []NetworkStateChange{ChannelAdded{Channel: *ch}}, nil
}

// mergeChannel folds loser, the channel currently recorded under the
// contested name, onto winnerId: a NewChannel event whose Created
// predates loser's arrived later, per the channel name-collision policy
// (earlier-timestamp creation's modes and founding membership survive,
// non-conflicting mode bits union in, and member privilege flags from
// the now-demoted side are dropped).
func (n *Network) mergeChannel(winnerId netid.ChannelId, winner event.NewChannel, loser *Channel) []NetworkStateChange {
	loserId, loserModeId := loser.Id, loser.ModeId

	winnerMode := &ChannelModeState{Id: winner.ModeId, Owner: winnerId}
	if loserMode, ok := n.channelModes[loserModeId]; ok {
		winnerMode.Flags = winnerMode.Flags.Union(loserMode.Flags)
	}

	members := n.channelMember[loserId]
	newMembers := make(map[netid.UserId]struct{}, len(members))
	for uid := range members {
		oldMid := netid.MembershipId{User: uid, Channel: loserId}
		m := n.memberships[oldMid]
		newMid := netid.MembershipId{User: uid, Channel: winnerId}
		flags := modes.MembershipFlagSet(0)
		if m != nil {
			flags = m.Flags.Clear(modes.MembershipOp).Clear(modes.MembershipVoice)
		}
		n.memberships[newMid] = &Membership{Id: newMid, Flags: flags}
		delete(n.memberships, oldMid)
		newMembers[uid] = struct{}{}
	}

	for _, lm := range n.listModes {
		if lm.Channel == loserId {
			lm.Channel = winnerId
		}
	}

	delete(n.channels, loserId)
	delete(n.channelModes, loserModeId)
	delete(n.channelMember, loserId)

	ch := &Channel{
		Id:      winnerId,
		Name:    winner.Name,
		ModeId:  winner.ModeId,
		Created: winner.Created,
		Topic:   loser.Topic,
		TopicBy: loser.TopicBy,
		TopicAt: loser.TopicAt,
	}
	n.channels[winnerId] = ch
	n.channelModes[winner.ModeId] = winnerMode
	n.channelMember[winnerId] = newMembers
	n.channelNames[winner.Name] = winnerId
	n.channelAlias[loserId] = winnerId
	n.modeAlias[loserModeId] = winner.ModeId

	return []NetworkStateChange{ChannelAdded{Channel: *ch}}
}

// isBanned reports whether u's current hostmask is blocked by a ban
// entry on cid's list modes with no matching exception, per the
// concurrent-join-and-ban policy: only a ban already visible to this
// replica at apply time can block the join.
func (n *Network) isBanned(cid netid.ChannelId, u *User) bool {
	var bans, excepts []netid.Pattern
	for _, lm := range n.listModes {
		if lm.Channel != cid {
			continue
		}
		var bucket *[]netid.Pattern
		switch lm.Type {
		case modes.ListModeBan:
			bucket = &bans
		case modes.ListModeExcept:
			bucket = &excepts
		default:
			continue
		}
		for _, entry := range lm.Entries {
			*bucket = append(*bucket, entry.Pattern)
		}
	}
	if len(bans) == 0 {
		return false
	}
	hostmask := fmt.Sprintf("%s!%s@%s", u.Nickname, u.Username, u.Visible)
	return n.policy.IsBanned(hostmask, bans, excepts)
}

func (n *Network) applyChannelJoin(ev event.Event, d event.ChannelJoin) ([]NetworkStateChange, error) {
	target, ok := ev.Target.(netid.MembershipId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	mid := netid.MembershipId{User: target.User, Channel: n.resolveChannel(target.Channel)}
	u, ok := n.users[mid.User]
	if !ok {
		return nil, &LookupError{Kind: netid.KindUser, Id: mid.User}
	}
	if _, ok := n.channels[mid.Channel]; !ok {
		return nil, &LookupError{Kind: netid.KindChannel, Id: mid.Channel}
	}

	if n.isBanned(mid.Channel, u) {
		// Rejected outright rather than admitted and undone later: a ban
		// only blocks a join once it is already part of this replica's
		// state when the join is applied.
		return nil, nil
	}

	m := &Membership{Id: mid, Flags: d.InitialFlags}
	n.memberships[mid] = m
	if n.channelMember[mid.Channel] == nil {
		n.channelMember[mid.Channel] = make(map[netid.UserId]struct{})
	}
	n.channelMember[mid.Channel][mid.User] = struct{}{}

	return []NetworkStateChange{MembershipAdded{Membership: *m}}, nil
}

func (n *Network) applyChannelPart(ev event.Event, d event.ChannelPart) ([]NetworkStateChange, error) {
	target, ok := ev.Target.(netid.MembershipId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	mid := netid.MembershipId{User: target.User, Channel: n.resolveChannel(target.Channel)}
	if _, ok := n.memberships[mid]; !ok {
		// The membership may already be gone because a concurrently
		// applied kick or quit beat this part to the punch; that is not
		// an error, just a no-op convergence point.
		return nil, nil
	}
	delete(n.memberships, mid)
	delete(n.channelMember[mid.Channel], mid.User)

	return []NetworkStateChange{MembershipRemoved{Id: mid, Reason: "part"}}, nil
}

func (n *Network) applyChannelKick(ev event.Event, d event.ChannelKick) ([]NetworkStateChange, error) {
	target, ok := ev.Target.(netid.MembershipId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	mid := netid.MembershipId{User: target.User, Channel: n.resolveChannel(target.Channel)}
	if _, ok := n.memberships[mid]; !ok {
		// Already removed by a racing part/quit/kick: converge silently.
		return nil, nil
	}
	delete(n.memberships, mid)
	delete(n.channelMember[mid.Channel], mid.User)

	return []NetworkStateChange{MembershipRemoved{Id: mid, Reason: "kick"}}, nil
}

func (n *Network) applyChannelModeChange(ev event.Event, d event.ChannelModeChange) ([]NetworkStateChange, error) {
	target, ok := ev.Target.(netid.CModeId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	cmid := n.resolveChannelMode(target)
	cm, ok := n.channelModes[cmid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindChannelMode, Id: cmid}
	}

	for _, f := range []modes.ChannelModeFlag{modes.ChannelModeNoExternal, modes.ChannelModeTopicLock, modes.ChannelModeSecret} {
		if d.Added.IsSet(f) {
			cm.Flags = cm.Flags.Set(f)
		}
		if d.Removed.IsSet(f) {
			cm.Flags = cm.Flags.Clear(f)
		}
	}

	for _, grant := range d.MemberAdded {
		mid := netid.MembershipId{User: grant.User, Channel: cm.Owner}
		if m, ok := n.memberships[mid]; ok {
			m.Flags = m.Flags.Union(grant.Flags)
		}
	}
	for _, revoke := range d.MemberRemoved {
		mid := netid.MembershipId{User: revoke.User, Channel: cm.Owner}
		if m, ok := n.memberships[mid]; ok {
			m.Flags &^= revoke.Flags
		}
	}

	return []NetworkStateChange{ChannelModeChanged{Channel: cm.Owner}}, nil
}

func (n *Network) applyChannelTopic(ev event.Event, d event.ChannelTopic) ([]NetworkStateChange, error) {
	target, ok := ev.Target.(netid.ChannelId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	cid := n.resolveChannel(target)
	ch, ok := n.channels[cid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindChannel, Id: cid}
	}
	// A topic set with an earlier timestamp than the one already
	// recorded loses: two servers racing a topic change converge on
	// whichever happened first in wall-clock terms, not application
	// order.
	if !ch.TopicAt.IsZero() && d.SetTime.Before(ch.TopicAt) {
		return nil, nil
	}
	ch.Topic = d.Text
	ch.TopicBy = d.SetBy
	ch.TopicAt = d.SetTime

	return []NetworkStateChange{ChannelTopicChanged{Channel: cid, Topic: d.Text}}, nil
}

func (n *Network) applyListModeAdd(ev event.Event, d event.ListModeAdd) ([]NetworkStateChange, error) {
	lmid, ok := ev.Target.(netid.ListModeId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	channel := n.resolveChannel(d.Channel)
	if _, ok := n.channels[channel]; !ok {
		return nil, &LookupError{Kind: netid.KindChannel, Id: channel}
	}
	lm := n.ensureListMode(lmid, channel, d.Type)
	if _, exists := lm.Entries[d.EntryId]; exists {
		return nil, nil
	}
	entry := &ListModeEntry{Id: d.EntryId, Pattern: d.Pattern, SetBy: d.SetBy, SetTime: d.SetTime}
	lm.Entries[d.EntryId] = entry

	return []NetworkStateChange{ListModeEntryAdded{List: lmid, Entry: *entry}}, nil
}

func (n *Network) applyListModeRemove(ev event.Event, d event.ListModeRemove) ([]NetworkStateChange, error) {
	lmid, ok := ev.Target.(netid.ListModeId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	lm, ok := n.listModes[lmid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindListMode, Id: lmid}
	}
	if _, ok := lm.Entries[d.EntryId]; !ok {
		return nil, nil
	}
	delete(lm.Entries, d.EntryId)

	return []NetworkStateChange{ListModeEntryRemoved{List: lmid, Entry: d.EntryId}}, nil
}

// ensureListMode looks up or lazily creates the named channel's list
// mode bucket. List mode buckets aren't created by a dedicated event in
// this core (unlike channels and their ChannelMode, they have no
// independent existence before their first entry); the first
// ListModeAdd targeting a fresh ListModeId establishes it.
func (n *Network) ensureListMode(id netid.ListModeId, channel netid.ChannelId, kind modes.ListModeType) *ListMode {
	lm, ok := n.listModes[id]
	if !ok {
		lm = &ListMode{Id: id, Channel: channel, Type: kind, Entries: make(map[netid.ListModeEntryId]*ListModeEntry)}
		n.listModes[id] = lm
	}
	return lm
}
