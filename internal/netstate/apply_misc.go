package netstate

import (
	"sort"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

func (n *Network) applyNewMessage(ev event.Event, d event.NewMessage) ([]NetworkStateChange, error) {
	mid, ok := ev.Target.(netid.MessageId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	if _, ok := n.users[d.Source]; !ok {
		return nil, &LookupError{Kind: netid.KindUser, Id: d.Source}
	}

	m := &Message{
		Id:          mid,
		Source:      d.Source,
		Destination: d.Destination,
		Text:        d.Text,
		IsNotice:    d.IsNotice,
		Timestamp:   ev.Timestamp,
	}
	n.messages[mid] = m
	n.messageOrder = append(n.messageOrder, mid)

	return []NetworkStateChange{MessageAdded{Message: *m}}, nil
}

// EvictStaleMessagesAt drops every recorded message whose timestamp is
// older than now.Add(-maxAge). Eviction produces no notifications: it is
// a local housekeeping sweep, not a network-visible state change (the
// spec's object_expiry Open Question is resolved as age-based with a
// periodic sweep; see DESIGN.md).
func (n *Network) EvictStaleMessagesAt(now time.Time, maxAge time.Duration) int {
	cutoff := now.Add(-maxAge)
	kept := n.messageOrder[:0]
	evicted := 0
	for _, mid := range n.messageOrder {
		m := n.messages[mid]
		if m == nil {
			continue
		}
		if m.Timestamp.Before(cutoff) {
			delete(n.messages, mid)
			evicted++
			continue
		}
		kept = append(kept, mid)
	}
	n.messageOrder = kept
	return evicted
}

func (n *Network) applyNewServer(ev event.Event, d event.NewServer) ([]NetworkStateChange, error) {
	sid, ok := ev.Target.(netid.ServerId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	s := &Server{Id: sid, Name: d.Name, Epoch: d.Epoch, Joined: d.Joined, LastPing: d.Joined}
	n.servers[sid] = s

	return []NetworkStateChange{ServerAdded{Server: *s}}, nil
}

func (n *Network) applyServerPing(ev event.Event, d event.ServerPing) ([]NetworkStateChange, error) {
	sid, ok := ev.Target.(netid.ServerId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	s, ok := n.servers[sid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindServer, Id: sid}
	}
	s.LastPing = ev.Timestamp
	return nil, nil
}

func (n *Network) applyServerQuit(ev event.Event, d event.ServerQuit) ([]NetworkStateChange, error) {
	sid, ok := ev.Target.(netid.ServerId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	s, ok := n.servers[sid]
	if !ok {
		return nil, &LookupError{Kind: netid.KindServer, Id: sid}
	}
	s.Quit = true

	var orphans []netid.UserId
	for uid, u := range n.users {
		if u.Server == sid {
			orphans = append(orphans, uid)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].String() < orphans[j].String() })

	changes := []NetworkStateChange{}
	for _, uid := range orphans {
		changes = append(changes, n.removeUser(uid, "*.net *.split", "server-quit")...)
	}

	changes = append(changes, ServerQuitChange{Server: sid, Reason: d.Reason, Orphans: orphans})
	return changes, nil
}

func (n *Network) applyLoadConfig(ev event.Event, d event.LoadConfig) ([]NetworkStateChange, error) {
	if d.Version <= n.config.Version {
		// Stale config: a lower or equal version loses to whatever is
		// already loaded, so two servers racing a config push converge
		// on the higher version regardless of apply order.
		return nil, nil
	}
	n.config = &NetworkConfig{Version: d.Version, Payload: d.Payload}
	return []NetworkStateChange{ConfigLoaded{Version: d.Version}}, nil
}

func (n *Network) applyNewAuditLogEntry(ev event.Event, d event.NewAuditLogEntry) ([]NetworkStateChange, error) {
	aid, ok := ev.Target.(netid.AuditLogEntryId)
	if !ok {
		return nil, &TypeMismatchError{Details: d, Target: ev.Target}
	}
	entry := &AuditLogEntry{
		Id:       aid,
		Category: d.Category,
		Actor:    d.Actor,
		Message:  d.Message,
		At:       ev.Timestamp,
	}
	n.auditLog[aid] = entry
	n.auditLogOrder = append(n.auditLogOrder, aid)

	return []NetworkStateChange{AuditLogAppended{Entry: *entry}}, nil
}
