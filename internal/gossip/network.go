package gossip

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// GossipNetwork is one server's view of the replication mesh: the set of
// peer Links it maintains (dialed outbound, or accepted from a peer that
// dialed in), plus the single inbound stream every peer's frames are
// multiplexed onto. The replication orchestrator (package replog) is the
// sole reader of Inbound(); GossipNetwork itself only moves bytes.
type GossipNetwork struct {
	self      netid.ServerId
	tlsConfig *tls.Config

	mu      sync.RWMutex
	links   map[netid.ServerId]*Link
	// accepted holds connections from peers that dialed us before we
	// know their ServerId's corresponding outbound Link — keyed by the
	// ServerId named in the peer's opening Ping so a send can still reach
	// a peer whose outbound Link (if any) isn't up yet.
	accepted map[netid.ServerId]*Conn

	inbound chan InboundMessage

	dedup singleflight.Group
}

// NewGossipNetwork returns a GossipNetwork for this server. self is this
// server's own ID, used to answer a peer's identifying Ping on accept.
func NewGossipNetwork(self netid.ServerId, tlsConfig *tls.Config) *GossipNetwork {
	return &GossipNetwork{
		self:      self,
		tlsConfig: tlsConfig,
		links:     make(map[netid.ServerId]*Link),
		accepted:  make(map[netid.ServerId]*Conn),
		inbound:   make(chan InboundMessage, 256),
	}
}

// Connect registers an outbound Link to a peer and starts its reconnect
// loop in the background. ctx bounds the link's lifetime.
func (g *GossipNetwork) Connect(ctx context.Context, serverId netid.ServerId, address string) {
	link := NewLink(serverId, address, g.tlsConfig)
	g.mu.Lock()
	g.links[serverId] = link
	g.mu.Unlock()

	go func() {
		_ = link.Run(ctx, g.inbound)
	}()
}

// Listen accepts inbound peer connections on address until ctx is
// cancelled. Every accepted connection must open with a Ping frame
// identifying the dialing server, mirroring the mesh's symmetric
// handshake: whichever side dials, the first frame always names the
// sender.
func (g *GossipNetwork) Listen(ctx context.Context, address string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("gossip: listen on %s: %w", address, err)
	}
	if g.tlsConfig != nil {
		ln = tls.NewListener(ln, g.tlsConfig)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("gossip: accept: %w", err)
		}
		go g.handleAccepted(ctx, newConn(raw))
	}
}

func (g *GossipNetwork) handleAccepted(ctx context.Context, conn *Conn) {
	defer conn.Close()

	hello, err := conn.Receive()
	if err != nil || hello.Kind != KindPing {
		return
	}
	ping, err := hello.DecodePing()
	if err != nil {
		return
	}

	g.mu.Lock()
	g.accepted[ping.Server] = conn
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		if g.accepted[ping.Server] == conn {
			delete(g.accepted, ping.Server)
		}
		g.mu.Unlock()
	}()

	pong, err := Encode("", KindPong, PongPayload{Server: g.self, Timestamp: time.Now()})
	if err == nil {
		_ = conn.Send(pong)
	}

	for {
		msg, err := conn.Receive()
		if err != nil {
			return
		}
		gossipMetrics.eventsReceived.Add(ctx, 1)
		select {
		case g.inbound <- InboundMessage{From: ping.Server, Message: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// Inbound returns the channel every peer's frames are delivered on.
func (g *GossipNetwork) Inbound() <-chan InboundMessage {
	return g.inbound
}

// connFor returns whichever connection this server currently has to
// serverId, preferring an outbound Link (it carries the reconnect
// policy) and falling back to an accepted inbound connection.
func (g *GossipNetwork) connFor(serverId netid.ServerId) (sender, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if l, ok := g.links[serverId]; ok && l.Connected() {
		return l, true
	}
	if c, ok := g.accepted[serverId]; ok {
		return c, true
	}
	return nil, false
}

type sender interface {
	Send(Message) error
}

// SendTo delivers msg to exactly one peer.
func (g *GossipNetwork) SendTo(ctx context.Context, serverId netid.ServerId, msg Message) error {
	conn, ok := g.connFor(serverId)
	if !ok {
		return fmt.Errorf("gossip: no connection to server %v", serverId)
	}
	if err := conn.Send(msg); err != nil {
		return err
	}
	gossipMetrics.eventsSent.Add(ctx, 1)
	return nil
}

// Broadcast delivers msg to every currently reachable peer, skipping (and
// not failing for) any peer this server isn't connected to right now.
func (g *GossipNetwork) Broadcast(ctx context.Context, msg Message) {
	g.mu.RLock()
	targets := make(map[netid.ServerId]struct{}, len(g.links)+len(g.accepted))
	for id := range g.links {
		targets[id] = struct{}{}
	}
	for id := range g.accepted {
		targets[id] = struct{}{}
	}
	g.mu.RUnlock()

	for id := range targets {
		_ = g.SendTo(ctx, id, msg)
	}
}

// PublishEvent broadcasts a newly-applied event to every peer.
func (g *GossipNetwork) PublishEvent(ctx context.Context, ev event.Event) {
	msg, err := Encode(uuid.NewString(), KindNewEvent, NewEventPayload{Event: ev})
	if err != nil {
		return
	}
	g.Broadcast(ctx, msg)
}

// RequestSync asks serverId for every event missing from ours, collapsing
// concurrent duplicate requests to the same peer for the same clock into
// one wire round-trip — e.g. two independently-triggered gap detectors
// noticing the same stale peer at once. The peer's BulkEvents reply is
// delivered asynchronously on Inbound(), like any other frame; RequestSync
// only dedupes the *send*, it does not wait for the reply.
func (g *GossipNetwork) RequestSync(ctx context.Context, serverId netid.ServerId, c clock.EventClock) error {
	clockKey, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("gossip: encode sync clock: %w", err)
	}
	key := fmt.Sprintf("%v:%s", serverId, clockKey)
	_, err, _ = g.dedup.Do(key, func() (interface{}, error) {
		msg, err := Encode(uuid.NewString(), KindSyncRequest, SyncRequestPayload{Clock: c})
		if err != nil {
			return nil, err
		}
		if err := g.SendTo(ctx, serverId, msg); err != nil {
			return nil, err
		}
		gossipMetrics.syncRequests.Add(ctx, 1)
		return nil, nil
	})
	return err
}

// RequestNetworkState asks serverId for a full state snapshot.
func (g *GossipNetwork) RequestNetworkState(ctx context.Context, serverId netid.ServerId) error {
	msg, err := Encode(uuid.NewString(), KindGetNetworkState, GetNetworkStatePayload{})
	if err != nil {
		return err
	}
	return g.SendTo(ctx, serverId, msg)
}

// ReplyBulkEvents answers a peer's SyncRequest with the batch of events
// it was missing, followed by a Done frame marking the end of this sync
// round (the peer may need several round trips if the log held more than
// one batch worth, but this orchestrator always sends its entire Missing
// result in one BulkEvents message).
func (g *GossipNetwork) ReplyBulkEvents(ctx context.Context, serverId netid.ServerId, events []event.Event) error {
	msg, err := Encode(uuid.NewString(), KindBulkEvents, BulkEventsPayload{Events: events})
	if err != nil {
		return err
	}
	if err := g.SendTo(ctx, serverId, msg); err != nil {
		return err
	}
	done, err := Encode(uuid.NewString(), KindDone, DonePayload{})
	if err != nil {
		return err
	}
	return g.SendTo(ctx, serverId, done)
}

// ReplyNetworkState answers a peer's GetNetworkState request with a full
// snapshot, used to bootstrap a server whose gap is too large (or whose
// epoch changed) for SyncRequest to close incrementally.
func (g *GossipNetwork) ReplyNetworkState(ctx context.Context, serverId netid.ServerId, snapshot NetworkStatePayload) error {
	msg, err := Encode(uuid.NewString(), KindNetworkState, snapshot)
	if err != nil {
		return err
	}
	return g.SendTo(ctx, serverId, msg)
}

// Ping sends a liveness probe to every peer.
func (g *GossipNetwork) Ping(ctx context.Context) {
	msg, err := Encode("", KindPing, PingPayload{Server: g.self, Timestamp: time.Now()})
	if err != nil {
		return
	}
	g.Broadcast(ctx, msg)
}
