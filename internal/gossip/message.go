// Package gossip implements the wire protocol and peer transport for the
// network's gossip mesh: every server speaks a small set of message kinds
// to its peers — propagating new events, bulk-catching-up a peer that
// fell behind, requesting a resync after a gap, and exchanging a full
// state snapshot when a new server joins.
package gossip

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/event"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
)

// Kind tags the variant of a Message's payload.
type Kind string

const (
	KindNewEvent        Kind = "new_event"
	KindBulkEvents      Kind = "bulk_events"
	KindSyncRequest     Kind = "sync_request"
	KindGetNetworkState Kind = "get_network_state"
	KindNetworkState    Kind = "network_state"
	KindPing            Kind = "ping"
	KindPong            Kind = "pong"
	KindDone            Kind = "done"
)

// Message is one frame exchanged between two peers: a kind tag, a
// correlation ID (used to match a request to its response; notifications
// such as NewEvent leave it blank), and the kind-specific payload.
type Message struct {
	Id      string          `json:"id,omitempty"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEventPayload carries a single freshly-created event for immediate
// propagation to every connected peer.
type NewEventPayload struct {
	Event event.Event `json:"event"`
}

// BulkEventsPayload carries a batch of events, sent either as the
// response to a SyncRequest or as an unsolicited catch-up push.
type BulkEventsPayload struct {
	Events []event.Event `json:"events"`
}

// SyncRequestPayload asks the receiving peer for every event it holds
// that the sender's EventClock does not yet reflect.
type SyncRequestPayload struct {
	Clock clock.EventClock `json:"clock"`
}

// GetNetworkStatePayload requests a full state snapshot; cmd/sabled
// sends it when a replica with peers starts without a snapshot file.
type GetNetworkStatePayload struct{}

// NetworkStatePayload carries the full snapshot requested by
// GetNetworkState.
type NetworkStatePayload struct {
	Snapshot netstate.NetworkSnapshot `json:"snapshot"`
}

// PingPayload is a transport-level probe; Pong is its response. Both
// carry the sender's ServerId: an accepted connection's opening Ping
// names the dialing peer, and a Ping is answered with a Pong sent to
// that ServerId. Pongs do not touch Server.LastPing, which advances only
// on gossiped ServerPing events.
type PingPayload struct {
	Server    netid.ServerId `json:"server"`
	Timestamp time.Time      `json:"timestamp"`
}

type PongPayload struct {
	Server    netid.ServerId `json:"server"`
	Timestamp time.Time      `json:"timestamp"`
}

// DonePayload terminates a SyncRequest reply: the requester knows it has
// seen every BulkEvents batch the peer is going to send once Done
// arrives, so it can stop waiting on that particular sync round.
type DonePayload struct{}

// Encode builds a Message from a correlation ID and a concrete payload.
func Encode(id string, kind Kind, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("gossip: marshal %s payload: %w", kind, err)
	}
	return Message{Id: id, Kind: kind, Payload: data}, nil
}

func (m Message) DecodeNewEvent() (NewEventPayload, error) {
	var p NewEventPayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodeBulkEvents() (BulkEventsPayload, error) {
	var p BulkEventsPayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodeSyncRequest() (SyncRequestPayload, error) {
	var p SyncRequestPayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodeNetworkState() (NetworkStatePayload, error) {
	var p NetworkStatePayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodePing() (PingPayload, error) {
	var p PingPayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodePong() (PongPayload, error) {
	var p PongPayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

func (m Message) DecodeDone() (DonePayload, error) {
	var p DonePayload
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}
