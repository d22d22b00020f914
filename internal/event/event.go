// Package event defines Event, the unit the network agrees on, and
// EventDetails, the tagged union of the things an Event can record.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/clock"
	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// EventDetails is the tagged union of every kind of change the network
// can agree on. Concrete types — NewUser, ChannelJoin, ChannelModeChange,
// and so on — each report the ObjectKind their Event's Target must carry,
// checked at apply time since Go has no closed sum type to enforce it at
// compile time.
type EventDetails interface {
	TargetKind() netid.ObjectKind
}

// Event is one entry in a server's local event log and the unit
// broadcast over gossip. Its Id is allocated by its originating server;
// its Clock is that server's dependency set at the moment of creation,
// used by remote replicas to determine whether they have already seen
// every event this one depends on.
type Event struct {
	Id        netid.EventId    `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Clock     clock.EventClock `json:"clock"`
	Target    netid.ObjectId   `json:"target"`
	Details   EventDetails     `json:"details"`
}

// wireEvent is Event's JSON shape with Target and Details carried as
// opaque kind-tagged envelopes, since neither netid.ObjectId nor
// EventDetails is natively serializable as a Go interface.
type wireEvent struct {
	Id        netid.EventId    `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Clock     clock.EventClock `json:"clock"`
	Target    json.RawMessage  `json:"target"`
	Details   json.RawMessage  `json:"details"`
}

// MarshalJSON encodes e with its Target and Details as kind-tagged
// envelopes.
func (e Event) MarshalJSON() ([]byte, error) {
	target, err := netid.MarshalObjectId(e.Target)
	if err != nil {
		return nil, fmt.Errorf("event: marshal target: %w", err)
	}
	details, err := MarshalEventDetails(e.Details)
	if err != nil {
		return nil, fmt.Errorf("event: marshal details: %w", err)
	}
	return json.Marshal(wireEvent{
		Id:        e.Id,
		Timestamp: e.Timestamp,
		Clock:     e.Clock,
		Target:    target,
		Details:   details,
	})
}

// UnmarshalJSON decodes the kind-tagged wire form back into an Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("event: decode envelope: %w", err)
	}
	target, err := netid.UnmarshalObjectId(w.Target)
	if err != nil {
		return fmt.Errorf("event: decode target: %w", err)
	}
	details, err := UnmarshalEventDetails(w.Details)
	if err != nil {
		return fmt.Errorf("event: decode details: %w", err)
	}
	e.Id = w.Id
	e.Timestamp = w.Timestamp
	e.Clock = w.Clock
	e.Target = target
	e.Details = details
	return nil
}

// detailsKind tags the concrete Go type of an EventDetails value for the
// JSON envelope, independent of the ObjectKind its target carries (an
// EventDetails variant and an ObjectKind are not 1:1 — NewUser and
// UserNickChange both target a User).
type detailsKind string

const (
	kindNewUser           detailsKind = "NewUser"
	kindUserNickChange    detailsKind = "UserNickChange"
	kindUserModeChange    detailsKind = "UserModeChange"
	kindUserQuit          detailsKind = "UserQuit"
	kindOperUp            detailsKind = "OperUp"
	kindNewChannel        detailsKind = "NewChannel"
	kindChannelJoin       detailsKind = "ChannelJoin"
	kindChannelPart       detailsKind = "ChannelPart"
	kindChannelKick       detailsKind = "ChannelKick"
	kindChannelModeChange detailsKind = "ChannelModeChange"
	kindChannelTopic      detailsKind = "ChannelTopic"
	kindListModeAdd       detailsKind = "ListModeAdd"
	kindListModeRemove    detailsKind = "ListModeRemove"
	kindNewMessage        detailsKind = "NewMessage"
	kindNewServer         detailsKind = "NewServer"
	kindServerPing        detailsKind = "ServerPing"
	kindServerQuit        detailsKind = "ServerQuit"
	kindLoadConfig        detailsKind = "LoadConfig"
	kindNewAuditLogEntry  detailsKind = "NewAuditLogEntry"
)

type detailsEnvelope struct {
	Kind detailsKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalEventDetails encodes d as a kind-tagged JSON envelope.
func MarshalEventDetails(d EventDetails) ([]byte, error) {
	kind, err := detailsKindOf(d)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s payload: %w", kind, err)
	}
	return json.Marshal(detailsEnvelope{Kind: kind, Data: data})
}

// UnmarshalEventDetails decodes a kind-tagged JSON envelope back into the
// concrete EventDetails type it names.
func UnmarshalEventDetails(raw []byte) (EventDetails, error) {
	var env detailsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("event: decode envelope: %w", err)
	}

	var d EventDetails
	switch env.Kind {
	case kindNewUser:
		var v NewUser
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindUserNickChange:
		var v UserNickChange
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindUserModeChange:
		var v UserModeChange
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindUserQuit:
		var v UserQuit
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindOperUp:
		var v OperUp
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindNewChannel:
		var v NewChannel
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindChannelJoin:
		var v ChannelJoin
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindChannelPart:
		var v ChannelPart
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindChannelKick:
		var v ChannelKick
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindChannelModeChange:
		var v ChannelModeChange
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindChannelTopic:
		var v ChannelTopic
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindListModeAdd:
		var v ListModeAdd
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindListModeRemove:
		var v ListModeRemove
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindNewMessage:
		var v NewMessage
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindNewServer:
		var v NewServer
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindServerPing:
		var v ServerPing
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindServerQuit:
		var v ServerQuit
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindLoadConfig:
		var v LoadConfig
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	case kindNewAuditLogEntry:
		var v NewAuditLogEntry
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		d = v
	default:
		return nil, fmt.Errorf("event: unknown details kind %q", env.Kind)
	}
	return d, nil
}

func detailsKindOf(d EventDetails) (detailsKind, error) {
	switch d.(type) {
	case NewUser:
		return kindNewUser, nil
	case UserNickChange:
		return kindUserNickChange, nil
	case UserModeChange:
		return kindUserModeChange, nil
	case UserQuit:
		return kindUserQuit, nil
	case OperUp:
		return kindOperUp, nil
	case NewChannel:
		return kindNewChannel, nil
	case ChannelJoin:
		return kindChannelJoin, nil
	case ChannelPart:
		return kindChannelPart, nil
	case ChannelKick:
		return kindChannelKick, nil
	case ChannelModeChange:
		return kindChannelModeChange, nil
	case ChannelTopic:
		return kindChannelTopic, nil
	case ListModeAdd:
		return kindListModeAdd, nil
	case ListModeRemove:
		return kindListModeRemove, nil
	case NewMessage:
		return kindNewMessage, nil
	case NewServer:
		return kindNewServer, nil
	case ServerPing:
		return kindServerPing, nil
	case ServerQuit:
		return kindServerQuit, nil
	case LoadConfig:
		return kindLoadConfig, nil
	case NewAuditLogEntry:
		return kindNewAuditLogEntry, nil
	default:
		return "", fmt.Errorf("event: unregistered EventDetails type %T", d)
	}
}
