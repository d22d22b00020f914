package netid

import (
	"encoding/json"
	"fmt"
)

// ObjectId is the tagged union of every identifier the network uses to
// name an object that an Event can target. Concrete types — ServerId,
// EventId, UserId, ChannelId, NicknameId, MembershipId, and so on — each
// satisfy it by reporting their own Kind.
//
// Go has no closed sum type, so type-safety at the boundary between an
// event's target and its EventDetails variant is checked at apply time
// (see netstate.Apply) rather than by the compiler; a mismatch is a
// TypeMismatch error, never a corrupted state.
type ObjectId interface {
	Kind() ObjectKind
}

// objectIDEnvelope is the wire representation of an ObjectId: a kind tag
// plus the kind-specific payload. This lets a single Go interface value
// round-trip through JSON, which has no notion of tagged unions.
type objectIDEnvelope struct {
	Kind ObjectKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalObjectId encodes id as a kind-tagged JSON envelope.
func MarshalObjectId(id ObjectId) ([]byte, error) {
	if id == nil {
		return json.Marshal(nil)
	}
	data, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("netid: marshal %s payload: %w", id.Kind(), err)
	}
	return json.Marshal(objectIDEnvelope{Kind: id.Kind(), Data: data})
}

// UnmarshalObjectId decodes a kind-tagged JSON envelope back into the
// concrete ObjectId type it names.
func UnmarshalObjectId(raw []byte) (ObjectId, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var env objectIDEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("netid: decode envelope: %w", err)
	}

	var id ObjectId
	switch env.Kind {
	case KindServer:
		var v ServerId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindEpoch:
		var v EpochId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindEvent:
		var v EventId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindUser:
		var v UserId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindUserMode:
		var v UModeId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindChannel:
		var v ChannelId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindChannelMode:
		var v CModeId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindMembership:
		var v MembershipId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindMessage:
		var v MessageId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindNickname:
		var v NicknameId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindAuditLogEntry:
		var v AuditLogEntryId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindListMode:
		var v ListModeId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindListModeEntry:
		var v ListModeEntryId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	case KindConnection:
		var v ConnectionId
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		id = v
	default:
		return nil, fmt.Errorf("netid: unknown object kind %d", env.Kind)
	}
	return id, nil
}
