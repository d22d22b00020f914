package netid

import "fmt"

func (ServerId) Kind() ObjectKind { return KindServer }
func (EpochId) Kind() ObjectKind  { return KindEpoch }

// NicknameId is a natural ID: the binding it names is keyed by the
// nickname itself rather than by an allocated sequence number. Exactly
// one NicknameId may be bound to a live UserId at a time.
type NicknameId struct {
	Nick Nickname `json:"nick"`
}

func (NicknameId) Kind() ObjectKind { return KindNickname }
func (n NicknameId) String() string { return n.Nick.String() }

// MembershipId is a natural ID: a user belongs to a channel at most once,
// so the (user, channel) pair itself is the key.
type MembershipId struct {
	User    UserId    `json:"user"`
	Channel ChannelId `json:"channel"`
}

func (MembershipId) Kind() ObjectKind { return KindMembership }
func (m MembershipId) String() string {
	return fmt.Sprintf("%s/%s", m.User, m.Channel)
}

// ListenerId and ConnectionId belong to the client-listener subprocess,
// an external collaborator per the core's scope. The core only needs to
// be able to name a connection inside an ObjectId (for example, an audit
// entry or a message whose source was a not-yet-registered connection),
// never to own or route traffic to one.
type ListenerId struct {
	Local int64 `json:"local"`
}

type ConnectionId struct {
	Listener ListenerId `json:"listener"`
	Local    int64      `json:"local"`
}

func (ConnectionId) Kind() ObjectKind { return KindConnection }
func (c ConnectionId) String() string {
	return fmt.Sprintf("conn:%d.%d", c.Listener.Local, c.Local)
}
