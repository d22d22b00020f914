package gossip

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// Conn wraps one established connection to a peer with the buffered
// reader/writer the frame codec needs, grounded on the same
// bufio.NewWriter(conn)/bufio.NewReader(conn) pairing the daemon's RPC
// client uses for its own request/response socket.
type Conn struct {
	raw net.Conn
	r   *bufio.Reader
	w   *bufio.Writer
}

func newConn(raw net.Conn) *Conn {
	return &Conn{raw: raw, r: bufio.NewReader(raw), w: bufio.NewWriter(raw)}
}

func (c *Conn) Send(msg Message) error   { return WriteFrame(c.w, msg) }
func (c *Conn) Receive() (Message, error) { return ReadFrame(c.r) }
func (c *Conn) Close() error              { return c.raw.Close() }

// Link is a persistent, reconnecting connection to one peer server. A
// dropped connection is redialed with an exponential backoff rather than
// torn down permanently, since a peer server restarting or a brief
// network blip is the common case, not grounds to give up on the peer.
type Link struct {
	ServerId  netid.ServerId
	Address   string
	tlsConfig *tls.Config
	dialer    net.Dialer

	mu   sync.RWMutex
	conn *Conn
}

// NewLink returns a Link ready to be driven by Run.
func NewLink(serverId netid.ServerId, address string, tlsConfig *tls.Config) *Link {
	return &Link{
		ServerId:  serverId,
		Address:   address,
		tlsConfig: tlsConfig,
		dialer:    net.Dialer{Timeout: 10 * time.Second},
	}
}

// newLinkBackoff returns the reconnect backoff policy: unlike a
// bounded-retry database operation, a peer link retries for as long as
// the link is running, so MaxElapsedTime is left at zero (unbounded);
// ctx cancellation is what ultimately stops it.
func newLinkBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.MaxInterval = 30 * time.Second
	return bo
}

func (l *Link) dial(ctx context.Context) (*Conn, error) {
	var raw net.Conn
	var err error
	if l.tlsConfig != nil {
		d := tls.Dialer{NetDialer: &l.dialer, Config: l.tlsConfig}
		raw, err = d.DialContext(ctx, "tcp", l.Address)
	} else {
		raw, err = l.dialer.DialContext(ctx, "tcp", l.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("gossip: dial %s: %w", l.Address, err)
	}
	return newConn(raw), nil
}

// Run dials the peer, redialing with backoff whenever the connection is
// lost, and forwards every frame it receives to inbound. Run blocks
// until ctx is cancelled.
func (l *Link) Run(ctx context.Context, inbound chan<- InboundMessage) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var conn *Conn
		err := backoff.Retry(func() error {
			c, err := l.dial(ctx)
			if err != nil {
				gossipMetrics.reconnects.Add(ctx, 1)
				return err
			}
			conn = c
			return nil
		}, backoff.WithContext(newLinkBackoff(), ctx))
		if err != nil {
			return err // ctx was cancelled mid-backoff
		}

		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()

		l.readLoop(ctx, conn, inbound)

		l.mu.Lock()
		if l.conn == conn {
			l.conn = nil
		}
		l.mu.Unlock()
		_ = conn.Close()
	}
}

func (l *Link) readLoop(ctx context.Context, conn *Conn, inbound chan<- InboundMessage) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			return
		}
		gossipMetrics.eventsReceived.Add(ctx, 1)
		select {
		case inbound <- InboundMessage{From: l.ServerId, Message: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// Send writes msg to the peer's current connection. It returns an error
// if the link is not currently connected; the caller decides whether
// that is fatal (it usually is not — the reconnect loop will restore the
// link and a subsequent broadcast or sync will reach the peer).
func (l *Link) Send(msg Message) error {
	l.mu.RLock()
	conn := l.conn
	l.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("gossip: link to server %v is not connected", l.ServerId)
	}
	return conn.Send(msg)
}

// Connected reports whether the link currently has a live connection.
func (l *Link) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.conn != nil
}

// InboundMessage pairs a received Message with the peer it came from.
type InboundMessage struct {
	From    netid.ServerId
	Message Message
}
