package gossip

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// TestFrameRoundTrip writes a frame on one end of an in-memory pipe and
// reads it back on the other, exercising the length-prefixed codec
// without a real TCP listener.
func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	want, err := Encode("corr-1", KindPing, PingPayload{Server: netid.ServerId(7), Timestamp: time.Unix(1000, 0).UTC()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- WriteFrame(bufio.NewWriter(client), want)
	}()

	got, err := ReadFrame(bufio.NewReader(server))
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, want.Id, got.Id)
	assert.Equal(t, want.Kind, got.Kind)

	gotPing, err := got.DecodePing()
	require.NoError(t, err)
	assert.Equal(t, netid.ServerId(7), gotPing.Server)
	assert.True(t, gotPing.Timestamp.Equal(time.Unix(1000, 0).UTC()))
}

func TestFrameRoundTripMultipleMessages(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	msgs := []Message{}
	for i, kind := range []Kind{KindPing, KindPong, KindDone} {
		m, err := Encode(string(rune('a'+i)), kind, struct{}{})
		require.NoError(t, err)
		msgs = append(msgs, m)
	}

	go func() {
		w := bufio.NewWriter(client)
		for _, m := range msgs {
			if err := WriteFrame(w, m); err != nil {
				return
			}
		}
	}()

	r := bufio.NewReader(server)
	for _, want := range msgs {
		got, err := ReadFrame(r)
		require.NoError(t, err)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Id, got.Id)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		w := bufio.NewWriter(client)
		// A length prefix claiming more than maxFrameSize must be
		// rejected before any allocation of that size is attempted.
		lenBuf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
		_, _ = w.Write(lenBuf)
		_ = w.Flush()
	}()

	_, err := ReadFrame(bufio.NewReader(server))
	require.Error(t, err)
}
