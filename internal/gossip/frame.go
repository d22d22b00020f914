package gossip

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single decoded frame, guarding against a
// corrupt or hostile length prefix turning into an unbounded allocation.
const maxFrameSize = 64 << 20 // 64MiB; a full-network snapshot is the largest frame.

// WriteFrame encodes msg as length-prefixed JSON and writes it to w.
// Unlike the request/response daemon protocol this core's teacher uses
// (newline-delimited JSON), a gossip frame's payload can itself contain
// arbitrary channel message text — including embedded newlines — so
// framing is done with an explicit 4-byte big-endian length prefix
// instead of a delimiter byte.
func WriteFrame(w *bufio.Writer, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("gossip: marshal frame: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("gossip: write frame length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("gossip: write frame body: %w", err)
	}
	return w.Flush()
}

// ReadFrame reads one length-prefixed JSON frame from r.
func ReadFrame(r *bufio.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return Message{}, fmt.Errorf("gossip: frame of %d bytes exceeds maximum %d", n, maxFrameSize)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return Message{}, fmt.Errorf("gossip: read frame body: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("gossip: decode frame: %w", err)
	}
	return msg, nil
}
