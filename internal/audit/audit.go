// Package audit durably records the network's audit trail to disk. The
// replicated AuditLogEntry table (internal/netstate) is the
// source of truth consumers query live; this package gives operators a
// plain append-only file they can tail or grep without touching the
// running process, modeled on the teacher's internal/audit package
// (Append/FileName, one JSON object per line).
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Libera-Chat/sable-sub002/internal/netstate"
)

// FileName is the conventional name of the audit trail file within a
// server's data directory, mirroring the teacher's FileName constant.
const FileName = "audit.jsonl"

// Entry is one line of the durable audit trail: a flattened,
// JSON-serializable projection of netstate.AuditLogEntry. Actor is
// rendered as a string rather than carried as a kind-tagged ObjectId
// envelope, since this file is for humans and external tooling to read,
// not for the replicated log to round-trip.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message"`
}

// FromNetworkEntry projects a netstate.AuditLogEntry into the durable
// Entry shape.
func FromNetworkEntry(e netstate.AuditLogEntry) Entry {
	actor := ""
	if e.Actor != nil {
		actor = fmt.Sprintf("%v", e.Actor)
	}
	return Entry{
		Timestamp: e.At,
		Category:  e.Category,
		Actor:     actor,
		Message:   e.Message,
	}
}

// Log is an append-only JSONL file: one Entry per line, flushed after
// every Append so a crash loses at most the in-flight write.
type Log struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Open opens (creating if necessary) the audit file at path in append
// mode.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	return &Log{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one JSON-encoded Entry followed by a newline, flushing
// immediately so Append's caller can treat a nil error as durable.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("audit: write newline: %w", err)
	}
	return l.w.Flush()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("audit: flush: %w", err)
	}
	return l.f.Close()
}

// Follow drains updates, appending every AuditLogAppended change it sees
// until ctx is canceled or the channel closes. It is meant to run in its
// own goroutine fed by Node.SubscribeUpdates, translating the network's
// replicated audit table into the durable trail file as a side effect of
// normal apply traffic rather than a separate write path.
func Follow(ctx context.Context, log *Log, updates <-chan []netstate.NetworkStateChange, onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-updates:
			if !ok {
				return
			}
			for _, change := range batch {
				entry, ok := change.(netstate.AuditLogAppended)
				if !ok {
					continue
				}
				if err := log.Append(FromNetworkEntry(entry.Entry)); err != nil && onErr != nil {
					onErr(err)
				}
			}
		}
	}
}
