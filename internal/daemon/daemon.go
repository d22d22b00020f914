// Package daemon provides the process-lifecycle plumbing a long-running
// sabled needs: a PID file guarding against two copies of the same
// server identity running at once (grounded on the teacher's
// internal/lockfile package — same "is the owning process still alive"
// check, via syscall.Kill(pid, 0), re-expressed as a single-purpose PID
// file rather than flock since this process has no shared SQLite file to
// guard), an on-disk epoch counter that advances on every start (spec.md
// §3: "a server's epoch advances on every restart"), and signal handling
// that maps SIGTERM/SIGINT/SIGHUP/SIGUSR1 onto the three shutdown
// actions the Node façade understands.
package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
)

// ErrAlreadyRunning is returned by Acquire when the PID file names a
// process that is still alive.
type ErrAlreadyRunning struct{ PID int }

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("daemon: another instance is already running (pid %d)", e.PID)
}

// PIDFile is an acquired PID file; the file is written and closed by
// Acquire, and only its path is kept. Release removes it.
type PIDFile struct {
	path string
}

// Acquire writes the calling process's PID to path, refusing if the file
// already names a live process. A PID file naming a dead process (the
// common case after an unclean shutdown) is silently reclaimed, matching
// the teacher's lockfile.IsLocked distinguishing "held" from "stale".
func Acquire(path string) (*PIDFile, error) {
	if data, err := os.ReadFile(path); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && isProcessRunning(pid) {
			return nil, &ErrAlreadyRunning{PID: pid}
		}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("daemon: write pid file %s: %w", path, err)
	}
	return &PIDFile{path: path}, nil
}

// Release removes the PID file. Safe to call on a nil *PIDFile.
func (p *PIDFile) Release() error {
	if p == nil {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("daemon: remove pid file %s: %w", p.path, err)
	}
	return nil
}

// NextEpoch reads the epoch counter persisted at path, increments it,
// writes the new value back, and returns it. Every call — i.e. every
// process start — yields a strictly higher EpochId than the last,
// independent of whatever the snapshot or event log on disk claims,
// since epoch advancement must survive even a snapshot restore from an
// older run.
func NextEpoch(path string) (netid.EpochId, error) {
	var current int64
	if data, err := os.ReadFile(path); err == nil {
		current, _ = strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("daemon: read epoch file %s: %w", path, err)
	}
	next := current + 1
	if err := os.WriteFile(path, []byte(strconv.FormatInt(next, 10)), 0o644); err != nil {
		return 0, fmt.Errorf("daemon: write epoch file %s: %w", path, err)
	}
	return netid.EpochId(next), nil
}

// Action names the three ways an operator can ask a running sabled to
// stop, matching replog.ShutdownAction / the Node façade's
// shutdown(action) operation from spec.md §4.6.
type Action int

const (
	ActionStop Action = iota
	ActionRestart
	ActionUpgrade
)

func (a Action) String() string {
	switch a {
	case ActionRestart:
		return "restart"
	case ActionUpgrade:
		return "upgrade"
	default:
		return "stop"
	}
}
