package audit

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Libera-Chat/sable-sub002/internal/netid"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
)

func TestAppendCreatesFileAndWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(Entry{Timestamp: time.Now(), Category: "oper", Message: "alice opered up"}))
	require.NoError(t, log.Append(Entry{Timestamp: time.Now(), Category: "kline", Actor: "1.1.1", Message: "banned *@bad.example"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 2, lines)
}

func TestFollowAppendsOnlyAuditChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []netstate.NetworkStateChange, 1)
	done := make(chan struct{})
	go func() {
		Follow(ctx, log, updates, nil)
		close(done)
	}()

	updates <- []netstate.NetworkStateChange{
		netstate.UserAdded{},
		netstate.AuditLogAppended{Entry: netstate.AuditLogEntry{
			Id:       netid.AuditLogEntryId{},
			Category: "oper",
			Message:  "alice opered up",
			At:       time.Now(),
		}},
	}

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && len(data) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}
