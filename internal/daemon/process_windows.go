//go:build windows

package daemon

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// isProcessRunning reports whether pid names a live process. os.FindProcess
// always succeeds on Windows regardless of whether pid exists, so (as the
// teacher's internal/daemon/kill_windows.go does) this shells out to
// tasklist for a reliable answer rather than trying to interact with the
// process handle directly.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	cmd := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), strconv.Itoa(pid))
}
