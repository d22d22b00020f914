package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envSnapshot saves and clears SABLE_-prefixed environment variables,
// mirroring the teacher's BD_/BEADS_ isolation helper so env-override
// tests don't leak into each other or the outer shell environment.
func envSnapshot(t *testing.T) func() {
	t.Helper()
	saved := make(map[string]string)
	for _, e := range os.Environ() {
		if len(e) >= 6 && e[:6] == "SABLE_" {
			parts := splitOnce(e, '=')
			saved[parts[0]] = os.Getenv(parts[0])
			os.Unsetenv(parts[0])
		}
	}
	return func() {
		for k := range saved {
			os.Unsetenv(k)
		}
		for k, val := range saved {
			os.Setenv(k, val)
		}
	}
}

func splitOnce(s string, sep byte) [2]string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return [2]string{s[:i], s[i+1:]}
		}
	}
	return [2]string{s, ""}
}

func writeConfigYaml(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	path := writeConfigYaml(t, "server_id: 1\nserver_name: test1\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test1", cfg.ServerName)
	assert.Equal(t, []string{":6697"}, cfg.ListenAddrs)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, 90*time.Second, cfg.PingoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.ObjectExpiry)
}

func TestLoadPeers(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	path := writeConfigYaml(t, `
server_id: 1
server_name: test1
peers:
  - name: test2
    server_id: 2
    address: "test2.example:6697"
    certificate_file: "/etc/sable/test2.pem"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Peers, 1)
	assert.Equal(t, "test2", cfg.Peers[0].Name)
	assert.EqualValues(t, 2, cfg.Peers[0].ServerId)
	assert.Equal(t, "test2.example:6697", cfg.Peers[0].Address)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	path := writeConfigYaml(t, "server_id: 1\nserver_name: fromfile\n")
	t.Setenv("SABLE_SERVER_NAME", "fromenv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.ServerName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNetworkWideRoundTrip(t *testing.T) {
	nw := NetworkWide{
		Opers:               []OperBlock{{Name: "alice", PasswordHash: "$2a$10$abc"}},
		DefaultChannelRoles: []string{"op", "voice"},
		AliasUsers:          []string{"chanserv", "nickserv"},
		DebugMode:           true,
	}
	data, err := nw.Encode()
	require.NoError(t, err)

	decoded, err := DecodeNetworkWide(data)
	require.NoError(t, err)
	assert.Equal(t, nw, decoded)
}
