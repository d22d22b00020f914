// Command sabled runs one replica of the network replication core: it
// loads its identity and peer list from config.yaml, opens (or restores)
// its event log and network state, joins the gossip mesh, and serves
// until asked to stop, restart, or upgrade.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "sabled",
	Short: "sabled - distributed IRC network replication core",
	Long: `sabled replicates IRC network state (users, channels, servers,
bans, and the rest of the shared network model) across a mesh of
mutually-authenticated peers using an event-sourced gossip protocol.

Common operations:
  sabled run                Start this replica (foreground)
  sabled snapshot inspect    Summarize a persisted snapshot file
  sabled peer list           List the peers configured in config.yaml`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(peerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
