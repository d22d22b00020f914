package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Libera-Chat/sable-sub002/internal/config"
)

var peerCmd = &cobra.Command{
	Use:   "peer",
	Short: "Inspect the peers configured for this replica",
}

var peerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the peers in config.yaml",
	RunE:  runPeerList,
}

func init() {
	peerCmd.AddCommand(peerListCmd)
}

func runPeerList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg.Peers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(cfg.Peers) == 0 {
		fmt.Println("no peers configured")
		return nil
	}
	for _, p := range cfg.Peers {
		fmt.Printf("%-20s server_id=%-6v address=%s\n", p.Name, p.ServerId, p.Address)
	}
	return nil
}
