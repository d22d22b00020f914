package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Libera-Chat/sable-sub002/internal/audit"
	"github.com/Libera-Chat/sable-sub002/internal/config"
	"github.com/Libera-Chat/sable-sub002/internal/daemon"
	"github.com/Libera-Chat/sable-sub002/internal/eventlog"
	"github.com/Libera-Chat/sable-sub002/internal/gossip"
	"github.com/Libera-Chat/sable-sub002/internal/netstate"
	"github.com/Libera-Chat/sable-sub002/internal/node"
	"github.com/Libera-Chat/sable-sub002/internal/replog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start this replica and serve until stopped",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pidFile, err := daemon.Acquire(cfg.PidFile)
	if err != nil {
		return err
	}
	defer pidFile.Release()

	meterProvider, err := setupMeterProvider()
	if err != nil {
		return err
	}
	defer shutdownMeterProvider(meterProvider)

	epoch, err := daemon.NextEpoch(cfg.PidFile + ".epoch")
	if err != nil {
		return err
	}
	cfg.Epoch = epoch

	banPolicy := netstate.DefaultBanResolver{}

	var (
		eventLog     *eventlog.EventLog
		network      *netstate.Network
		bootstrapped bool
	)
	if _, statErr := os.Stat(cfg.SnapshotPath); statErr == nil {
		eventLog, network, err = replog.LoadSnapshot(cfg.SnapshotPath, banPolicy)
		if err != nil {
			return err
		}
		bootstrapped = true
		log.Printf("[replog] restored snapshot from %s", cfg.SnapshotPath)
	} else {
		eventLog = eventlog.New(cfg.ServerId, cfg.Epoch)
		network = netstate.New(banPolicy)
		// A server configured with no peers is the whole network by
		// definition; nothing will ever offer it a NetworkState to wait
		// for, so it bootstraps itself immediately instead of sitting
		// forever rejecting the unsolicited-state guard in replog.
		bootstrapped = len(cfg.Peers) == 0
	}

	peerCertFiles := make([]string, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		if p.CertificateFile != "" {
			peerCertFiles = append(peerCertFiles, p.CertificateFile)
		}
	}
	tlsConfig, err := gossip.TLSConfig(cfg.CertificateFile, cfg.KeyFile, peerCertFiles)
	if err != nil {
		return err
	}

	gossipNet := gossip.NewGossipNetwork(cfg.ServerId, tlsConfig)

	replogCfg := replog.Config{
		PingInterval:    cfg.PingInterval,
		PingoutDuration: cfg.PingoutDuration,
		SyncGapTimeout:  cfg.SyncGapTimeout,
		ObjectExpiry:    cfg.ObjectExpiry,
		SnapshotPath:    cfg.SnapshotPath,
	}
	replogLogger := log.New(os.Stderr, "[replog] ", log.LstdFlags)
	rel := replog.New(cfg.ServerId, replogCfg, network, eventLog, gossipNet, banPolicy, bootstrapped, replogLogger)

	n := node.New(cfg.ServerId, cfg.Epoch, eventLog, rel)
	mesh := n.Gossip()

	auditLog, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	updates, unsubscribe := n.SubscribeUpdates()
	defer unsubscribe()
	go audit.Follow(ctx, auditLog, updates, func(err error) {
		log.Printf("[audit] append failed: %v", err)
	})

	for _, addr := range cfg.ListenAddrs {
		addr := addr
		go func() {
			if err := mesh.Listen(ctx, addr); err != nil && ctx.Err() == nil {
				log.Printf("[gossip] listen on %s: %v", addr, err)
			}
		}()
	}
	for _, p := range cfg.Peers {
		mesh.Connect(ctx, p.ServerId, p.Address)
	}
	if !bootstrapped && len(cfg.Peers) > 0 {
		// Give outbound links a moment to come up before asking one of
		// them for the full network state. This is the only request for
		// it: checkSyncGap sends SyncRequests, and only while events are
		// pending, so a failed request here is logged and not retried.
		go func() {
			time.Sleep(2 * time.Second)
			if err := mesh.RequestNetworkState(ctx, cfg.Peers[0].ServerId); err != nil {
				log.Printf("[gossip] request network state from %v: %v", cfg.Peers[0].ServerId, err)
			}
		}()
	}

	if cfg.DebugMode {
		config.Watch(configPath, func(reloaded *config.Config, watchErr error) {
			if watchErr != nil {
				log.Printf("[sabled] config reload failed: %v", watchErr)
			} else {
				log.Printf("[sabled] config.yaml changed on disk (server_name=%s)", reloaded.ServerName)
			}
		})
	}

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- n.Run(ctx) }()

	action := daemon.WaitForAction(ctx)
	log.Printf("[sabled] shutdown requested: %s", action)

	shutdownAction := replog.ShutdownStop
	switch action {
	case daemon.ActionRestart:
		shutdownAction = replog.ShutdownRestart
	case daemon.ActionUpgrade:
		shutdownAction = replog.ShutdownUpgrade
	}
	if err := n.Shutdown(shutdownAction); err != nil {
		log.Printf("[sabled] shutdown: %v", err)
	}
	cancel()
	<-runErrCh
	return nil
}
