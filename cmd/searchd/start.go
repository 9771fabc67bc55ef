package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/distrisearch/core/internal/config"
	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/rpc"
	"github.com/distrisearch/core/internal/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start this node, bootstrapping a new cluster or joining an existing one",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().String("config", "", "Path to a node YAML config file")
	startCmd.Flags().String("node-id", "", "Unique node ID (random UUID if unset)")
	startCmd.Flags().String("bind-addr", "127.0.0.1:7000", "Raft transport bind address")
	startCmd.Flags().String("rpc-addr", "127.0.0.1:7100", "Cluster/admin RPC listen address")
	startCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Prometheus metrics and health HTTP address")
	startCmd.Flags().String("data-dir", "./data", "Directory for Raft logs, snapshots, and the BoltDB store")
	startCmd.Flags().String("join", "", "Admin address of an existing cluster member to join through")
	startCmd.Flags().String("role", string(types.NodeRoleSlave), "Raft voting role for this node (master or slave)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadStartConfig(cmd)
	if err != nil {
		return err
	}
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	joinAddr, _ := cmd.Flags().GetString("join")
	role, _ := cmd.Flags().GetString("role")

	n, err := buildNode(cfg, metricsAddr)
	if err != nil {
		return err
	}

	logger := log.WithNodeID(cfg.NodeID)

	if joinAddr == "" {
		if err := n.manager.Bootstrap(n.consensusCfg); err != nil {
			return fmt.Errorf("bootstrap cluster: %w", err)
		}
		self := n.selfNode(types.NodeRole(role))
		if err := n.coord.RegisterNode(self); err != nil {
			return fmt.Errorf("register bootstrap node: %w", err)
		}
		n.tracker.RegisterNode(cfg.NodeID)
		logger.Info().Msg("cluster bootstrapped, this node is the initial leader")
	} else {
		if err := n.manager.Join(n.consensusCfg); err != nil {
			return fmt.Errorf("start raft for join: %w", err)
		}
		if err := joinCluster(n, joinAddr, role); err != nil {
			return fmt.Errorf("join cluster: %w", err)
		}
		logger.Info().Str("via", joinAddr).Msg("joined existing cluster")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go n.run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()
	n.shutdown()
	logger.Info().Msg("shutdown complete")
	return nil
}

// loadStartConfig loads the optional YAML file first, then applies any
// flag the caller explicitly set on top — flags win over the file, the file
// wins over config.DefaultNodeConfig's baked-in defaults.
func loadStartConfig(cmd *cobra.Command) (config.NodeConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("node-id") {
		cfg.NodeID, _ = cmd.Flags().GetString("node-id")
	}
	if cmd.Flags().Changed("bind-addr") || cfg.BindAddr == "" {
		cfg.BindAddr, _ = cmd.Flags().GetString("bind-addr")
	}
	if cmd.Flags().Changed("rpc-addr") || cfg.RPCAddr == "" {
		cfg.RPCAddr, _ = cmd.Flags().GetString("rpc-addr")
	}
	if cmd.Flags().Changed("data-dir") || cfg.DataDir == "" {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	return cfg, nil
}

var leaderHintPattern = regexp.MustCompile(`leader_hint=(\S+)\)`)

// joinCluster calls JoinCluster against joinAddr, retrying once against the
// hinted leader address if the target turned out to be a follower — the
// NotLeader error's structured LeaderHint field doesn't survive the grpc
// status conversion on a hand-rolled JSON-codec error (see DESIGN.md), so
// the hint is recovered from the error string instead.
func joinCluster(n *node, addr, role string) error {
	self := n.selfNode(types.NodeRole(role))
	req := &rpc.JoinClusterRequest{
		NodeID:      self.ID,
		Address:     n.cfg.RPCAddr,
		HypercubeID: self.HypercubeID,
		Role:        string(self.Role),
	}

	err := sendJoinRequest(addr, req)
	if err == nil {
		return nil
	}

	if m := leaderHintPattern.FindStringSubmatch(err.Error()); m != nil && m[1] != addr {
		return sendJoinRequest(m[1], req)
	}
	return err
}

func sendJoinRequest(addr string, req *rpc.JoinClusterRequest) error {
	client, err := rpc.NewAdminClient(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Stub().JoinCluster(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("join request to %s was not accepted", addr)
	}
	return nil
}
