package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/config"
	"github.com/distrisearch/core/internal/consensus"
	"github.com/distrisearch/core/internal/coordinator"
	"github.com/distrisearch/core/internal/events"
	"github.com/distrisearch/core/internal/heartbeat"
	"github.com/distrisearch/core/internal/hypercube"
	"github.com/distrisearch/core/internal/index"
	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/queryplane"
	"github.com/distrisearch/core/internal/replication"
	"github.com/distrisearch/core/internal/rpc"
	"github.com/distrisearch/core/internal/sharding"
	"github.com/distrisearch/core/internal/types"
)

// node bundles every component a single cluster member runs, wired together
// the way cmd/searchd's start command builds it: one consensus.Manager at
// the bottom, the coordinator and AP store observing it, and the RPC server
// on top exposing all of it to peers and admin clients.
type node struct {
	cfg          config.NodeConfig
	consensusCfg consensus.Config

	manager *consensus.Manager
	coord   *coordinator.Coordinator
	broker  *events.Broker
	tracker *apstore.Tracker
	ap      *apstore.Store
	idx     *index.InvertedIndex
	shards  *sharding.Manager
	repl    *replication.Manager
	plane   *queryplane.Plane
	client  *rpc.ClusterClient
	server  *rpc.Server
	monitor *heartbeat.Monitor
	collector *metrics.Collector

	metricsAddr string
}

// buildNode wires every domain package into one running node, without
// starting any background loop or network listener yet — callers decide
// whether to Bootstrap or Join before calling start.
func buildNode(cfg config.NodeConfig, metricsAddr string) (*node, error) {
	consensusCfg := consensus.Config{
		NodeID:             cfg.NodeID,
		BindAddr:           cfg.BindAddr,
		DataDir:            cfg.DataDir,
		ElectionTimeoutMin: cfg.Cluster.RaftElectionTimeoutMin,
		ElectionTimeoutMax: cfg.Cluster.RaftElectionTimeoutMax,
		HeartbeatInterval:  cfg.Cluster.RaftHeartbeatInterval,
	}
	manager, err := consensus.NewManager(consensusCfg)
	if err != nil {
		return nil, fmt.Errorf("create consensus manager: %w", err)
	}

	broker := events.NewBroker()
	coord := coordinator.New(cfg.NodeID, manager, broker, cfg.Cluster)

	client := rpc.NewClusterClient(func(nodeID string) (string, bool) {
		n, ok := coord.NodeByID(nodeID)
		if !ok {
			return "", false
		}
		return n.Address, true
	})

	tracker := apstore.NewTracker()
	tracker.RegisterNode(cfg.NodeID)
	apStore := apstore.NewStore(cfg.NodeID, tracker, client, func() []string {
		peers := coord.Peers()
		ids := make([]string, len(peers))
		for i, p := range peers {
			ids[i] = p.ID
		}
		return ids
	}, cfg.Cluster.PartitionThresholdSec)

	tokenizer := index.NewTokenizer(nil, cfg.Cluster.MinTokenLength)
	idx := index.NewInvertedIndex(tokenizer)
	shards := sharding.NewManager(cfg.Cluster.NumShards, cfg.Cluster.VirtualNodesPerShard)

	repl := replication.NewManager(replication.QuorumConfig{
		ReplicationFactor: cfg.Cluster.ReplicationFactor,
		WriteQuorum:       cfg.Cluster.WriteQuorum,
		ReadQuorum:        cfg.Cluster.ReadQuorum,
	}, coord, client)

	parser := queryplane.NewParser(tokenizer, cfg.Cluster.MaxQueryTokens)
	plane := queryplane.New(queryplane.Config{
		SearchTimeout:     cfg.Cluster.SearchTimeout,
		NodeTimeout:       cfg.Cluster.SearchTimeout / 2,
		MaxResultsPerNode: cfg.Cluster.MaxResultsPerNode,
		MaxTotalResults:   1000,
		DefaultMaxResults: cfg.Cluster.DefaultMaxResults,
		MinTokenLength:    cfg.Cluster.MinTokenLength,
		MaxQueryTokens:    cfg.Cluster.MaxQueryTokens,
		RankingWeights:    cfg.Cluster.RankingWeights,
		CacheTTL:          cfg.Cluster.QueryCacheTTL,
		CacheMaxEntries:   cfg.Cluster.QueryCacheMaxEntries,
	}, parser, client, shards, coord)

	n := &node{
		cfg:          cfg,
		consensusCfg: consensusCfg,
		manager:      manager,
		coord:       coord,
		broker:      broker,
		tracker:     tracker,
		ap:          apStore,
		idx:         idx,
		shards:      shards,
		repl:        repl,
		plane:       plane,
		client:      client,
		monitor: heartbeat.NewMonitor(cfg.NodeID, cfg.Cluster.HeartbeatInterval, cfg.Cluster.MaxHeartbeatFailures,
			client, coord, tracker, localGauges, func() types.NodeStatus { return types.NodeStatusHealthy }),
		collector:   metrics.NewCollector(manager, manager.Store(), tracker, idx),
		metricsAddr: metricsAddr,
	}

	n.server = rpc.NewServer(rpc.Config{
		NodeID:        cfg.NodeID,
		Manager:       manager,
		Coordinator:   coord,
		Replication:   repl,
		APStore:       apStore,
		Tracker:       tracker,
		Index:         idx,
		Shards:        shards,
		Plane:         plane,
		Client:        client,
		Broker:        broker,
		RebalancePlan: n.rebalancePlan,
	})

	n.monitor.OnUnreachable(func(peerID string) {
		go coord.HandleNodeFailure(context.Background(), peerID, n.rereplicate)
	})

	return n, nil
}

// localGauges reports this process's resource utilization for the
// heartbeat's gossiped load figures. There is no host-metrics collector in
// this module; it reports a fixed, conservative estimate
// rather than pulling in a dependency to read real load for what is only an
// advisory rebalancing signal.
func localGauges() heartbeat.Gauges {
	return heartbeat.Gauges{CPULoad: 0.1, MemoryLoad: 0.1, DiskLoad: 0.1}
}

// rereplicate is the coordinator's RereplicateFunc callback: after a
// promotion it recomputes partitionID's replica set with
// replication.SelectReplicas from the current primary and healthy nodes and
// writes that set into the partition record. It copies no document data to
// newly selected replicas.
func (n *node) rereplicate(ctx context.Context, partitionID string) {
	partition, err := n.manager.Store().GetPartition(partitionID)
	if err != nil || partition == nil {
		return
	}
	primary, ok := n.coord.NodeByID(partition.PrimaryNodeID)
	if !ok {
		return
	}
	healthy := n.coord.HealthyNodes()
	replicas := replication.SelectReplicas(primary, n.cfg.Cluster.ReplicationFactor, healthy)
	ids := make([]string, len(replicas))
	for i, r := range replicas {
		ids[i] = r.ID
	}
	partition.ReplicaNodeIDs = ids
	if err := n.manager.Store().UpdatePartition(partition); err != nil {
		log.WithComponent("searchd").Warn().Err(err).Str("partition_id", partitionID).Msg("rereplicate: failed to persist updated replica set")
	}
}

// rebalancePlan moves rebalance_batch_size documents per cycle from the
// single most loaded overloaded node to the single least loaded underloaded
// node by updating primary ownership, the bounded-batch rebalance this
// module implements.
func (n *node) rebalancePlan(ctx context.Context, overloaded, underloaded []*types.Node) error {
	if len(overloaded) == 0 || len(underloaded) == 0 {
		return nil
	}
	source := overloaded[0]
	target := underloaded[0]

	metas, err := n.manager.Store().ListDocumentMeta()
	if err != nil {
		return fmt.Errorf("rebalance: list document meta: %w", err)
	}

	moved := 0
	for _, meta := range metas {
		if moved >= n.cfg.Cluster.RebalanceBatchSize {
			break
		}
		if meta.PrimaryNodeID != source.ID {
			continue
		}
		partition, err := n.manager.Store().GetPartition(meta.PartitionID)
		if err != nil || partition == nil {
			continue
		}
		partition.PrimaryNodeID = target.ID
		if err := n.manager.Store().UpdatePartition(partition); err != nil {
			log.WithComponent("searchd").Warn().Err(err).Str("partition_id", partition.ID).Msg("rebalance: failed to move partition")
			continue
		}
		meta.PrimaryNodeID = target.ID
		if err := n.manager.Store().PutDocumentMeta(meta); err != nil {
			log.WithComponent("searchd").Warn().Err(err).Str("doc_id", meta.DocID).Msg("rebalance: failed to update document placement")
			continue
		}
		moved++
	}
	log.WithComponent("searchd").Info().Str("from", source.ID).Str("to", target.ID).Int("moved", moved).Msg("rebalance cycle complete")
	return nil
}

// run starts every background loop and network listener and blocks until
// ctx is cancelled.
func (n *node) run(ctx context.Context) {
	logger := log.WithComponent("searchd")

	n.broker.Start()
	go n.monitor.Run(ctx)
	go n.coord.RunRebalanceLoop(ctx, n.cfg.Cluster.RebalanceInterval, func(overloaded, underloaded []*types.Node) {
		if err := n.rebalancePlan(ctx, overloaded, underloaded); err != nil {
			logger.Error().Err(err).Msg("rebalance plan failed")
		}
	})
	n.collector.Start()

	if n.cfg.Cluster.EnableAntiEntropy {
		go n.ap.AntiEntropyLoop(ctx, n.cfg.Cluster.PartitionCheckInterval, func(ctx context.Context) error {
			return nil
		})
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		logger.Info().Str("addr", n.metricsAddr).Msg("metrics server listening")
		if err := http.ListenAndServe(n.metricsAddr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	go func() {
		if err := n.server.Start(n.cfg.RPCAddr); err != nil {
			logger.Error().Err(err).Msg("rpc server stopped")
		}
	}()

	metrics.RegisterComponent("raft", true, "bootstrapped")
	metrics.RegisterComponent("storage", true, "ready")
	metrics.RegisterComponent("rpc", true, "ready")

	<-ctx.Done()
}

// shutdown stops every background loop and closes every owned resource, in
// dependency order: client-facing surfaces first, then the coordinator's
// own loops, then the consensus layer that everything else reads through.
func (n *node) shutdown() {
	logger := log.WithComponent("searchd")
	n.server.Stop()
	n.collector.Stop()
	n.coord.Shutdown()
	if err := n.client.Close(); err != nil {
		logger.Warn().Err(err).Msg("error closing cluster client connections")
	}
	if err := n.manager.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("error shutting down consensus manager")
	}
}

// selfNode builds this process's own types.Node record, assigning a stable
// hypercube address derived from its node ID.
func (n *node) selfNode(role types.NodeRole) *types.Node {
	return &types.Node{
		ID:            n.cfg.NodeID,
		HypercubeID:   hypercube.AssignID(n.cfg.NodeID, n.cfg.Cluster.HypercubeDims),
		Address:       n.cfg.RPCAddr,
		Role:          role,
		Status:        types.NodeStatusHealthy,
		LastHeartbeat: time.Now(),
		CreatedAt:     time.Now(),
	}
}
