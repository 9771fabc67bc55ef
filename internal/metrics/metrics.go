package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "search_nodes_total",
			Help: "Total number of nodes by role and status",
		},
		[]string{"role", "status"},
	)

	DocumentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_documents_total",
			Help: "Total number of indexed documents on this node",
		},
	)

	PartitionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_partitions_total",
			Help: "Total number of partitions known to the cluster",
		},
	)

	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftTerm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_raft_term",
			Help: "Current Raft term observed by this node",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_raft_peers_total",
			Help: "Total number of Raft peers in the cluster",
		},
	)

	RaftCommitIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_raft_commit_index",
			Help: "Current Raft commit index",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_raft_applied_index",
			Help: "Last applied Raft log index",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_raft_apply_duration_seconds",
			Help:    "Time taken to apply a Raft log entry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Partition status / AP store metrics
	PartitionStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_partition_status",
			Help: "Current AP partition status (0=CONNECTED,1=PARTIAL,2=PARTITIONED,3=HEALING)",
		},
	)

	APConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_ap_conflicts_total",
			Help: "Total number of concurrent-write conflicts resolved by LWW",
		},
	)

	APPendingSyncLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_ap_pending_sync_length",
			Help: "Number of writes queued awaiting partition heal",
		},
	)

	// Replication metrics
	ReplicationQuorumFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_replication_quorum_failures_total",
			Help: "Total number of document writes that failed to reach write quorum",
		},
	)

	ReplicationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_replication_latency_seconds",
			Help:    "Time taken to replicate a document to its replica set",
			Buckets: prometheus.DefBuckets,
		},
	)

	RollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_replication_rollbacks_total",
			Help: "Total number of replication rollbacks performed",
		},
	)

	// Query plane metrics
	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_query_latency_seconds",
			Help:    "End-to-end query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type"},
	)

	QueryFanoutNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_query_fanout_nodes",
			Help:    "Number of nodes contacted per query",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	QueryFailedNodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_query_failed_nodes_total",
			Help: "Total number of per-node query failures observed during fan-out",
		},
	)

	QueryCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_query_cache_hits_total",
			Help: "Total number of query results served from the result cache",
		},
	)

	// Overlay / sharding metrics
	OverlayNetworkDensity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_overlay_network_density",
			Help: "Fraction of the hypercube address space occupied by active nodes",
		},
	)

	OverlayEstimatedHops = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_overlay_estimated_hops",
			Help: "Estimated average hop count between nodes in the overlay",
		},
	)

	// Heartbeat metrics
	HeartbeatFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_heartbeat_failures_total",
			Help: "Total number of missed heartbeats by peer node",
		},
		[]string{"peer"},
	)

	NodeUnreachableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_node_unreachable_total",
			Help: "Total number of heartbeat failures confirmed as a closed TCP port, not just an RPC-level error",
		},
		[]string{"peer"},
	)

	// RPC metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_rpc_requests_total",
			Help: "Total number of cluster RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_rpc_request_duration_seconds",
			Help:    "Cluster RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Rebalance metrics
	RebalanceCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_rebalance_cycles_total",
			Help: "Total number of rebalance checks performed by the leader",
		},
	)

	RebalanceTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_rebalance_triggered_total",
			Help: "Total number of rebalance cycles that moved a partition",
		},
	)
)

func init() {
	prometheus.MustRegister(
		NodesTotal,
		DocumentsTotal,
		PartitionsTotal,
		RaftLeader,
		RaftTerm,
		RaftPeers,
		RaftCommitIndex,
		RaftAppliedIndex,
		RaftApplyDuration,
		PartitionStatus,
		APConflictsTotal,
		APPendingSyncLength,
		ReplicationQuorumFailuresTotal,
		ReplicationLatency,
		RollbacksTotal,
		QueryLatency,
		QueryFanoutNodes,
		QueryFailedNodesTotal,
		QueryCacheHitsTotal,
		OverlayNetworkDensity,
		OverlayEstimatedHops,
		HeartbeatFailuresTotal,
		NodeUnreachableTotal,
		RPCRequestsTotal,
		RPCRequestDuration,
		RebalanceCyclesTotal,
		RebalanceTriggeredTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
