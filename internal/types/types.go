// Package types holds the shared domain structs replicated through the
// Raft log, persisted in storage, and exchanged over the cluster RPC surface.
package types

import "time"

// NodeRole distinguishes the Raft-voting master nodes from pure slave nodes.
type NodeRole string

const (
	NodeRoleMaster NodeRole = "master"
	NodeRoleSlave  NodeRole = "slave"
)

// NodeStatus is the liveness classification of a node as observed by heartbeats.
type NodeStatus string

const (
	NodeStatusHealthy   NodeStatus = "healthy"
	NodeStatusDegraded  NodeStatus = "degraded"
	NodeStatusUnhealthy NodeStatus = "unhealthy"
	NodeStatusUnknown   NodeStatus = "unknown"
)

// Node is a member of the cluster, addressable by a stable hypercube ID.
type Node struct {
	ID             string // stable integer in [0, 2^d), formatted as decimal string
	HypercubeID    uint64
	Address        string
	Role           NodeRole
	Status         NodeStatus
	LastHeartbeat  time.Time
	CPULoad        float64 // fraction in [0,1]
	MemoryLoad     float64 // fraction in [0,1]
	DiskLoad       float64 // fraction in [0,1]
	DocumentCount  int
	PartitionCount int
	CreatedAt      time.Time
}

// Partition is a logical bucket of documents with an owning primary and replica set.
type Partition struct {
	ID              string
	PrimaryNodeID   string
	ReplicaNodeIDs  []string // ordered; ReplicaNodeIDs[0] == PrimaryNodeID
	ReplicationGoal int
}

// VectorBundle holds the opaque vectorizer outputs for a document. The engine
// treats each field as produced by an external, unspecified vectorizer.
type VectorBundle struct {
	TFIDF     []float64
	MinHash   []uint64
	LDA       []float64
	TextRank  []float64
}

// Document is a unit of content indexed by the cluster. Content is the raw
// text; the inverted index tokenizes it locally on every replica.
type Document struct {
	ID            string // UUID
	Content       string
	Metadata      map[string]string
	PartitionID   string
	PrimaryNodeID string
	Vectors       VectorBundle
	AccessCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ClusterConfig holds the tunables named in the external-interfaces section of
// the specification. Zero values are replaced by DefaultClusterConfig at load time.
type ClusterConfig struct {
	ReplicationFactor int     `yaml:"replication_factor"`
	WriteQuorum       int     `yaml:"min_replicas_for_write"`
	ReadQuorum        int     `yaml:"read_quorum"`
	HypercubeDims     int     `yaml:"hypercube_dimensions"`

	RaftElectionTimeoutMin time.Duration `yaml:"raft_election_timeout_min"`
	RaftElectionTimeoutMax time.Duration `yaml:"raft_election_timeout_max"`
	RaftHeartbeatInterval  time.Duration `yaml:"raft_heartbeat_interval"`

	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout     time.Duration `yaml:"heartbeat_timeout"`
	MaxHeartbeatFailures int           `yaml:"max_heartbeat_failures"`

	RebalanceThreshold     float64       `yaml:"rebalance_threshold"`
	RebalanceBatchSize     int           `yaml:"rebalance_batch_size"`
	RebalanceDelaySeconds  time.Duration `yaml:"rebalance_delay_seconds"`
	RebalanceInterval      time.Duration `yaml:"rebalance_interval"`

	SearchTimeout       time.Duration `yaml:"search_timeout"`
	MaxResultsPerNode    int          `yaml:"max_results_per_node"`
	DefaultMaxResults    int          `yaml:"default_max_results"`
	MinTokenLength       int          `yaml:"min_token_length"`
	MaxQueryTokens       int          `yaml:"max_query_tokens"`
	QueryCacheTTL        time.Duration `yaml:"query_cache_ttl"`
	QueryCacheMaxEntries int          `yaml:"query_cache_max_entries"`

	PartitionCheckInterval time.Duration `yaml:"partition_check_interval"`
	PartitionThresholdSec  time.Duration `yaml:"partition_threshold_sec"`
	EnableReadRepair       bool          `yaml:"enable_read_repair"`
	EnableAntiEntropy      bool          `yaml:"enable_anti_entropy"`

	VirtualNodesPerShard int `yaml:"virtual_nodes_per_shard"`
	NumShards            int `yaml:"num_shards"`

	RankingWeights RankingWeights `yaml:"ranking_weights"`
}

// RankingWeights configures the hybrid relevance scoring formula of the query
// plane. Weights must sum to 1.0; the default is 0.6/0.2/0.2.
type RankingWeights struct {
	Distance   float64 `yaml:"distance"`
	Recency    float64 `yaml:"recency"`
	Popularity float64 `yaml:"popularity"`
}

// DefaultClusterConfig returns the documented defaults from the external
// interfaces and concurrency sections.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		ReplicationFactor: 3,
		WriteQuorum:       2,
		ReadQuorum:        2,
		HypercubeDims:     20,

		RaftElectionTimeoutMin: 150 * time.Millisecond,
		RaftElectionTimeoutMax: 300 * time.Millisecond,
		RaftHeartbeatInterval:  50 * time.Millisecond,

		HeartbeatInterval:    5 * time.Second,
		HeartbeatTimeout:     15 * time.Second,
		MaxHeartbeatFailures: 3,

		RebalanceThreshold:    0.2,
		RebalanceBatchSize:    4,
		RebalanceDelaySeconds: 0,
		RebalanceInterval:     5 * time.Minute,

		SearchTimeout:        10 * time.Second,
		MaxResultsPerNode:    200,
		DefaultMaxResults:    100,
		MinTokenLength:       2,
		MaxQueryTokens:       32,
		QueryCacheTTL:        300 * time.Second,
		QueryCacheMaxEntries: 1000,

		PartitionCheckInterval: 5 * time.Second,
		PartitionThresholdSec:  30 * time.Second,
		EnableReadRepair:       true,
		EnableAntiEntropy:      true,

		VirtualNodesPerShard: 150,
		NumShards:            16,

		RankingWeights: RankingWeights{Distance: 0.6, Recency: 0.2, Popularity: 0.2},
	}
}
