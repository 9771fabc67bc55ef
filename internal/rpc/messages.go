// Package rpc implements the cluster's node-to-node and client-facing RPC
// surface over grpc, using internal/rpcjson's JSON codec in place of
// protobuf-generated stubs (see DESIGN.md's internal/rpcjson entry). Every
// message below is a plain Go struct instead of a .pb.go type; the codec
// marshals it with encoding/json.
package rpc

import "time"

// --- cluster (node-to-node) messages ---

// HeartbeatRequest is one peer's liveness ping, carrying its current
// resource gauges so the receiver's coordinator can feed them into
// rebalance load-vector calculations without a separate RPC.
type HeartbeatRequest struct {
	NodeID     string
	Status     string
	CPULoad    float64
	MemoryLoad float64
	DiskLoad   float64
}

type HeartbeatResponse struct {
	Acknowledged bool
}

// ReplicateDocRequest carries a full document to a replica target.
type ReplicateDocRequest struct {
	DocID         string
	Content       string
	Metadata      map[string]string
	PartitionID   string
	PrimaryNodeID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ReplicateDocResponse struct {
	Accepted bool
}

type RollbackDocRequest struct {
	DocID string
}

type RollbackDocResponse struct {
	Removed bool
}

type DeleteDocRequest struct {
	DocID string
}

type DeleteDocResponse struct {
	Removed bool
}

// SearchLocalRequest asks one node to run its local inverted-index search
// and return raw, unranked matches for the aggregator to merge.
type SearchLocalRequest struct {
	Query   string
	Limit   int
	Filters map[string]string
}

type SearchLocalResult struct {
	DocID       string
	Score       float64
	Content     string
	AccessCount int64
	ModifiedAt  time.Time
	Metadata    map[string]string
}

type SearchLocalResponse struct {
	Results []SearchLocalResult
}

// UpdateShardRequest is the shard-locator broadcast a node sends to every
// peer whenever its local index gains or loses postings for a term, keeping
// each node's sharding.Manager a fully-replicated mirror of global term
// ownership rather than requiring a hop to a single owning coordinator.
type UpdateShardRequest struct {
	NodeID  string
	Added   []string
	Removed []string
}

type UpdateShardResponse struct {
	Acknowledged bool
}

// ReplicateVersionRequest carries one AP-store versioned value to a peer.
type ReplicateVersionRequest struct {
	Key         string
	Value       []byte
	VectorClock map[string]uint64
	Timestamp   time.Time
	OriginNode  string
	Version     uint64
}

type ReplicateVersionResponse struct {
	Accepted bool
}

// --- client-facing (admin/document/search) messages ---

type PutDocumentRequest struct {
	DocID    string // empty on create; caller-supplied UUID otherwise
	Content  string
	Metadata map[string]string
}

type PutDocumentResponse struct {
	DocID          string
	PartitionID    string
	PrimaryNodeID  string
	ReplicaNodeIDs []string
}

type GetDocumentRequest struct {
	DocID string
}

type GetDocumentResponse struct {
	Found    bool
	DocID    string
	Content  string
	Metadata map[string]string
}

type DeleteDocumentRequest struct {
	DocID string
}

type DeleteDocumentResponse struct {
	Deleted bool
}

type SearchRequest struct {
	Query    string
	Filters  map[string]string
	Page     int
	PageSize int
	Strategy string
}

type SearchResultItem struct {
	DocID        string
	Score        float64
	Relevance    float64
	Snippet      string
	MatchedTerms []string
}

type SearchResponse struct {
	QueryID       string
	QueryType     string
	Items         []SearchResultItem
	TotalResults  int
	SearchedNodes []string
	FailedNodes   []string
	SearchTimeMs  float64
	Page          int
	PageSize      int
	HasMore       bool
}

type ListNodesRequest struct{}

type NodeInfo struct {
	ID             string
	Address        string
	Role           string
	Status         string
	CPULoad        float64
	MemoryLoad     float64
	DiskLoad       float64
	DocumentCount  int
	PartitionCount int
}

type ListNodesResponse struct {
	Nodes []NodeInfo
}

type GetNodeDetailsRequest struct {
	NodeID string
}

type GetNodeDetailsResponse struct {
	Found bool
	Node  NodeInfo
}

type JoinClusterRequest struct {
	NodeID      string
	Address     string
	HypercubeID uint64
	Role        string
}

type JoinClusterResponse struct {
	Accepted bool
}

type RemoveNodeRequest struct {
	NodeID string
}

type RemoveNodeResponse struct {
	Removed bool
}

type GetPartitionsRequest struct{}

type PartitionInfo struct {
	ID             string
	PrimaryNodeID  string
	ReplicaNodeIDs []string
}

type GetPartitionsResponse struct {
	Partitions []PartitionInfo
}

type TriggerRebalanceRequest struct{}

type TriggerRebalanceResponse struct {
	Triggered bool
}

type GetMasterRequest struct{}

type GetMasterResponse struct {
	LeaderID   string
	LeaderAddr string
}

type TriggerElectionRequest struct{}

type TriggerElectionResponse struct {
	Triggered bool
}

type HealthRequest struct{}

type HealthResponse struct {
	Healthy bool
	Message string
}

type GetShardStatsRequest struct{}

type ShardStatsEntry struct {
	ShardID          int
	VirtualNodes     int
	NumTerms         int
	NumRegistrations int
}

type GetShardStatsResponse struct {
	Shards []ShardStatsEntry
}
