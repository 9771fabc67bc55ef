package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/consensus"
	"github.com/distrisearch/core/internal/coordinator"
	"github.com/distrisearch/core/internal/events"
	"github.com/distrisearch/core/internal/index"
	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/queryplane"
	"github.com/distrisearch/core/internal/replication"
	"github.com/distrisearch/core/internal/sharding"
	"github.com/distrisearch/core/internal/storage"
	"github.com/distrisearch/core/internal/types"
	"github.com/google/uuid"
	"google.golang.org/grpc"

	_ "github.com/distrisearch/core/internal/rpcjson" // registers the "json" codec
)

// RebalancePlanFunc executes one rebalance plan over the supplied overloaded
// and underloaded nodes; cmd/searchd wires the concrete implementation in at
// startup and hands it to the Server so TriggerRebalance has something to
// call synchronously instead of only waiting for the background loop.
type RebalancePlanFunc func(ctx context.Context, overloaded, underloaded []*types.Node) error

// Server is the single node process's RPC front door: it implements both
// ClusterServer (node-to-node) and AdminServer (client-facing) against the
// same set of domain components, wrapping one consensus.Manager behind a
// generated service interface the way a single API gateway process would.
// There is no mTLS cert loading here (see DESIGN.md) — the codec and
// transport credentials are wired by Start.
type Server struct {
	nodeID string

	manager *consensus.Manager
	coord   *coordinator.Coordinator
	repl    *replication.Manager
	ap      *apstore.Store
	tracker *apstore.Tracker
	idx     *index.InvertedIndex
	shards  *sharding.Manager
	plane   *queryplane.Plane
	client  *ClusterClient
	broker  *events.Broker

	rebalancePlan RebalancePlanFunc

	grpcServer *grpc.Server
}

// Config bundles everything a Server needs; cmd/searchd's dependency
// container builds one of these and passes it straight through.
type Config struct {
	NodeID        string
	Manager       *consensus.Manager
	Coordinator   *coordinator.Coordinator
	Replication   *replication.Manager
	APStore       *apstore.Store
	Tracker       *apstore.Tracker
	Index         *index.InvertedIndex
	Shards        *sharding.Manager
	Plane         *queryplane.Plane
	Client        *ClusterClient
	Broker        *events.Broker
	RebalancePlan RebalancePlanFunc
}

// NewServer wires a Server from cfg.
func NewServer(cfg Config) *Server {
	return &Server{
		nodeID:        cfg.NodeID,
		manager:       cfg.Manager,
		coord:         cfg.Coordinator,
		repl:          cfg.Replication,
		ap:            cfg.APStore,
		tracker:       cfg.Tracker,
		idx:           cfg.Index,
		shards:        cfg.Shards,
		plane:         cfg.Plane,
		client:        cfg.Client,
		broker:        cfg.Broker,
		rebalancePlan: cfg.RebalancePlan,
	}
}

// ensureLeader guards the write-shaped admin operations: on a follower it
// returns a ClusterError carrying the current leader's address so the
// caller can retry there.
func (s *Server) ensureLeader() error {
	if s.manager.IsLeader() {
		return nil
	}
	return types.NewNotLeaderError(s.manager.LeaderAddr())
}

// Start binds addr, registers both service descriptors, and serves until
// Stop is called or the listener dies.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	s.grpcServer = grpc.NewServer()
	RegisterClusterServer(s.grpcServer, s)
	RegisterAdminServer(s.grpcServer, s)
	log.WithNodeID(s.nodeID).Info().Str("addr", addr).Msg("rpc server listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully drains in-flight RPCs before returning.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

// --- ClusterServer ---

func (s *Server) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	s.tracker.MarkReachable(req.NodeID)
	if node, ok := s.coord.NodeByID(req.NodeID); ok {
		node.Status = types.NodeStatus(req.Status)
		node.CPULoad = req.CPULoad
		node.MemoryLoad = req.MemoryLoad
		node.DiskLoad = req.DiskLoad
		node.LastHeartbeat = time.Now()
		_ = s.manager.Store().UpdateNode(node)
	}
	return &HeartbeatResponse{Acknowledged: true}, nil
}

func (s *Server) ReplicateDoc(ctx context.Context, req *ReplicateDocRequest) (*ReplicateDocResponse, error) {
	doc := &types.Document{
		ID:            req.DocID,
		Content:       req.Content,
		Metadata:      req.Metadata,
		PartitionID:   req.PartitionID,
		PrimaryNodeID: req.PrimaryNodeID,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
	added := s.idx.AddDocument(doc)
	s.broadcastShardDelta(added, nil)
	return &ReplicateDocResponse{Accepted: true}, nil
}

func (s *Server) RollbackDoc(ctx context.Context, req *RollbackDocRequest) (*RollbackDocResponse, error) {
	removed := s.idx.RemoveDocument(req.DocID)
	s.broadcastShardDelta(nil, removed)
	return &RollbackDocResponse{Removed: true}, nil
}

func (s *Server) DeleteDoc(ctx context.Context, req *DeleteDocRequest) (*DeleteDocResponse, error) {
	removed := s.idx.RemoveDocument(req.DocID)
	s.broadcastShardDelta(nil, removed)
	return &DeleteDocResponse{Removed: true}, nil
}

func (s *Server) SearchLocal(ctx context.Context, req *SearchLocalRequest) (*SearchLocalResponse, error) {
	postings := s.idx.Search(req.Query, req.Limit)
	results := make([]SearchLocalResult, 0, len(postings))
	for _, p := range postings {
		doc := s.idx.GetDocument(p.DocID)
		if doc == nil {
			continue
		}
		if !matchesFilters(doc.Metadata, req.Filters) {
			continue
		}
		results = append(results, SearchLocalResult{
			DocID:       doc.ID,
			Score:       p.Score,
			Content:     doc.Content,
			AccessCount: doc.AccessCount,
			ModifiedAt:  doc.UpdatedAt,
			Metadata:    doc.Metadata,
		})
	}
	return &SearchLocalResponse{Results: results}, nil
}

func matchesFilters(metadata, filters map[string]string) bool {
	for k, v := range filters {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// UpdateShard applies a peer's shard-locator broadcast to this node's own
// mirror; it never rebroadcasts, so the gossip fans out exactly one hop from
// whichever node originated the index change.
func (s *Server) UpdateShard(ctx context.Context, req *UpdateShardRequest) (*UpdateShardResponse, error) {
	s.shards.UpdateNodeIndex(req.NodeID, req.Added, req.Removed)
	return &UpdateShardResponse{Acknowledged: true}, nil
}

func (s *Server) ReplicateVersion(ctx context.Context, req *ReplicateVersionRequest) (*ReplicateVersionResponse, error) {
	accepted := s.ap.ReceiveRemote(req.Key, apstore.VersionedValue{
		Value:       req.Value,
		VectorClock: apstore.VectorClock(req.VectorClock),
		Timestamp:   req.Timestamp,
		OriginNode:  req.OriginNode,
		Version:     req.Version,
	})
	return &ReplicateVersionResponse{Accepted: accepted}, nil
}

// broadcastShardDelta registers this node's own term delta locally, then
// gossips it to every peer so their sharding.Manager mirrors stay current.
// See DESIGN.md's sharding-broadcast entry for why there is no single
// owning coordinator node instead.
func (s *Server) broadcastShardDelta(added, removed []string) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	s.shards.UpdateNodeIndex(s.nodeID, added, removed)
	peers := s.coord.Peers()
	if len(peers) == 0 {
		return
	}
	peerIDs := make([]string, len(peers))
	for i, p := range peers {
		peerIDs[i] = p.ID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errs := s.client.BroadcastShardUpdate(ctx, s.nodeID, peerIDs, added, removed)
	for peerID, err := range errs {
		if err != nil {
			log.WithNodeID(s.nodeID).Warn().Str("peer_id", peerID).Err(err).Msg("shard broadcast failed")
		}
	}
	s.broker.Publish(&events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventShardUpdated,
		Timestamp: time.Now(),
		Message:   fmt.Sprintf("node %s indexed %d terms, removed %d", s.nodeID, len(added), len(removed)),
	})
}

// --- AdminServer ---

func (s *Server) PutDocument(ctx context.Context, req *PutDocumentRequest) (*PutDocumentResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}

	docID := req.DocID
	if docID == "" {
		docID = uuid.NewString()
	}
	now := time.Now()
	primary := s.selectPrimary()

	doc := &types.Document{
		ID:            docID,
		Content:       req.Content,
		Metadata:      req.Metadata,
		PartitionID:   docID,
		PrimaryNodeID: primary.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	added := s.idx.AddDocument(doc)
	s.broadcastShardDelta(added, nil)

	outcome, err := s.repl.Write(ctx, doc, primary)
	if err != nil {
		return nil, err
	}

	meta := &storage.DocumentMeta{
		DocID:          docID,
		PartitionID:    doc.PartitionID,
		PrimaryNodeID:  primary.ID,
		ReplicaNodeIDs: outcome.PlacedOn,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal document meta: %w", err)
	}
	if err := s.manager.Submit(consensus.Command{
		Op:        consensus.OpPutDocumentMeta,
		Data:      data,
		RequestID: docID,
	}); err != nil {
		return nil, err
	}

	s.plane.InvalidateCache()

	return &PutDocumentResponse{
		DocID:          docID,
		PartitionID:    doc.PartitionID,
		PrimaryNodeID:  primary.ID,
		ReplicaNodeIDs: outcome.PlacedOn,
	}, nil
}

// selectPrimary picks this node as primary for newly written documents; a
// single-writer-per-request placement keeps indexing local to whichever
// node accepted the PutDocument call instead of hopping again before the
// first write happens.
func (s *Server) selectPrimary() *types.Node {
	if node, ok := s.coord.NodeByID(s.nodeID); ok {
		return node
	}
	return &types.Node{ID: s.nodeID}
}

func (s *Server) GetDocument(ctx context.Context, req *GetDocumentRequest) (*GetDocumentResponse, error) {
	doc := s.idx.GetDocument(req.DocID)
	if doc == nil {
		return &GetDocumentResponse{Found: false}, nil
	}
	return &GetDocumentResponse{
		Found:    true,
		DocID:    doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	}, nil
}

func (s *Server) DeleteDocument(ctx context.Context, req *DeleteDocumentRequest) (*DeleteDocumentResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}

	meta, err := s.manager.Store().GetDocumentMeta(req.DocID)
	if err != nil {
		return &DeleteDocumentResponse{Deleted: false}, nil
	}

	removed := s.idx.RemoveDocument(req.DocID)
	s.broadcastShardDelta(nil, removed)
	s.repl.Delete(ctx, req.DocID, meta.ReplicaNodeIDs)

	data, err := json.Marshal(req.DocID)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal document id: %w", err)
	}
	if err := s.manager.Submit(consensus.Command{
		Op:        consensus.OpDeleteDocument,
		Data:      data,
		RequestID: "delete-" + req.DocID,
	}); err != nil {
		return nil, err
	}

	s.plane.InvalidateCache()
	return &DeleteDocumentResponse{Deleted: true}, nil
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	result, err := s.plane.Search(ctx, uuid.NewString(), req.Query, req.Filters, req.Page, req.PageSize, queryplane.Strategy(req.Strategy))
	if err != nil {
		return nil, err
	}
	items := make([]SearchResultItem, len(result.Items))
	for i, it := range result.Items {
		items[i] = SearchResultItem{
			DocID:        it.DocID,
			Score:        it.Score,
			Relevance:    it.Relevance,
			Snippet:      it.Snippet,
			MatchedTerms: it.MatchedTerms,
		}
	}
	return &SearchResponse{
		QueryID:       result.QueryID,
		QueryType:     string(result.QueryType),
		Items:         items,
		TotalResults:  result.TotalResults,
		SearchedNodes: result.SearchedNodes,
		FailedNodes:   result.FailedNodes,
		SearchTimeMs:  result.SearchTimeMs,
		Page:          result.Page,
		PageSize:      result.PageSize,
		HasMore:       result.HasMore,
	}, nil
}

func (s *Server) ListNodes(ctx context.Context, req *ListNodesRequest) (*ListNodesResponse, error) {
	nodes, err := s.manager.Store().ListNodes()
	if err != nil {
		return nil, fmt.Errorf("rpc: list nodes: %w", err)
	}
	out := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToInfo(n)
	}
	return &ListNodesResponse{Nodes: out}, nil
}

func (s *Server) GetNodeDetails(ctx context.Context, req *GetNodeDetailsRequest) (*GetNodeDetailsResponse, error) {
	node, err := s.manager.Store().GetNode(req.NodeID)
	if err != nil || node == nil {
		return &GetNodeDetailsResponse{Found: false}, nil
	}
	return &GetNodeDetailsResponse{Found: true, Node: nodeToInfo(node)}, nil
}

func nodeToInfo(n *types.Node) NodeInfo {
	return NodeInfo{
		ID:             n.ID,
		Address:        n.Address,
		Role:           string(n.Role),
		Status:         string(n.Status),
		CPULoad:        n.CPULoad,
		MemoryLoad:     n.MemoryLoad,
		DiskLoad:       n.DiskLoad,
		DocumentCount:  n.DocumentCount,
		PartitionCount: n.PartitionCount,
	}
}

func (s *Server) JoinCluster(ctx context.Context, req *JoinClusterRequest) (*JoinClusterResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}
	if err := s.manager.AddVoter(req.NodeID, req.Address); err != nil {
		return nil, fmt.Errorf("rpc: add voter %s: %w", req.NodeID, err)
	}
	node := &types.Node{
		ID:            req.NodeID,
		HypercubeID:   req.HypercubeID,
		Address:       req.Address,
		Role:          types.NodeRole(req.Role),
		Status:        types.NodeStatusHealthy,
		LastHeartbeat: time.Now(),
		CreatedAt:     time.Now(),
	}
	if err := s.coord.RegisterNode(node); err != nil {
		return nil, err
	}
	s.tracker.RegisterNode(req.NodeID)
	return &JoinClusterResponse{Accepted: true}, nil
}

func (s *Server) RemoveNode(ctx context.Context, req *RemoveNodeRequest) (*RemoveNodeResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}
	rereplicate := func(ctx context.Context, partitionID string) {
		// re-replication runs on the background rebalance loop
	}
	if err := s.coord.RemoveNode(ctx, req.NodeID, rereplicate); err != nil {
		return nil, err
	}
	return &RemoveNodeResponse{Removed: true}, nil
}

func (s *Server) GetPartitions(ctx context.Context, req *GetPartitionsRequest) (*GetPartitionsResponse, error) {
	partitions, err := s.manager.Store().ListPartitions()
	if err != nil {
		return nil, fmt.Errorf("rpc: list partitions: %w", err)
	}
	out := make([]PartitionInfo, len(partitions))
	for i, p := range partitions {
		out[i] = PartitionInfo{ID: p.ID, PrimaryNodeID: p.PrimaryNodeID, ReplicaNodeIDs: p.ReplicaNodeIDs}
	}
	return &GetPartitionsResponse{Partitions: out}, nil
}

func (s *Server) TriggerRebalance(ctx context.Context, req *TriggerRebalanceRequest) (*TriggerRebalanceResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}
	if s.rebalancePlan == nil {
		return &TriggerRebalanceResponse{Triggered: false}, nil
	}
	overloaded, underloaded := s.splitByLoad()
	if len(overloaded) == 0 {
		return &TriggerRebalanceResponse{Triggered: false}, nil
	}
	metrics.RebalanceTriggeredTotal.Inc()
	if err := s.rebalancePlan(ctx, overloaded, underloaded); err != nil {
		return nil, err
	}
	return &TriggerRebalanceResponse{Triggered: true}, nil
}

func (s *Server) splitByLoad() (overloaded, underloaded []*types.Node) {
	nodes := s.coord.HealthyNodes()
	_, loads, avg := coordinator.RebalanceCheck(nodes, 0)
	for _, n := range nodes {
		if loads[n.ID] > avg {
			overloaded = append(overloaded, n)
		} else {
			underloaded = append(underloaded, n)
		}
	}
	return overloaded, underloaded
}

func (s *Server) GetMaster(ctx context.Context, req *GetMasterRequest) (*GetMasterResponse, error) {
	addr := s.manager.LeaderAddr()
	leaderID := ""
	if nodes, err := s.manager.Store().ListNodes(); err == nil {
		for _, n := range nodes {
			if n.Address == addr {
				leaderID = n.ID
				break
			}
		}
	}
	return &GetMasterResponse{LeaderID: leaderID, LeaderAddr: addr}, nil
}

func (s *Server) TriggerElection(ctx context.Context, req *TriggerElectionRequest) (*TriggerElectionResponse, error) {
	if err := s.manager.TriggerElection(); err != nil {
		return nil, err
	}
	return &TriggerElectionResponse{Triggered: true}, nil
}

func (s *Server) Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error) {
	if !s.tracker.IsMajority() {
		return &HealthResponse{Healthy: false, Message: "partition minority"}, nil
	}
	return &HealthResponse{Healthy: true, Message: "ok"}, nil
}

func (s *Server) GetShardStats(ctx context.Context, req *GetShardStatsRequest) (*GetShardStatsResponse, error) {
	stats := s.shards.GetShardStats()
	out := make([]ShardStatsEntry, len(stats))
	for i, st := range stats {
		out[i] = ShardStatsEntry{
			ShardID:          st.ShardID,
			VirtualNodes:     st.VirtualNodes,
			NumTerms:         st.NumTerms,
			NumRegistrations: st.NumRegistrations,
		}
	}
	return &GetShardStatsResponse{Shards: out}, nil
}
