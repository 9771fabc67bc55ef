package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/heartbeat"
	"github.com/distrisearch/core/internal/queryplane"
	"github.com/distrisearch/core/internal/rpcjson"
	"github.com/distrisearch/core/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ClusterClient is the node-to-node RPC client: a pooled set of grpc
// connections keyed by address, satisfying every interface the domain
// packages define against "some RPC client" (replication.Client,
// heartbeat.Sender, apstore.Replicator, queryplane.NodeSearcher) without any
// of those packages importing grpc directly — grounded on the reference
// pkg/client/client.go dial-and-wrap shape, minus mTLS (see DESIGN.md).
type ClusterClient struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn

	// addrOf resolves a node ID to a dialable address; supplied by the
	// caller (typically the coordinator's NodeByID) since the client has no
	// membership view of its own.
	addrOf func(nodeID string) (string, bool)
}

// NewClusterClient creates a ClusterClient. addrOf resolves the target node
// ID of every call to an address; SendHeartbeat ignores its peerAddr
// argument and resolves peerID the same way.
func NewClusterClient(addrOf func(nodeID string) (string, bool)) *ClusterClient {
	return &ClusterClient{
		conns:  make(map[string]*grpc.ClientConn),
		addrOf: addrOf,
	}
}

func (c *ClusterClient) connFor(nodeID string) (*grpc.ClientConn, error) {
	addr, ok := c.addrOf(nodeID)
	if !ok {
		return nil, fmt.Errorf("rpc: no known address for node %s", nodeID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcjson.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}
	c.conns[addr] = conn
	return conn, nil
}

// Close tears down every pooled connection.
func (c *ClusterClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for addr, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, addr)
	}
	return firstErr
}

func (c *ClusterClient) invoke(ctx context.Context, nodeID, method string, req, resp interface{}) error {
	conn, err := c.connFor(nodeID)
	if err != nil {
		return err
	}
	return conn.Invoke(ctx, "/"+clusterServiceName+"/"+method, req, resp)
}

// ReplicateDoc implements replication.Client.
func (c *ClusterClient) ReplicateDoc(ctx context.Context, targetNodeID string, doc *types.Document) error {
	req := &ReplicateDocRequest{
		DocID:         doc.ID,
		Content:       doc.Content,
		Metadata:      doc.Metadata,
		PartitionID:   doc.PartitionID,
		PrimaryNodeID: doc.PrimaryNodeID,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	var resp ReplicateDocResponse
	return c.invoke(ctx, targetNodeID, "ReplicateDoc", req, &resp)
}

// RollbackDoc implements replication.Client.
func (c *ClusterClient) RollbackDoc(ctx context.Context, targetNodeID string, docID string) error {
	var resp RollbackDocResponse
	return c.invoke(ctx, targetNodeID, "RollbackDoc", &RollbackDocRequest{DocID: docID}, &resp)
}

// DeleteDoc implements replication.Client.
func (c *ClusterClient) DeleteDoc(ctx context.Context, targetNodeID string, docID string) error {
	var resp DeleteDocResponse
	return c.invoke(ctx, targetNodeID, "DeleteDoc", &DeleteDocRequest{DocID: docID}, &resp)
}

// SendHeartbeat implements heartbeat.Sender.
func (c *ClusterClient) SendHeartbeat(ctx context.Context, peerID, peerAddr string, status types.NodeStatus, gauges heartbeat.Gauges) error {
	req := &HeartbeatRequest{
		NodeID:     peerID,
		Status:     string(status),
		CPULoad:    gauges.CPULoad,
		MemoryLoad: gauges.MemoryLoad,
		DiskLoad:   gauges.DiskLoad,
	}
	var resp HeartbeatResponse
	if err := c.invoke(ctx, peerID, "Heartbeat", req, &resp); err != nil {
		return err
	}
	if !resp.Acknowledged {
		return fmt.Errorf("rpc: heartbeat to %s not acknowledged", peerID)
	}
	return nil
}

// ReplicateVersion implements apstore.Replicator.
func (c *ClusterClient) ReplicateVersion(ctx context.Context, peerID string, key string, v apstore.VersionedValue) error {
	req := &ReplicateVersionRequest{
		Key:         key,
		Value:       v.Value,
		VectorClock: map[string]uint64(v.VectorClock),
		Timestamp:   v.Timestamp,
		OriginNode:  v.OriginNode,
		Version:     v.Version,
	}
	var resp ReplicateVersionResponse
	if err := c.invoke(ctx, peerID, "ReplicateVersion", req, &resp); err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("rpc: version replication to %s rejected", peerID)
	}
	return nil
}

// SearchLocal implements queryplane.NodeSearcher.
func (c *ClusterClient) SearchLocal(ctx context.Context, nodeID string, query string, limit int, filters map[string]string) ([]queryplane.NodeResult, error) {
	req := &SearchLocalRequest{Query: query, Limit: limit, Filters: filters}
	var resp SearchLocalResponse
	if err := c.invoke(ctx, nodeID, "SearchLocal", req, &resp); err != nil {
		return nil, err
	}

	out := make([]queryplane.NodeResult, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = queryplane.NodeResult{
			DocID:       r.DocID,
			NodeID:      nodeID,
			Score:       r.Score,
			Content:     r.Content,
			AccessCount: r.AccessCount,
			ModifiedAt:  r.ModifiedAt,
			Metadata:    r.Metadata,
		}
	}
	return out, nil
}

// BroadcastShardUpdate sends one node's added/removed term set to every peer
// address, keeping each node's local sharding.Manager in sync without a
// single owning coordinator node (see DESIGN.md's sharding-broadcast entry).
// Failures are logged by the caller; this fans out best-effort.
func (c *ClusterClient) BroadcastShardUpdate(ctx context.Context, nodeID string, peerIDs []string, added, removed []string) map[string]error {
	req := &UpdateShardRequest{NodeID: nodeID, Added: added, Removed: removed}
	errs := make(map[string]error, len(peerIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, peerID := range peerIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rpcCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			var resp UpdateShardResponse
			err := c.invoke(rpcCtx, id, "UpdateShard", req, &resp)
			mu.Lock()
			errs[id] = err
			mu.Unlock()
		}(peerID)
	}
	wg.Wait()
	return errs
}

// AdminClient is the client-facing RPC client used by cmd/searchctl.
type AdminClient struct {
	conn   *grpc.ClientConn
	client AdminServer
}

// adminClientStub forwards AdminServer method calls over one grpc.ClientConn.
type adminClientStub struct {
	conn *grpc.ClientConn
}

func (a *adminClientStub) call(ctx context.Context, method string, req, resp interface{}) error {
	return a.conn.Invoke(ctx, "/"+adminServiceName+"/"+method, req, resp)
}

func (a *adminClientStub) PutDocument(ctx context.Context, req *PutDocumentRequest) (*PutDocumentResponse, error) {
	resp := new(PutDocumentResponse)
	return resp, a.call(ctx, "PutDocument", req, resp)
}
func (a *adminClientStub) GetDocument(ctx context.Context, req *GetDocumentRequest) (*GetDocumentResponse, error) {
	resp := new(GetDocumentResponse)
	return resp, a.call(ctx, "GetDocument", req, resp)
}
func (a *adminClientStub) DeleteDocument(ctx context.Context, req *DeleteDocumentRequest) (*DeleteDocumentResponse, error) {
	resp := new(DeleteDocumentResponse)
	return resp, a.call(ctx, "DeleteDocument", req, resp)
}
func (a *adminClientStub) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	resp := new(SearchResponse)
	return resp, a.call(ctx, "Search", req, resp)
}
func (a *adminClientStub) ListNodes(ctx context.Context, req *ListNodesRequest) (*ListNodesResponse, error) {
	resp := new(ListNodesResponse)
	return resp, a.call(ctx, "ListNodes", req, resp)
}
func (a *adminClientStub) GetNodeDetails(ctx context.Context, req *GetNodeDetailsRequest) (*GetNodeDetailsResponse, error) {
	resp := new(GetNodeDetailsResponse)
	return resp, a.call(ctx, "GetNodeDetails", req, resp)
}
func (a *adminClientStub) JoinCluster(ctx context.Context, req *JoinClusterRequest) (*JoinClusterResponse, error) {
	resp := new(JoinClusterResponse)
	return resp, a.call(ctx, "JoinCluster", req, resp)
}
func (a *adminClientStub) RemoveNode(ctx context.Context, req *RemoveNodeRequest) (*RemoveNodeResponse, error) {
	resp := new(RemoveNodeResponse)
	return resp, a.call(ctx, "RemoveNode", req, resp)
}
func (a *adminClientStub) GetPartitions(ctx context.Context, req *GetPartitionsRequest) (*GetPartitionsResponse, error) {
	resp := new(GetPartitionsResponse)
	return resp, a.call(ctx, "GetPartitions", req, resp)
}
func (a *adminClientStub) TriggerRebalance(ctx context.Context, req *TriggerRebalanceRequest) (*TriggerRebalanceResponse, error) {
	resp := new(TriggerRebalanceResponse)
	return resp, a.call(ctx, "TriggerRebalance", req, resp)
}
func (a *adminClientStub) GetMaster(ctx context.Context, req *GetMasterRequest) (*GetMasterResponse, error) {
	resp := new(GetMasterResponse)
	return resp, a.call(ctx, "GetMaster", req, resp)
}
func (a *adminClientStub) TriggerElection(ctx context.Context, req *TriggerElectionRequest) (*TriggerElectionResponse, error) {
	resp := new(TriggerElectionResponse)
	return resp, a.call(ctx, "TriggerElection", req, resp)
}
func (a *adminClientStub) Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error) {
	resp := new(HealthResponse)
	return resp, a.call(ctx, "Health", req, resp)
}
func (a *adminClientStub) GetShardStats(ctx context.Context, req *GetShardStatsRequest) (*GetShardStatsResponse, error) {
	resp := new(GetShardStatsResponse)
	return resp, a.call(ctx, "GetShardStats", req, resp)
}

// NewAdminClient dials addr and returns an AdminClient for cmd/searchctl.
func NewAdminClient(addr string) (*AdminClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcjson.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}
	return &AdminClient{conn: conn, client: &adminClientStub{conn: conn}}, nil
}

// Close closes the underlying connection.
func (a *AdminClient) Close() error { return a.conn.Close() }

// Stub exposes the typed AdminServer call surface for cmd/searchctl
// subcommands.
func (a *AdminClient) Stub() AdminServer { return a.client }
