package replication

import (
	"context"
	"sync"
	"testing"

	"github.com/distrisearch/core/internal/types"
)

type fakeLookup struct {
	nodes []*types.Node
}

func (f *fakeLookup) HealthyNodes() []*types.Node { return f.nodes }
func (f *fakeLookup) NodeByID(id string) (*types.Node, bool) {
	for _, n := range f.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

type fakeClient struct {
	mu          sync.Mutex
	failTargets map[string]bool
	replicated  []string
	rolledBack  []string
}

func newFakeClient(fail ...string) *fakeClient {
	m := make(map[string]bool)
	for _, f := range fail {
		m[f] = true
	}
	return &fakeClient{failTargets: m}
}

func (c *fakeClient) ReplicateDoc(ctx context.Context, targetNodeID string, doc *types.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTargets[targetNodeID] {
		return context.DeadlineExceeded
	}
	c.replicated = append(c.replicated, targetNodeID)
	return nil
}

func (c *fakeClient) RollbackDoc(ctx context.Context, targetNodeID string, docID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolledBack = append(c.rolledBack, targetNodeID)
	return nil
}

func (c *fakeClient) DeleteDoc(ctx context.Context, targetNodeID string, docID string) error {
	return nil
}

func makeNodes(n int) []*types.Node {
	nodes := make([]*types.Node, n)
	for i := 0; i < n; i++ {
		nodes[i] = &types.Node{ID: string(rune('1' + i)), HypercubeID: uint64(i), Status: types.NodeStatusHealthy}
	}
	return nodes
}

func TestSelectReplicasPicksPrimaryPlusNearestNeighbors(t *testing.T) {
	nodes := makeNodes(5)
	replicas := SelectReplicas(nodes[0], 3, nodes)
	if len(replicas) != 3 {
		t.Fatalf("expected 3 replicas, got %d", len(replicas))
	}
	if replicas[0].ID != nodes[0].ID {
		t.Fatalf("expected first replica to be the primary, got %s", replicas[0].ID)
	}
}

func TestWriteSucceedsWithQuorum(t *testing.T) {
	nodes := makeNodes(3)
	client := newFakeClient()
	mgr := NewManager(QuorumConfig{ReplicationFactor: 3, WriteQuorum: 2, ReadQuorum: 2}, &fakeLookup{nodes: nodes}, client)

	doc := &types.Document{ID: "d1", Content: "hello"}
	outcome, err := mgr.Write(context.Background(), doc, nodes[0])
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !outcome.Quorum || len(outcome.PlacedOn) < 2 {
		t.Fatalf("expected quorum outcome, got %+v", outcome)
	}
}

func TestWriteRollsBackOnQuorumFailure(t *testing.T) {
	nodes := makeNodes(3)
	client := newFakeClient(nodes[1].ID, nodes[2].ID) // both non-primary targets fail
	mgr := NewManager(QuorumConfig{ReplicationFactor: 3, WriteQuorum: 2, ReadQuorum: 2}, &fakeLookup{nodes: nodes}, client)

	doc := &types.Document{ID: "d1", Content: "hello"}
	_, err := mgr.Write(context.Background(), doc, nodes[0])
	if err == nil {
		t.Fatalf("expected quorum failure error")
	}
	clusterErr, ok := err.(*types.ClusterError)
	if !ok || clusterErr.Kind != types.ErrNoQuorum {
		t.Fatalf("expected NoQuorum error, got %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.rolledBack) != 1 || client.rolledBack[0] != nodes[0].ID {
		t.Fatalf("expected rollback sent to the primary only, got %v", client.rolledBack)
	}
}

func TestQuorumConfigValidate(t *testing.T) {
	valid := QuorumConfig{ReplicationFactor: 3, WriteQuorum: 2, ReadQuorum: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	invalid := QuorumConfig{ReplicationFactor: 3, WriteQuorum: 1, ReadQuorum: 2}
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected invalid config to fail validation")
	}
}
