// Package replication places each document on k = replication_factor nodes
// and provides a write quorum of w = floor(k/2)+1, with best-effort rollback
// when quorum cannot be reached.
package replication

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/distrisearch/core/internal/hypercube"
	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/scatter"
	"github.com/distrisearch/core/internal/types"
)

// QuorumConfig holds the replication/quorum tunables and validates the
// invariant w + r > k so any read quorum intersects any write quorum.
type QuorumConfig struct {
	ReplicationFactor int // k
	WriteQuorum       int // w
	ReadQuorum        int // r
}

// Validate checks the quorum-intersection invariant w + r > k.
func (c QuorumConfig) Validate() error {
	if c.ReplicationFactor < 1 {
		return fmt.Errorf("replication factor must be >= 1, got %d", c.ReplicationFactor)
	}
	minWrite := c.ReplicationFactor/2 + 1
	if c.WriteQuorum < minWrite {
		return fmt.Errorf("write quorum %d below minimum %d for replication factor %d", c.WriteQuorum, minWrite, c.ReplicationFactor)
	}
	if c.WriteQuorum+c.ReadQuorum <= c.ReplicationFactor {
		return fmt.Errorf("quorum intersection violated: w(%d) + r(%d) must exceed k(%d)", c.WriteQuorum, c.ReadQuorum, c.ReplicationFactor)
	}
	return nil
}

// NodeLookup resolves the live, healthy node set the replica selector and
// replicator can address — implemented by the cluster coordinator.
type NodeLookup interface {
	HealthyNodes() []*types.Node
	NodeByID(id string) (*types.Node, bool)
}

// Client performs the per-target RPCs a replicated write or delete needs.
// Implemented by internal/rpc's cluster client.
type Client interface {
	ReplicateDoc(ctx context.Context, targetNodeID string, doc *types.Document) error
	RollbackDoc(ctx context.Context, targetNodeID string, docID string) error
	DeleteDoc(ctx context.Context, targetNodeID string, docID string) error
}

// SelectReplicas picks the document's replica set: its primary (by
// partition) plus the k-1 nearest hypercube neighbors by Hamming distance to
// the primary, filtered to healthy nodes and ties broken by node ID compared as strings
// — the exact strategy of the original reference's replica manager.
func SelectReplicas(primary *types.Node, k int, healthy []*types.Node) []*types.Node {
	if primary == nil || k <= 0 {
		return nil
	}

	type candidate struct {
		node     *types.Node
		distance int
	}
	candidates := make([]candidate, 0, len(healthy))
	for _, n := range healthy {
		if n.ID == primary.ID {
			continue
		}
		d := hypercube.Node{ID: primary.HypercubeID}.HammingDistance(n.HypercubeID)
		candidates = append(candidates, candidate{node: n, distance: d})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].node.ID < candidates[j].node.ID
	})

	replicas := []*types.Node{primary}
	for _, c := range candidates {
		if len(replicas) >= k {
			break
		}
		replicas = append(replicas, c.node)
	}
	return replicas
}

// WriteOutcome reports which nodes a replicated write actually landed on.
type WriteOutcome struct {
	PlacedOn []string
	Quorum   bool
}

// Manager coordinates quorum-gated replicated writes and fan-out deletes.
type Manager struct {
	cfg    QuorumConfig
	lookup NodeLookup
	client Client
	// perTargetTimeout bounds each individual ReplicateDoc RPC (default 5s).
	perTargetTimeout time.Duration
}

// NewManager creates a replication Manager. cfg must already satisfy
// Validate(); callers typically validate once at startup.
func NewManager(cfg QuorumConfig, lookup NodeLookup, client Client) *Manager {
	return &Manager{cfg: cfg, lookup: lookup, client: client, perTargetTimeout: 5 * time.Second}
}

// Write places doc on its replica set and returns success once at least w
// replicas (including the primary, already written locally by the caller
// before invoking this) have accepted it. On quorum failure it issues
// best-effort rollback to every replica that did accept, then fails.
func (m *Manager) Write(ctx context.Context, doc *types.Document, primary *types.Node) (WriteOutcome, error) {
	healthy := m.lookup.HealthyNodes()
	replicas := SelectReplicas(primary, m.cfg.ReplicationFactor, healthy)
	if len(replicas) == 0 {
		return WriteOutcome{}, types.NewUnavailableError("no healthy nodes available to replicate onto")
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReplicationLatency)

	// The primary already has the document locally;
	// it counts toward the quorum without an RPC round-trip.
	succeeded := []string{primary.ID}

	var targets []scatter.Target
	for _, target := range replicas {
		if target.ID == primary.ID {
			continue
		}
		node := target
		targets = append(targets, scatter.Target{
			ID: node.ID,
			Call: func(ctx context.Context) (interface{}, error) {
				return nil, m.client.ReplicateDoc(ctx, node.ID, doc)
			},
		})
	}

	for _, r := range scatter.Gather(ctx, targets, m.perTargetTimeout, m.perTargetTimeout) {
		if r.Err != nil {
			log.WithDocID(doc.ID).Warn().Str("target", r.TargetID).Err(r.Err).Msg("replicate failed")
			continue
		}
		succeeded = append(succeeded, r.TargetID)
	}

	if len(succeeded) >= m.cfg.WriteQuorum {
		return WriteOutcome{PlacedOn: succeeded, Quorum: true}, nil
	}

	m.rollback(context.Background(), doc.ID, succeeded)
	metrics.ReplicationQuorumFailuresTotal.Inc()
	return WriteOutcome{PlacedOn: succeeded, Quorum: false},
		types.NewNoQuorumError(fmt.Sprintf("only %d/%d replicas accepted doc %s, need %d", len(succeeded), len(replicas), doc.ID, m.cfg.WriteQuorum))
}

func (m *Manager) rollback(ctx context.Context, docID string, acceptedNodeIDs []string) {
	var wg sync.WaitGroup
	for _, nodeID := range acceptedNodeIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rpcCtx, cancel := context.WithTimeout(ctx, m.perTargetTimeout)
			defer cancel()
			if err := m.client.RollbackDoc(rpcCtx, id, docID); err != nil {
				log.WithDocID(docID).Warn().Str("target", id).Err(err).Msg("rollback failed")
			}
		}(nodeID)
	}
	wg.Wait()
	metrics.RollbacksTotal.Inc()
}

// Delete fans a delete out to every known replica of the document. Reply is
// best-effort: the delete protocol does not require a quorum.
func (m *Manager) Delete(ctx context.Context, docID string, replicaNodeIDs []string) {
	var wg sync.WaitGroup
	for _, nodeID := range replicaNodeIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rpcCtx, cancel := context.WithTimeout(ctx, m.perTargetTimeout)
			defer cancel()
			if err := m.client.DeleteDoc(rpcCtx, id, docID); err != nil {
				log.WithDocID(docID).Warn().Str("target", id).Err(err).Msg("delete fan-out failed")
			}
		}(nodeID)
	}
	wg.Wait()
}
