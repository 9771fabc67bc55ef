package sharding

import "sync"

// Coordinator is the per-shard registry of which nodes currently hold
// postings for the terms that hash into that shard. Every node's Manager
// keeps one Coordinator per shard as a full local mirror, updated from the
// node's own index changes and from peers' UpdateShard broadcasts.
type Coordinator struct {
	mu        sync.RWMutex
	shardID   int
	termNodes map[string]map[string]struct{} // term -> set of node IDs
}

// NewCoordinator creates an empty per-shard term→nodes registry.
func NewCoordinator(shardID int) *Coordinator {
	return &Coordinator{shardID: shardID, termNodes: make(map[string]map[string]struct{})}
}

// UpdateNodeIndex records that nodeID now holds postings for added terms and
// no longer holds postings for removed terms.
func (c *Coordinator) UpdateNodeIndex(nodeID string, added, removed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, term := range added {
		nodes, ok := c.termNodes[term]
		if !ok {
			nodes = make(map[string]struct{})
			c.termNodes[term] = nodes
		}
		nodes[nodeID] = struct{}{}
	}
	for _, term := range removed {
		if nodes, ok := c.termNodes[term]; ok {
			delete(nodes, nodeID)
			if len(nodes) == 0 {
				delete(c.termNodes, term)
			}
		}
	}
}

// LocateTerm returns the set of node IDs known to hold postings for term.
func (c *Coordinator) LocateTerm(term string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	nodes, ok := c.termNodes[term]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for n := range nodes {
		out = append(out, n)
	}
	return out
}

// Stats reports the number of distinct terms and node registrations tracked
// by this shard coordinator.
func (c *Coordinator) Stats() (numTerms int, numRegistrations int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	numTerms = len(c.termNodes)
	for _, nodes := range c.termNodes {
		numRegistrations += len(nodes)
	}
	return numTerms, numRegistrations
}

// Manager wires a ConsistentHash ring to one Coordinator per shard, giving
// term→shard and term→node lookups and fan-out helpers for multi-term queries.
type Manager struct {
	mu    sync.RWMutex
	ring  *ConsistentHash
	shards map[int]*Coordinator
}

// NewManager builds a Manager with numShards shards on a ring of
// virtualNodes virtual nodes per shard.
func NewManager(numShards, virtualNodes int) *Manager {
	ring := NewConsistentHash(numShards, virtualNodes)
	m := &Manager{ring: ring, shards: make(map[int]*Coordinator)}
	for s := 0; s < ring.NumShards(); s++ {
		m.shards[s] = NewCoordinator(s)
	}
	return m
}

// ShardForTerm returns the shard ID owning term.
func (m *Manager) ShardForTerm(term string) int {
	return m.ring.GetShard(term)
}

// ShardsForTerms groups terms by owning shard ID.
func (m *Manager) ShardsForTerms(terms []string) map[int][]string {
	grouped := make(map[int][]string)
	for _, t := range terms {
		shard := m.ring.GetShard(t)
		grouped[shard] = append(grouped[shard], t)
	}
	return grouped
}

func (m *Manager) coordinatorFor(shardID int) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.shards[shardID]
	if !ok {
		c = NewCoordinator(shardID)
		m.shards[shardID] = c
	}
	return c
}

// UpdateNodeIndex routes the added/removed terms for nodeID to each term's
// owning shard coordinator.
func (m *Manager) UpdateNodeIndex(nodeID string, added, removed []string) {
	byShard := make(map[int]struct{ added, removed []string })
	for _, t := range added {
		shard := m.ring.GetShard(t)
		e := byShard[shard]
		e.added = append(e.added, t)
		byShard[shard] = e
	}
	for _, t := range removed {
		shard := m.ring.GetShard(t)
		e := byShard[shard]
		e.removed = append(e.removed, t)
		byShard[shard] = e
	}
	for shardID, e := range byShard {
		m.coordinatorFor(shardID).UpdateNodeIndex(nodeID, e.added, e.removed)
	}
}

// LocateTerms groups terms by shard, queries each shard's coordinator, and
// returns the union of node IDs across every term.
func (m *Manager) LocateTerms(terms []string) []string {
	seen := make(map[string]struct{})
	for shardID, shardTerms := range m.ShardsForTerms(terms) {
		c := m.coordinatorFor(shardID)
		for _, t := range shardTerms {
			for _, n := range c.LocateTerm(t) {
				seen[n] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// ShardStats reports per-shard term/registration counts, keyed by shard ID.
type ShardStats struct {
	ShardID          int
	VirtualNodes     int
	NumTerms         int
	NumRegistrations int
}

// GetShardStats reports statistics for every shard, combining ring placement
// (vnode counts) with the live term registry each coordinator tracks.
func (m *Manager) GetShardStats() []ShardStats {
	dist := m.ring.ShardDistribution()
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]ShardStats, 0, len(m.shards))
	for shardID, c := range m.shards {
		numTerms, numReg := c.Stats()
		stats = append(stats, ShardStats{
			ShardID:          shardID,
			VirtualNodes:     dist[shardID],
			NumTerms:         numTerms,
			NumRegistrations: numReg,
		})
	}
	return stats
}
