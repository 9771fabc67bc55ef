package metrics

import (
	"strconv"
	"time"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/consensus"
	"github.com/distrisearch/core/internal/index"
	"github.com/distrisearch/core/internal/storage"
)

// Collector periodically samples node/partition/raft/AP-store/index state
// into the Prometheus gauges declared in metrics.go, the way a reference
// Collector samples its manager on a ticker rather than updating gauges
// inline on every mutation.
type Collector struct {
	manager *consensus.Manager
	store   storage.Store
	tracker *apstore.Tracker
	idx     *index.InvertedIndex

	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a metrics collector over one node's domain components.
func NewCollector(mgr *consensus.Manager, store storage.Store, tracker *apstore.Tracker, idx *index.InvertedIndex) *Collector {
	return &Collector{
		manager:  mgr,
		store:    store,
		tracker:  tracker,
		idx:      idx,
		interval: 15 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics on a fixed interval, collecting once
// immediately so /metrics is populated before the first tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the collector's background ticker.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectNodeMetrics()
	c.collectPartitionMetrics()
	c.collectRaftMetrics()
	c.collectAPStoreMetrics()
	c.collectIndexMetrics()
}

func (c *Collector) collectNodeMetrics() {
	nodes, err := c.store.ListNodes()
	if err != nil {
		return
	}

	counts := make(map[string]map[string]int)
	for _, n := range nodes {
		role := string(n.Role)
		status := string(n.Status)
		if counts[role] == nil {
			counts[role] = make(map[string]int)
		}
		counts[role][status]++
	}
	for role, statuses := range counts {
		for status, count := range statuses {
			NodesTotal.WithLabelValues(role, status).Set(float64(count))
		}
	}
}

func (c *Collector) collectPartitionMetrics() {
	partitions, err := c.store.ListPartitions()
	if err != nil {
		return
	}
	PartitionsTotal.Set(float64(len(partitions)))
}

func (c *Collector) collectRaftMetrics() {
	if c.manager == nil {
		return
	}
	if c.manager.IsLeader() {
		RaftLeader.Set(1)
	} else {
		RaftLeader.Set(0)
	}
	RaftTerm.Set(float64(c.manager.Term()))

	stats := c.manager.Stats()
	if stats == nil {
		return
	}
	if v, err := strconv.ParseUint(stats["commit_index"], 10, 64); err == nil {
		RaftCommitIndex.Set(float64(v))
	}
	if v, err := strconv.ParseUint(stats["applied_index"], 10, 64); err == nil {
		RaftAppliedIndex.Set(float64(v))
	}
	if v, err := strconv.ParseUint(stats["num_peers"], 10, 64); err == nil {
		RaftPeers.Set(float64(v + 1))
	}
}

func (c *Collector) collectAPStoreMetrics() {
	if c.tracker == nil {
		return
	}
	PartitionStatus.Set(float64(partitionStatusCode(c.tracker.Status())))
}

func partitionStatusCode(status apstore.Status) int {
	switch status {
	case apstore.StatusConnected:
		return 0
	case apstore.StatusPartial:
		return 1
	case apstore.StatusPartitioned:
		return 2
	case apstore.StatusHealing:
		return 3
	default:
		return 0
	}
}

func (c *Collector) collectIndexMetrics() {
	if c.idx == nil {
		return
	}
	DocumentsTotal.Set(float64(c.idx.Stats().NumDocuments))
}
