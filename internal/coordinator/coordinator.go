// Package coordinator owns the live view of cluster membership on each node
// and drives leader-only corrective action: admitting new nodes, promoting
// replicas on failure, and periodic load-based rebalancing.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/distrisearch/core/internal/consensus"
	"github.com/distrisearch/core/internal/events"
	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/types"
	"github.com/google/uuid"
)

// RereplicateFunc schedules re-replication of a partition after its primary
// is promoted, restoring k replicas. Supplied by the caller (wired to
// internal/replication.Manager) to avoid a coordinator<->replication import
// cycle (cyclic references resolved via interfaces/callbacks instead).
type RereplicateFunc func(ctx context.Context, partitionID string)

// Coordinator tracks membership, health, partition ownership and placement,
// and triggers rebalancing/recovery on the leader.
type Coordinator struct {
	nodeID  string
	manager *consensus.Manager
	broker  *events.Broker
	cfg     types.ClusterConfig

	mu sync.RWMutex

	onNodeJoined  []func(*types.Node)
	onNodeLeft    []func(string)
	onLeaderChange []func(leaderID string)

	lastLeaderID string
	stopCh       chan struct{}
}

// New creates a Coordinator bound to manager's replicated state.
func New(nodeID string, manager *consensus.Manager, broker *events.Broker, cfg types.ClusterConfig) *Coordinator {
	return &Coordinator{
		nodeID:  nodeID,
		manager: manager,
		broker:  broker,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
	}
}

// OnNodeJoined registers a membership-join observer.
func (c *Coordinator) OnNodeJoined(fn func(*types.Node)) { c.onNodeJoined = append(c.onNodeJoined, fn) }

// OnNodeLeft registers a membership-leave observer.
func (c *Coordinator) OnNodeLeft(fn func(string)) { c.onNodeLeft = append(c.onNodeLeft, fn) }

// OnLeaderChange registers a leader-change observer.
func (c *Coordinator) OnLeaderChange(fn func(string)) { c.onLeaderChange = append(c.onLeaderChange, fn) }

// IsActiveMaster reports whether this node currently holds Raft leadership —
// the guard every leader-only duty in this package checks first.
func (c *Coordinator) IsActiveMaster() bool { return c.manager.IsLeader() }

// HealthyNodes implements replication.NodeLookup: the live, healthy node set.
func (c *Coordinator) HealthyNodes() []*types.Node {
	nodes, err := c.manager.Store().ListNodes()
	if err != nil {
		return nil
	}
	var healthy []*types.Node
	for _, n := range nodes {
		if n.Status == types.NodeStatusHealthy || n.Status == types.NodeStatusDegraded {
			healthy = append(healthy, n)
		}
	}
	return healthy
}

// NodeByID implements replication.NodeLookup.
func (c *Coordinator) NodeByID(id string) (*types.Node, bool) {
	n, err := c.manager.Store().GetNode(id)
	if err != nil {
		return nil, false
	}
	return n, true
}

// Peers implements heartbeat.PeerSource: every known node but this one.
func (c *Coordinator) Peers() []*types.Node {
	nodes, err := c.manager.Store().ListNodes()
	if err != nil {
		return nil
	}
	peers := nodes[:0]
	for _, n := range nodes {
		if n.ID != c.nodeID {
			peers = append(peers, n)
		}
	}
	return peers
}

// RegisterNode submits ADD_NODE through Raft. Only the leader can commit it;
// followers return NotLeader so the caller retries against the hinted
// leader, via a single authorization-middleware pattern.
func (c *Coordinator) RegisterNode(node *types.Node) error {
	if !c.IsActiveMaster() {
		return types.NewNotLeaderError(c.manager.LeaderAddr())
	}
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	if err := c.manager.Submit(consensus.Command{Op: consensus.OpAddNode, Data: data, RequestID: uuid.NewString()}); err != nil {
		return err
	}

	c.broker.Publish(&events.Event{Type: events.EventNodeJoined, Message: node.ID})
	for _, fn := range c.onNodeJoined {
		fn(node)
	}
	return nil
}

// RemoveNode is the leader-only client-facing operation: it submits
// REMOVE_NODE, removes the node from the Raft voter set, promotes the first
// surviving replica of every partition the departing node primaried, and
// schedules re-replication to restore k (see the node-removal
// open-question resolution in SPEC_FULL.md).
func (c *Coordinator) RemoveNode(ctx context.Context, nodeID string, rereplicate RereplicateFunc) error {
	if !c.IsActiveMaster() {
		return types.NewNotLeaderError(c.manager.LeaderAddr())
	}

	affected, err := c.promoteReplicasFor(nodeID)
	if err != nil {
		return err
	}

	idData, _ := json.Marshal(nodeID)
	if err := c.manager.Submit(consensus.Command{Op: consensus.OpRemoveNode, Data: idData, RequestID: uuid.NewString()}); err != nil {
		return err
	}
	if err := c.manager.RemoveServer(nodeID); err != nil {
		log.WithComponent("coordinator").Warn().Err(err).Str("node_id", nodeID).Msg("raft voter removal failed")
	}

	c.broker.Publish(&events.Event{Type: events.EventNodeLeft, Message: nodeID})
	for _, fn := range c.onNodeLeft {
		fn(nodeID)
	}

	if rereplicate != nil {
		for _, p := range affected {
			go rereplicate(ctx, p.ID)
		}
	}

	log.WithComponent("coordinator").Info().Str("node_id", nodeID).Int("partitions_affected", len(affected)).Msg("node removed, replicas promoted")
	return nil
}

// promoteReplicasFor finds every partition whose primary is nodeID and
// promotes replicas[1] (the first surviving replica) to primary via
// MOVE_PARTITION, per the node-removal reassignment this spec prescribes.
func (c *Coordinator) promoteReplicasFor(nodeID string) ([]*types.Partition, error) {
	partitions, err := c.manager.Store().ListPartitions()
	if err != nil {
		return nil, err
	}

	var affected []*types.Partition
	for _, p := range partitions {
		if p.PrimaryNodeID != nodeID {
			continue
		}
		var newPrimary string
		for _, r := range p.ReplicaNodeIDs {
			if r != nodeID {
				newPrimary = r
				break
			}
		}
		if newPrimary == "" {
			log.WithComponent("coordinator").Warn().Str("partition_id", p.ID).Msg("no surviving replica to promote")
			continue
		}

		payload, _ := json.Marshal(consensus.MovePartitionPayload{PartitionID: p.ID, NewPrimaryID: newPrimary})
		if err := c.manager.Submit(consensus.Command{Op: consensus.OpMovePartition, Data: payload, RequestID: uuid.NewString()}); err != nil {
			return nil, fmt.Errorf("promote replica for partition %s: %w", p.ID, err)
		}
		affected = append(affected, p)
	}
	return affected, nil
}

// HandleNodeFailure is invoked by the heartbeat monitor's OnUnreachable hook
// once a node crosses max_heartbeat_failures. It runs the same
// promote-and-reschedule path as RemoveNode but does not evict the node from
// Raft membership — the node may still recover.
func (c *Coordinator) HandleNodeFailure(ctx context.Context, nodeID string, rereplicate RereplicateFunc) {
	if !c.IsActiveMaster() {
		return
	}
	affected, err := c.promoteReplicasFor(nodeID)
	if err != nil {
		log.WithComponent("coordinator").Error().Err(err).Str("node_id", nodeID).Msg("failed to promote replicas for failed node")
	}
	c.broker.Publish(&events.Event{Type: events.EventNodeDown, Message: nodeID})

	if rereplicate != nil {
		for _, p := range affected {
			go rereplicate(ctx, p.ID)
		}
	}
}

// NotifyLeaderChange should be called whenever this node observes a
// different Raft leader, firing the on_leader_change observers.
func (c *Coordinator) NotifyLeaderChange(leaderID string) {
	c.mu.Lock()
	if c.lastLeaderID == leaderID {
		c.mu.Unlock()
		return
	}
	c.lastLeaderID = leaderID
	c.mu.Unlock()

	c.broker.Publish(&events.Event{Type: events.EventLeaderChanged, Message: leaderID})
	for _, fn := range c.onLeaderChange {
		fn(leaderID)
	}
}

// LoadVector is the normalized 0-1 weighted load estimate:
// 0.4*cpu + 0.3*memory + 0.3*doc-count fraction.
func LoadVector(node *types.Node, maxDocCount int) float64 {
	docFraction := 0.0
	if maxDocCount > 0 {
		docFraction = float64(node.DocumentCount) / float64(maxDocCount)
	}
	return 0.4*node.CPULoad + 0.3*node.MemoryLoad + 0.3*docFraction
}

// RebalanceCheck computes per-node load vectors and reports whether the
// spread exceeds rebalance_threshold (default 0.2).
func RebalanceCheck(nodes []*types.Node, threshold float64) (shouldRebalance bool, loads map[string]float64, mean float64) {
	if len(nodes) == 0 {
		return false, nil, 0
	}
	maxDocs := 0
	for _, n := range nodes {
		if n.DocumentCount > maxDocs {
			maxDocs = n.DocumentCount
		}
	}

	loads = make(map[string]float64, len(nodes))
	var sum float64
	for _, n := range nodes {
		l := LoadVector(n, maxDocs)
		loads[n.ID] = l
		sum += l
	}
	mean = sum / float64(len(nodes))

	maxDeviation := 0.0
	for _, l := range loads {
		if d := math.Abs(l - mean); d > maxDeviation {
			maxDeviation = d
		}
	}
	return maxDeviation > threshold, loads, mean
}

// RunRebalanceLoop runs the leader-only periodic rebalance check of
// the rebalance interval until ctx is cancelled. planFn computes and applies a bounded
// rebalance plan given the current overloaded/underloaded node split; it is
// supplied by the caller to avoid importing the query/placement layer here.
func (c *Coordinator) RunRebalanceLoop(ctx context.Context, interval time.Duration, planFn func(overloaded, underloaded []*types.Node)) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger := log.WithComponent("coordinator")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.IsActiveMaster() {
				continue
			}
			metrics.RebalanceCyclesTotal.Inc()

			nodes, err := c.manager.Store().ListNodes()
			if err != nil {
				logger.Error().Err(err).Msg("rebalance check: failed to list nodes")
				continue
			}
			should, loads, mean := RebalanceCheck(nodes, c.cfg.RebalanceThreshold)
			if !should {
				continue
			}
			metrics.RebalanceTriggeredTotal.Inc()

			var overloaded, underloaded []*types.Node
			for _, n := range nodes {
				if loads[n.ID] > mean {
					overloaded = append(overloaded, n)
				} else {
					underloaded = append(underloaded, n)
				}
			}
			sort.Slice(overloaded, func(i, j int) bool { return loads[overloaded[i].ID] > loads[overloaded[j].ID] })
			sort.Slice(underloaded, func(i, j int) bool { return loads[underloaded[i].ID] < loads[underloaded[j].ID] })

			c.broker.Publish(&events.Event{Type: events.EventRebalanceStarted})
			planFn(overloaded, underloaded)
			c.broker.Publish(&events.Event{Type: events.EventRebalanceComplete})
		}
	}
}

// Shutdown stops any coordinator-owned background work.
func (c *Coordinator) Shutdown() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}
