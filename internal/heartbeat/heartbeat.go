// Package heartbeat implements timed bidirectional liveness checking: every
// node emits a heartbeat to every known peer on heartbeat_interval, a peer
// is declared unreachable after max_heartbeat_failures missed contacts, and
// a single successful contact is enough to mark it reachable again.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/health"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/types"
)

// Gauges are the resource utilization fractions carried on every heartbeat.
type Gauges struct {
	CPULoad    float64
	MemoryLoad float64
	DiskLoad   float64
}

// Sender delivers a heartbeat RPC to a peer and reports whether it was
// acknowledged. Implemented by internal/rpc's cluster client.
type Sender interface {
	SendHeartbeat(ctx context.Context, peerID, peerAddr string, status types.NodeStatus, gauges Gauges) error
}

// PeerSource supplies the live peer list to heartbeat against — the cluster
// coordinator's membership view.
type PeerSource interface {
	Peers() []*types.Node
}

type peerState struct {
	consecutiveFailures int
	lastContact         time.Time
}

// Monitor broadcasts heartbeats to every known peer and derives
// reachable/unreachable sets, feeding an apstore.Tracker for partition-status
// re-evaluation.
type Monitor struct {
	mu       sync.Mutex
	nodeID   string
	interval time.Duration
	maxFailures int

	sender  Sender
	peers   PeerSource
	tracker *apstore.Tracker
	gauges  func() Gauges
	status  func() types.NodeStatus

	state map[string]*peerState

	onUnreachable func(peerID string)
	onReachable   func(peerID string)
}

// NewMonitor creates a heartbeat Monitor for nodeID.
func NewMonitor(nodeID string, interval time.Duration, maxFailures int, sender Sender, peers PeerSource, tracker *apstore.Tracker, gauges func() Gauges, status func() types.NodeStatus) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Monitor{
		nodeID:      nodeID,
		interval:    interval,
		maxFailures: maxFailures,
		sender:      sender,
		peers:       peers,
		tracker:     tracker,
		gauges:      gauges,
		status:      status,
		state:       make(map[string]*peerState),
	}
}

// OnUnreachable registers a callback invoked the moment a peer crosses the
// max_heartbeat_failures threshold.
func (m *Monitor) OnUnreachable(fn func(peerID string)) { m.onUnreachable = fn }

// OnReachable registers a callback invoked when a peer recovers.
func (m *Monitor) OnReachable(fn func(peerID string)) { m.onReachable = fn }

// Run broadcasts heartbeats to every known peer every interval until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.broadcastOnce(ctx)
		}
	}
}

func (m *Monitor) broadcastOnce(ctx context.Context) {
	peers := m.peers.Peers()
	gauges := m.gauges()
	status := m.status()

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(peer *types.Node) {
			defer wg.Done()
			rpcCtx, cancel := context.WithTimeout(ctx, m.interval)
			defer cancel()

			err := m.sender.SendHeartbeat(rpcCtx, peer.ID, peer.Address, status, gauges)
			if err != nil {
				// Distinguish a dead process from an application-level RPC
				// failure (wrong term, bad auth, etc.) before counting the
				// miss, so a live-but-erroring peer doesn't get logged as
				// network-unreachable.
				tcpCtx, tcpCancel := context.WithTimeout(ctx, 2*time.Second)
				reachable := health.NewTCPChecker(peer.Address).Check(tcpCtx).Healthy
				tcpCancel()
				if !reachable {
					metrics.NodeUnreachableTotal.WithLabelValues(peer.ID).Inc()
				}
			}
			m.recordContact(peer.ID, err == nil)
		}(p)
	}
	wg.Wait()
}

// recordContact updates the per-peer failure streak and re-evaluates the
// partition tracker when a peer crosses the unreachable/reachable boundary.
func (m *Monitor) recordContact(peerID string, ok bool) {
	m.mu.Lock()
	st, exists := m.state[peerID]
	if !exists {
		st = &peerState{}
		m.state[peerID] = st
	}

	if ok {
		wasUnreachable := st.consecutiveFailures >= m.maxFailures
		st.consecutiveFailures = 0
		st.lastContact = time.Now()
		m.mu.Unlock()

		m.tracker.MarkReachable(peerID)
		if wasUnreachable && m.onReachable != nil {
			m.onReachable(peerID)
		}
		return
	}

	st.consecutiveFailures++
	crossedThreshold := st.consecutiveFailures == m.maxFailures
	m.mu.Unlock()

	metrics.HeartbeatFailuresTotal.WithLabelValues(peerID).Inc()
	if crossedThreshold {
		m.tracker.MarkUnreachable(peerID)
		if m.onUnreachable != nil {
			m.onUnreachable(peerID)
		}
	}
}

// Status reports the current consecutive-failure streak for peerID, mainly
// for diagnostics and tests.
func (m *Monitor) Status(peerID string) (failures int, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.state[peerID]
	if !ok {
		return 0, false
	}
	return st.consecutiveFailures, true
}
