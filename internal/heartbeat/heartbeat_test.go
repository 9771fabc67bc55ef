package heartbeat

import (
	"context"
	"sync"
	"testing"

	"github.com/distrisearch/core/internal/apstore"
	"github.com/distrisearch/core/internal/types"
)

type fakeSender struct {
	mu   sync.Mutex
	fail map[string]bool
}

func (f *fakeSender) SendHeartbeat(ctx context.Context, peerID, peerAddr string, status types.NodeStatus, gauges Gauges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[peerID] {
		return context.DeadlineExceeded
	}
	return nil
}

type fakePeers struct{ peers []*types.Node }

func (f *fakePeers) Peers() []*types.Node { return f.peers }

func newMonitor(sender Sender, peers []*types.Node, maxFailures int) *Monitor {
	tracker := apstore.NewTracker()
	tracker.RegisterNode("self")
	for _, p := range peers {
		tracker.RegisterNode(p.ID)
	}
	return NewMonitor("self", 0, maxFailures, sender, &fakePeers{peers: peers}, tracker,
		func() Gauges { return Gauges{} },
		func() types.NodeStatus { return types.NodeStatusHealthy })
}

func TestMonitorMarksUnreachableAfterMaxFailures(t *testing.T) {
	peers := []*types.Node{{ID: "p1", Address: "a1"}}
	sender := &fakeSender{fail: map[string]bool{"p1": true}}
	m := newMonitor(sender, peers, 3)

	var unreachableCalls int
	m.OnUnreachable(func(peerID string) { unreachableCalls++ })

	for i := 0; i < 3; i++ {
		m.broadcastOnce(context.Background())
	}

	failures, known := m.Status("p1")
	if !known || failures != 3 {
		t.Fatalf("expected 3 consecutive failures, got %d (known=%v)", failures, known)
	}
	if unreachableCalls != 1 {
		t.Fatalf("expected OnUnreachable fired exactly once, got %d", unreachableCalls)
	}
}

func TestMonitorRecoversOnSingleSuccess(t *testing.T) {
	peers := []*types.Node{{ID: "p1", Address: "a1"}}
	sender := &fakeSender{fail: map[string]bool{"p1": true}}
	m := newMonitor(sender, peers, 2)

	var reachableCalls int
	m.OnReachable(func(peerID string) { reachableCalls++ })

	m.broadcastOnce(context.Background())
	m.broadcastOnce(context.Background())

	sender.mu.Lock()
	sender.fail["p1"] = false
	sender.mu.Unlock()

	m.broadcastOnce(context.Background())

	failures, _ := m.Status("p1")
	if failures != 0 {
		t.Fatalf("expected failure streak reset, got %d", failures)
	}
	if reachableCalls != 1 {
		t.Fatalf("expected OnReachable fired exactly once, got %d", reachableCalls)
	}
}
