package coordinator

import (
	"testing"

	"github.com/distrisearch/core/internal/types"
)

func TestLoadVectorWeighting(t *testing.T) {
	node := &types.Node{CPULoad: 1.0, MemoryLoad: 1.0, DocumentCount: 50}
	got := LoadVector(node, 100)
	want := 0.4*1.0 + 0.3*1.0 + 0.3*0.5
	if got != want {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestRebalanceCheckTriggersOnImbalance(t *testing.T) {
	nodes := []*types.Node{
		{ID: "a", CPULoad: 0.9, MemoryLoad: 0.9, DocumentCount: 90},
		{ID: "b", CPULoad: 0.1, MemoryLoad: 0.1, DocumentCount: 10},
	}
	should, loads, mean := RebalanceCheck(nodes, 0.2)
	if !should {
		t.Fatalf("expected rebalance to trigger on imbalanced load")
	}
	if loads["a"] <= mean {
		t.Fatalf("expected node a's load to exceed the mean")
	}
}

func TestRebalanceCheckStaysQuietWhenBalanced(t *testing.T) {
	nodes := []*types.Node{
		{ID: "a", CPULoad: 0.5, MemoryLoad: 0.5, DocumentCount: 50},
		{ID: "b", CPULoad: 0.5, MemoryLoad: 0.5, DocumentCount: 50},
	}
	should, _, _ := RebalanceCheck(nodes, 0.2)
	if should {
		t.Fatalf("expected balanced cluster to not trigger rebalance")
	}
}

func TestRebalanceCheckEmptyCluster(t *testing.T) {
	should, loads, mean := RebalanceCheck(nil, 0.2)
	if should || loads != nil || mean != 0 {
		t.Fatalf("expected no-op result for empty cluster")
	}
}
