package hypercube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeNeighbors(t *testing.T) {
	n := NewNode(5, 4) // 0101
	neighbors := n.Neighbors()
	assert.Len(t, neighbors, 4)
	assert.ElementsMatch(t, []uint64{4, 7, 1, 13}, neighbors) // flip bit 0,1,2,3
}

func TestNodeIsNeighbor(t *testing.T) {
	n := NewNode(5, 4)
	assert.True(t, n.IsNeighbor(4))
	assert.True(t, n.IsNeighbor(7))
	assert.False(t, n.IsNeighbor(5))
	assert.False(t, n.IsNeighbor(2)) // differs in three bits
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint64
		expected int
	}{
		{"identical", 5, 5, 0},
		{"one bit", 5, 4, 1},
		{"all bits differ in 4 dims", 0, 15, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNode(tt.a, 4)
			assert.Equal(t, tt.expected, n.HammingDistance(tt.b))
		})
	}
}

func TestTopologyDiameter(t *testing.T) {
	topo := NewTopology(10)
	assert.Equal(t, 10, topo.Diameter())
}

func TestTopologyNetworkDensity(t *testing.T) {
	topo := NewTopology(4) // 16 slots
	assert.InDelta(t, 0.5, topo.NetworkDensity(8), 0.0001)
	assert.InDelta(t, 0.0, topo.NetworkDensity(0), 0.0001)
}

func TestTopologyEstimateAvgHops(t *testing.T) {
	topo := NewTopology(10)
	assert.Equal(t, 5.0, topo.EstimateAvgHops(600)) // density > 0.5 of 1024
	assert.Greater(t, topo.EstimateAvgHops(1), 5.0)  // sparse network needs more hops
}

func TestDefaultDimensions(t *testing.T) {
	n := NewNode(1, 0)
	assert.Equal(t, 20, n.Dimensions)
	topo := NewTopology(0)
	assert.Equal(t, 20, topo.Dimensions)
}
