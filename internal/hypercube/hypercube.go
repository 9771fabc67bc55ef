// Package hypercube implements the logical d-dimensional hypercube overlay:
// node IDs are d-bit integers, two nodes are neighbors iff their IDs differ in
// exactly one bit, and routing picks the neighbor that minimizes the Hamming
// distance (XOR popcount) to the destination.
package hypercube

import (
	"hash/fnv"
	"math/bits"
)

// Node wraps a hypercube-addressed node ID with its dimensionality.
type Node struct {
	ID         uint64
	Dimensions int
}

// NewNode creates a Node bound to the given dimensionality. Dimensions
// defaults to 20, matching the reference implementation's default address
// space of 2^20 node slots.
func NewNode(id uint64, dimensions int) Node {
	if dimensions <= 0 {
		dimensions = 20
	}
	return Node{ID: id, Dimensions: dimensions}
}

// Neighbors returns every ID reachable by flipping exactly one bit of n.ID,
// across the configured dimensionality.
func (n Node) Neighbors() []uint64 {
	neighbors := make([]uint64, 0, n.Dimensions)
	for i := 0; i < n.Dimensions; i++ {
		neighbors = append(neighbors, n.ID^(uint64(1)<<uint(i)))
	}
	return neighbors
}

// IsNeighbor reports whether other differs from n.ID in exactly one bit.
func (n Node) IsNeighbor(other uint64) bool {
	return bits.OnesCount64(n.ID^other) == 1
}

// HammingDistance returns the number of differing bits between n.ID and other.
func (n Node) HammingDistance(other uint64) int {
	return bits.OnesCount64(n.ID ^ other)
}

// XORDistance returns the raw XOR of n.ID and other, used as a tie-breaking
// key where numeric rather than popcount ordering is wanted.
func (n Node) XORDistance(other uint64) uint64 {
	return n.ID ^ other
}

// AssignID derives a stable hypercube address for nodeID, masked to the
// given dimensionality's address space. Used once at node startup so a
// node's position in the overlay never changes across restarts as long as
// its node ID doesn't.
func AssignID(nodeID string, dimensions int) uint64 {
	if dimensions <= 0 {
		dimensions = 20
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(nodeID))
	mask := uint64(1)<<uint(dimensions) - 1
	return h.Sum64() & mask
}

// Topology holds the dimensionality shared by every node in a cluster and
// derives coarse network-shape estimates used to size query fan-out budgets.
type Topology struct {
	Dimensions int
}

// NewTopology creates a Topology for the given dimensionality.
func NewTopology(dimensions int) Topology {
	if dimensions <= 0 {
		dimensions = 20
	}
	return Topology{Dimensions: dimensions}
}

// Diameter returns the maximum possible hop count between any two nodes in a
// perfect hypercube of this dimensionality: it equals the dimensionality
// itself, since two IDs can differ in at most Dimensions bits.
func (t Topology) Diameter() int {
	return t.Dimensions
}

// NetworkDensity returns the fraction of the address space occupied by
// numActiveNodes, out of the 2^Dimensions possible slots.
func (t Topology) NetworkDensity(numActiveNodes int) float64 {
	maxNodes := float64(uint64(1) << uint(t.Dimensions))
	if maxNodes == 0 {
		return 0
	}
	return float64(numActiveNodes) / maxNodes
}

// EstimateAvgHops estimates the average number of hops a greedy XOR route
// takes between two random active nodes. Dense topologies route in roughly
// half the diameter; sparse ones need more hops because greedy routing more
// often has to backtrack around missing neighbors.
func (t Topology) EstimateAvgHops(numActiveNodes int) float64 {
	density := t.NetworkDensity(numActiveNodes)
	if density > 0.5 {
		return float64(t.Dimensions) / 2
	}
	return float64(t.Dimensions) * 0.75
}
