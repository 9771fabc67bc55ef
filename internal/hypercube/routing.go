package hypercube

import (
	"math/bits"
	"sort"
)

// Router performs XOR-greedy next-hop selection over a hypercube overlay.
type Router struct {
	Dimensions int
}

// NewRouter creates a Router for the given dimensionality.
func NewRouter(dimensions int) *Router {
	if dimensions <= 0 {
		dimensions = 20
	}
	return &Router{Dimensions: dimensions}
}

// RouteNextHop picks the next hop from currentID toward destID among
// availableNeighbors: the neighbor whose XOR distance to destID is smallest.
// Ties are broken by the lowest neighbor ID, making the choice deterministic
// (the reference implementation iterates an unordered set and is not).
// Returns (0, false) if currentID == destID or no neighbors are available.
func (r *Router) RouteNextHop(currentID, destID uint64, availableNeighbors map[uint64]struct{}) (uint64, bool) {
	if currentID == destID {
		return 0, false
	}
	if len(availableNeighbors) == 0 {
		return 0, false
	}

	var best uint64
	bestDistance := -1
	found := false

	candidates := make([]uint64, 0, len(availableNeighbors))
	for n := range availableNeighbors {
		candidates = append(candidates, n)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	for _, neighbor := range candidates {
		distance := bits.OnesCount64(neighbor ^ destID)
		if !found || distance < bestDistance {
			bestDistance = distance
			best = neighbor
			found = true
		}
	}

	return best, found
}

// CalculateRoutePath computes a full hop-by-hop path from startID to destID
// using only IDs present in activeNodes, bounded by maxHops (defaults to
// Dimensions). Returns an empty path if no route exists within the budget.
func (r *Router) CalculateRoutePath(startID, destID uint64, activeNodes map[uint64]struct{}, maxHops int) []uint64 {
	if startID == destID {
		return []uint64{startID}
	}
	if _, ok := activeNodes[destID]; !ok {
		return nil
	}
	if maxHops <= 0 {
		maxHops = r.Dimensions
	}

	current := startID
	path := []uint64{current}
	visited := map[uint64]struct{}{current: {}}

	for hop := 0; hop < maxHops; hop++ {
		if current == destID {
			return path
		}

		neighbors := map[uint64]struct{}{}
		for i := 0; i < r.Dimensions; i++ {
			candidate := current ^ (uint64(1) << uint(i))
			if _, active := activeNodes[candidate]; !active {
				continue
			}
			if _, seen := visited[candidate]; seen {
				continue
			}
			neighbors[candidate] = struct{}{}
		}

		if len(neighbors) == 0 {
			return nil
		}

		next, ok := r.RouteNextHop(current, destID, neighbors)
		if !ok {
			return nil
		}

		path = append(path, next)
		visited[next] = struct{}{}
		current = next
	}

	if current == destID {
		return path
	}
	return nil
}

// CalculateRouteDistance returns the minimum hop count between two nodes in a
// perfect hypercube: the Hamming distance between their IDs.
func (r *Router) CalculateRouteDistance(startID, destID uint64) int {
	return bits.OnesCount64(startID ^ destID)
}
