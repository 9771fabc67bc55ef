package hypercube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteNextHopSameNode(t *testing.T) {
	r := NewRouter(4)
	_, ok := r.RouteNextHop(5, 5, map[uint64]struct{}{4: {}})
	assert.False(t, ok)
}

func TestRouteNextHopNoNeighbors(t *testing.T) {
	r := NewRouter(4)
	_, ok := r.RouteNextHop(5, 12, map[uint64]struct{}{})
	assert.False(t, ok)
}

func TestRouteNextHopPicksClosest(t *testing.T) {
	r := NewRouter(4)
	// current=5 (0101), dest=12 (1100): neighbors 4 (0100) and 13 (1101) are
	// both one bit away from dest, 7 (0111) is three; the lower ID, 4, wins.
	next, ok := r.RouteNextHop(5, 12, map[uint64]struct{}{4: {}, 7: {}, 13: {}})
	assert.True(t, ok)
	assert.Equal(t, uint64(4), next)
}

func TestRouteNextHopDeterministicTieBreak(t *testing.T) {
	r := NewRouter(4)
	// Both 0 and 3 are equidistant (1 bit) from dest=1.
	next, ok := r.RouteNextHop(2, 1, map[uint64]struct{}{0: {}, 3: {}})
	assert.True(t, ok)
	assert.Equal(t, uint64(0), next) // lowest ID wins the tie
}

func TestCalculateRoutePathDirect(t *testing.T) {
	r := NewRouter(4)
	active := map[uint64]struct{}{0: {}, 1: {}, 3: {}, 7: {}}
	path := r.CalculateRoutePath(0, 7, active, 0)
	assert.Equal(t, []uint64{0, 1, 3, 7}, path)
}

func TestCalculateRoutePathSameNode(t *testing.T) {
	r := NewRouter(4)
	path := r.CalculateRoutePath(5, 5, map[uint64]struct{}{5: {}}, 0)
	assert.Equal(t, []uint64{5}, path)
}

func TestCalculateRoutePathUnreachable(t *testing.T) {
	r := NewRouter(4)
	active := map[uint64]struct{}{0: {}, 15: {}} // 0 and 15 share no intermediate neighbors here
	path := r.CalculateRoutePath(0, 15, active, 4)
	assert.Nil(t, path)
}

func TestCalculateRouteDistance(t *testing.T) {
	r := NewRouter(20)
	assert.Equal(t, 0, r.CalculateRouteDistance(5, 5))
	assert.Equal(t, 1, r.CalculateRouteDistance(5, 4))
	assert.Equal(t, 4, r.CalculateRouteDistance(0, 15))
}
