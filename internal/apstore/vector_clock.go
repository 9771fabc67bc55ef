// Package apstore implements the partition-tolerant key/value layer: vector
// clocks with last-writer-wins reconciliation, a partition status tracker
// driven by heartbeat observations, and always-succeeding reads/writes that
// degrade gracefully instead of blocking on a quorum.
package apstore

import "time"

// VectorClock is a per-writer counter map whose partial order detects
// concurrent writes across nodes.
type VectorClock map[string]uint64

// Clone returns an independent copy of vc.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// Increment returns a copy of vc with nodeID's counter incremented by one.
func (vc VectorClock) Increment(nodeID string) VectorClock {
	out := vc.Clone()
	out[nodeID]++
	return out
}

// Sum returns the total of every counter, used as a monotonically derived
// version number.
func (vc VectorClock) Sum() uint64 {
	var total uint64
	for _, v := range vc {
		total += v
	}
	return total
}

// dominanceResult captures the union-keyed comparison between two clocks.
type dominanceResult struct {
	aDominates bool
	bDominates bool
}

func compare(a, b VectorClock) dominanceResult {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	res := dominanceResult{aDominates: true, bDominates: true}
	for k := range keys {
		av, bv := a[k], b[k]
		if av < bv {
			res.aDominates = false
		}
		if bv < av {
			res.bDominates = false
		}
	}
	return res
}

// Dominates reports whether vc dominates other: every counter in vc is >=
// the corresponding counter in other, and strictly greater for at least one.
func (vc VectorClock) Dominates(other VectorClock) bool {
	res := compare(vc, other)
	return res.aDominates && !(res.aDominates && res.bDominates)
}

// Concurrent reports whether neither clock dominates the other.
func (vc VectorClock) Concurrent(other VectorClock) bool {
	res := compare(vc, other)
	return !res.aDominates && !res.bDominates
}

// VersionedValue is a value tagged with the vector clock and wall-clock
// timestamp of its writer, used to order concurrent writes by last-writer-wins.
type VersionedValue struct {
	Value       []byte
	VectorClock VectorClock
	Timestamp   time.Time
	OriginNode  string
	Version     uint64 // VectorClock.Sum() at creation time
}

// NewVersionedValue increments originNode's entry in prevClock (nil treated
// as empty) and stamps the result with the current time.
func NewVersionedValue(value []byte, prevClock VectorClock, originNode string, now time.Time) VersionedValue {
	vc := prevClock.Increment(originNode)
	return VersionedValue{
		Value:       value,
		VectorClock: vc,
		Timestamp:   now,
		OriginNode:  originNode,
		Version:     vc.Sum(),
	}
}

// IsNewerThan reports whether v should replace other: v wins outright if its
// vector clock dominates other's; if the two are concurrent, the later
// wall-clock timestamp wins (last-writer-wins).
func (v VersionedValue) IsNewerThan(other VersionedValue) bool {
	res := compare(v.VectorClock, other.VectorClock)
	switch {
	case res.aDominates && !res.bDominates:
		return true
	case res.bDominates && !res.aDominates:
		return false
	default:
		// Concurrent (or identical) — last-writer-wins by timestamp.
		return v.Timestamp.After(other.Timestamp)
	}
}

// Merge reconciles a remote version against the local one: the dominant
// version wins outright; concurrent versions are resolved by LWW and the
// result's vector clock is the pointwise union (max) of both, so merge is
// commutative and associative on pairs of VersionedValue. The second return
// value reports whether the merge detected a genuine concurrent conflict.
func Merge(local, remote VersionedValue) (merged VersionedValue, conflict bool) {
	res := compare(remote.VectorClock, local.VectorClock)
	unioned := unionClocks(local.VectorClock, remote.VectorClock)

	switch {
	case res.aDominates && !res.bDominates: // remote dominates
		merged = remote
	case res.bDominates && !res.aDominates: // local dominates
		merged = local
	default: // concurrent
		conflict = true
		if remote.Timestamp.After(local.Timestamp) {
			merged = remote
		} else {
			merged = local
		}
	}
	merged.VectorClock = unioned
	merged.Version = unioned.Sum()
	return merged, conflict
}

func unionClocks(a, b VectorClock) VectorClock {
	out := make(VectorClock, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}
