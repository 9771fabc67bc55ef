// Package sharding maps terms to shards via a consistent-hash ring, and,
// within each shard, terms to the cluster nodes holding postings for them.
package sharding

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
)

type vnode struct {
	hash    uint64
	shardID int
}

// ConsistentHash is a consistent-hashing ring over a fixed number of shards,
// each represented by virtualNodes points on the ring for even distribution.
type ConsistentHash struct {
	numShards    int
	virtualNodes int
	ring         []vnode
}

// NewConsistentHash builds a ring for numShards shards with virtualNodes
// virtual nodes each. Defaults: 16 shards, 150 virtual nodes per shard.
func NewConsistentHash(numShards, virtualNodes int) *ConsistentHash {
	if numShards <= 0 {
		numShards = 16
	}
	if virtualNodes <= 0 {
		virtualNodes = 150
	}
	ch := &ConsistentHash{numShards: numShards, virtualNodes: virtualNodes}
	ch.buildRing()
	return ch
}

func hashToUint64(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

func (ch *ConsistentHash) buildRing() {
	ring := make([]vnode, 0, ch.numShards*ch.virtualNodes)
	for shardID := 0; shardID < ch.numShards; shardID++ {
		for v := 0; v < ch.virtualNodes; v++ {
			key := fmt.Sprintf("shard_%d_vnode_%d", shardID, v)
			ring = append(ring, vnode{hash: hashToUint64(key), shardID: shardID})
		}
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i].hash < ring[j].hash })
	ch.ring = ring
}

// GetShard returns the shard ID owning key: the first ring entry whose hash
// is greater than or equal to hash(key), wrapping around to index 0 if the
// key's hash is greater than every entry on the ring.
func (ch *ConsistentHash) GetShard(key string) int {
	if len(ch.ring) == 0 {
		return 0
	}
	keyHash := hashToUint64(key)

	idx := sort.Search(len(ch.ring), func(i int) bool { return ch.ring[i].hash >= keyHash })
	if idx == len(ch.ring) {
		idx = 0
	}
	return ch.ring[idx].shardID
}

// GetShardsForRange returns the distinct shard IDs owning any of the given keys.
func (ch *ConsistentHash) GetShardsForRange(keys []string) []int {
	seen := make(map[int]struct{})
	for _, k := range keys {
		seen[ch.GetShard(k)] = struct{}{}
	}
	shards := make([]int, 0, len(seen))
	for s := range seen {
		shards = append(shards, s)
	}
	sort.Ints(shards)
	return shards
}

// AddShard grows the ring by one shard and rebuilds virtual node placement.
func (ch *ConsistentHash) AddShard() int {
	newShardID := ch.numShards
	ch.numShards++
	for v := 0; v < ch.virtualNodes; v++ {
		key := fmt.Sprintf("shard_%d_vnode_%d", newShardID, v)
		ch.ring = append(ch.ring, vnode{hash: hashToUint64(key), shardID: newShardID})
	}
	sort.Slice(ch.ring, func(i, j int) bool { return ch.ring[i].hash < ch.ring[j].hash })
	return newShardID
}

// RemoveShard removes every virtual node belonging to shardID from the ring.
func (ch *ConsistentHash) RemoveShard(shardID int) {
	kept := ch.ring[:0]
	for _, v := range ch.ring {
		if v.shardID != shardID {
			kept = append(kept, v)
		}
	}
	ch.ring = kept
}

// ShardDistribution returns the number of virtual nodes currently placed for
// each shard ID, useful for diagnosing ring imbalance.
func (ch *ConsistentHash) ShardDistribution() map[int]int {
	dist := make(map[int]int)
	for _, v := range ch.ring {
		dist[v.shardID]++
	}
	return dist
}

// NumShards returns the number of shards the ring was built with plus those
// added by AddShard; RemoveShard does not lower it.
func (ch *ConsistentHash) NumShards() int {
	return ch.numShards
}
