package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetShardDeterministic(t *testing.T) {
	ch := NewConsistentHash(16, 150)
	a := ch.GetShard("search")
	b := ch.GetShard("search")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 16)
}

func TestGetShardDistributesAcrossShards(t *testing.T) {
	ch := NewConsistentHash(16, 150)
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		term := "term" + string(rune('a'+i%26)) + string(rune('0'+i%10))
		seen[ch.GetShard(term)] = true
	}
	assert.Greater(t, len(seen), 1, "terms should spread across more than one shard")
}

func TestShardDistributionCoversAllShards(t *testing.T) {
	ch := NewConsistentHash(4, 150)
	dist := ch.ShardDistribution()
	assert.Len(t, dist, 4)
	for shard := 0; shard < 4; shard++ {
		assert.Equal(t, 150, dist[shard])
	}
}

func TestAddShardGrowsRing(t *testing.T) {
	ch := NewConsistentHash(4, 50)
	newID := ch.AddShard()
	assert.Equal(t, 4, newID)
	assert.Equal(t, 5, ch.NumShards())
	dist := ch.ShardDistribution()
	assert.Equal(t, 50, dist[newID])
}

func TestRemoveShard(t *testing.T) {
	ch := NewConsistentHash(4, 50)
	ch.RemoveShard(0)
	dist := ch.ShardDistribution()
	assert.Equal(t, 0, dist[0])
}

func TestGetShardsForRange(t *testing.T) {
	ch := NewConsistentHash(16, 150)
	shards := ch.GetShardsForRange([]string{"alpha", "beta", "gamma"})
	assert.NotEmpty(t, shards)
	for _, s := range shards {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 16)
	}
}
