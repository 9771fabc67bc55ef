package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerLocateTerms(t *testing.T) {
	m := NewManager(8, 50)

	m.UpdateNodeIndex("node-1", []string{"hello", "world"}, nil)
	m.UpdateNodeIndex("node-2", []string{"hello"}, nil)

	nodes := m.LocateTerms([]string{"hello"})
	assert.ElementsMatch(t, []string{"node-1", "node-2"}, nodes)

	nodes = m.LocateTerms([]string{"world"})
	assert.ElementsMatch(t, []string{"node-1"}, nodes)
}

func TestManagerUpdateNodeIndexRemoval(t *testing.T) {
	m := NewManager(8, 50)
	m.UpdateNodeIndex("node-1", []string{"hello"}, nil)
	assert.ElementsMatch(t, []string{"node-1"}, m.LocateTerms([]string{"hello"}))

	m.UpdateNodeIndex("node-1", nil, []string{"hello"})
	assert.Empty(t, m.LocateTerms([]string{"hello"}))
}

func TestManagerShardForTermDeterministic(t *testing.T) {
	m := NewManager(16, 150)
	assert.Equal(t, m.ShardForTerm("hello"), m.ShardForTerm("hello"))
}

func TestManagerGetShardStats(t *testing.T) {
	m := NewManager(4, 50)
	m.UpdateNodeIndex("node-1", []string{"hello", "world"}, nil)

	stats := m.GetShardStats()
	assert.Len(t, stats, 4)

	var totalTerms int
	for _, s := range stats {
		totalTerms += s.NumTerms
		assert.Equal(t, 50, s.VirtualNodes)
	}
	assert.Equal(t, 2, totalTerms)
}
