package rpc

import (
	"testing"

	"github.com/distrisearch/core/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestMatchesFiltersEmptyAlwaysMatches(t *testing.T) {
	assert.True(t, matchesFilters(map[string]string{"author": "ada"}, nil))
}

func TestMatchesFiltersRequiresAllKeys(t *testing.T) {
	meta := map[string]string{"author": "ada", "lang": "en"}
	assert.True(t, matchesFilters(meta, map[string]string{"author": "ada"}))
	assert.False(t, matchesFilters(meta, map[string]string{"author": "grace"}))
	assert.False(t, matchesFilters(meta, map[string]string{"missing": "x"}))
}

func TestNodeToInfoCopiesFields(t *testing.T) {
	n := &types.Node{
		ID:             "node-1",
		Address:        "10.0.0.1:7000",
		Role:           types.NodeRoleMaster,
		Status:         types.NodeStatusHealthy,
		CPULoad:        0.5,
		MemoryLoad:     0.25,
		DiskLoad:       0.1,
		DocumentCount:  42,
		PartitionCount: 3,
	}
	info := nodeToInfo(n)
	assert.Equal(t, "node-1", info.ID)
	assert.Equal(t, "10.0.0.1:7000", info.Address)
	assert.Equal(t, string(types.NodeRoleMaster), info.Role)
	assert.Equal(t, string(types.NodeStatusHealthy), info.Status)
	assert.Equal(t, 42, info.DocumentCount)
	assert.Equal(t, 3, info.PartitionCount)
}
