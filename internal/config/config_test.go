package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/distrisearch/core/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultClusterConfig(), cfg.Cluster)
}

func TestLoadOverridesOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	contents := `
node_id: node-1
bind_addr: 127.0.0.1:7000
data_dir: /tmp/node-1
cluster:
  replication_factor: 5
  min_replicas_for_write: 3
  read_quorum: 3
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "node-1", cfg.NodeID)
	assert.Equal(t, "127.0.0.1:7000", cfg.BindAddr)
	assert.Equal(t, 5, cfg.Cluster.ReplicationFactor)
	assert.Equal(t, 3, cfg.Cluster.WriteQuorum)
	// Untouched fields keep their defaults.
	assert.Equal(t, types.DefaultClusterConfig().SearchTimeout, cfg.Cluster.SearchTimeout)
}

func TestValidateRejectsInsufficientWriteQuorum(t *testing.T) {
	cfg := types.DefaultClusterConfig()
	cfg.ReplicationFactor = 5
	cfg.WriteQuorum = 2 // needs >= 3

	err := Validate(&cfg)
	assert.Error(t, err)
}

func TestValidateRejectsNonIntersectingQuorums(t *testing.T) {
	cfg := types.DefaultClusterConfig()
	cfg.ReplicationFactor = 3
	cfg.WriteQuorum = 2
	cfg.ReadQuorum = 1 // 2+1 == 3, must be > 3

	err := Validate(&cfg)
	assert.Error(t, err)
}

func TestValidateRejectsBadRankingWeights(t *testing.T) {
	cfg := types.DefaultClusterConfig()
	cfg.RankingWeights.Distance = 0.9

	err := Validate(&cfg)
	assert.Error(t, err)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := types.DefaultClusterConfig()
	assert.NoError(t, Validate(&cfg))
}
