// Package config loads the node's YAML configuration file into a
// types.ClusterConfig, the way cmd/warren loads its cluster configuration:
// a typed struct with programmatic defaults, overridden field-by-field by
// whatever the file sets, then validated before the daemon uses it.
package config

import (
	"fmt"
	"os"

	"github.com/distrisearch/core/internal/types"
	"gopkg.in/yaml.v3"
)

// NodeConfig is the full on-disk configuration for one cluster node: its own
// identity plus the replicated ClusterConfig tunables. Only the tunables in
// ClusterConfig are ever replicated via Raft's UPDATE_CONFIG; NodeID/
// BindAddr/DataDir are local to this process.
type NodeConfig struct {
	NodeID   string `yaml:"node_id"`
	BindAddr string `yaml:"bind_addr"`
	RPCAddr  string `yaml:"rpc_addr"`
	DataDir  string `yaml:"data_dir"`
	JoinAddr string `yaml:"join_addr"`

	Cluster types.ClusterConfig `yaml:"cluster"`
}

// DefaultNodeConfig returns a NodeConfig with the documented cluster-wide
// defaults and empty node-local fields; callers fill NodeID/BindAddr/DataDir
// from flags when no file supplies them.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Cluster: types.DefaultClusterConfig(),
	}
}

// Load reads a YAML file at path, layering it on top of DefaultNodeConfig so
// a file that only sets node_id/bind_addr still gets valid cluster tunables.
// An empty path returns the defaults untouched.
func Load(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := Validate(&cfg.Cluster); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the cross-field invariants the quorum and ranking configs
// must hold: write quorum must reach a strict majority of the replication
// factor, write+read quorum must intersect, and ranking weights sum to 1.0.
func Validate(cfg *types.ClusterConfig) error {
	if cfg.ReplicationFactor < 1 {
		return fmt.Errorf("replication_factor must be >= 1, got %d", cfg.ReplicationFactor)
	}
	minWrite := cfg.ReplicationFactor/2 + 1
	if cfg.WriteQuorum < minWrite {
		return fmt.Errorf("min_replicas_for_write (%d) must be >= floor(k/2)+1 (%d)", cfg.WriteQuorum, minWrite)
	}
	if cfg.WriteQuorum+cfg.ReadQuorum <= cfg.ReplicationFactor {
		return fmt.Errorf("write quorum (%d) + read quorum (%d) must exceed replication_factor (%d)",
			cfg.WriteQuorum, cfg.ReadQuorum, cfg.ReplicationFactor)
	}
	sum := cfg.RankingWeights.Distance + cfg.RankingWeights.Recency + cfg.RankingWeights.Popularity
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("ranking_weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}
