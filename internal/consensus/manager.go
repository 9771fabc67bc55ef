package consensus

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/storage"
	"github.com/distrisearch/core/internal/types"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// Manager wraps a hashicorp/raft node over the cluster command set: it owns
// Bootstrap/Join, exposes IsLeader/LeaderAddr for the authorization
// middleware, and Submit/Apply for the only path by which replicated state
// may change (all state mutations go through Raft submit →
// apply; direct mutation of the replicated state is forbidden").
type Manager struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft  *raft.Raft
	fsm   *FSM
	store storage.Store
}

// Config configures a Manager's Raft node.
type Config struct {
	NodeID                 string
	BindAddr               string
	DataDir                string
	ElectionTimeoutMin     time.Duration
	ElectionTimeoutMax     time.Duration
	HeartbeatInterval      time.Duration
}

// NewManager opens the node's BoltDB store and constructs its FSM, without
// starting Raft — callers choose Bootstrap (first node) or Join (everyone
// else) next.
func NewManager(cfg Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	fsm := NewFSM(store)

	return &Manager{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      fsm,
		store:    store,
	}, nil
}

// Store returns the underlying storage.Store, used by components (the
// coordinator, replication manager) that read cluster state directly rather
// than through Raft.
func (m *Manager) Store() storage.Store { return m.store }

func raftConfig(nodeID string, electionMin, heartbeat time.Duration) *raft.Config {
	cfg := raft.DefaultConfig()
	cfg.LocalID = raft.ServerID(nodeID)
	if electionMin <= 0 {
		electionMin = 150 * time.Millisecond
	}
	if heartbeat <= 0 {
		heartbeat = 50 * time.Millisecond
	}
	cfg.HeartbeatTimeout = electionMin
	cfg.ElectionTimeout = electionMin
	cfg.CommitTimeout = heartbeat
	cfg.LeaderLeaseTimeout = electionMin / 2
	return cfg
}

func (m *Manager) newRaftNode(cfg Config) (*raft.Raft, error) {
	addr, err := net.ResolveTCPAddr("tcp", m.bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(m.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(m.dataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(m.dataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(m.dataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("create stable store: %w", err)
	}

	raftCfg := raftConfig(m.nodeID, cfg.ElectionTimeoutMin, cfg.HeartbeatInterval)
	return raft.NewRaft(raftCfg, m.fsm, logStore, stableStore, snapshotStore, transport)
}

// Bootstrap starts a brand-new single-node cluster with this node as its
// only (voting) member — with n=1 the
// node becomes leader immediately without voting peers.
func (m *Manager) Bootstrap(cfg Config) error {
	r, err := m.newRaftNode(cfg)
	if err != nil {
		return err
	}
	m.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{{ID: raft.ServerID(m.nodeID), Address: raft.ServerAddress(m.bindAddr)}},
	}
	future := m.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil {
		return fmt.Errorf("bootstrap cluster: %w", err)
	}
	return nil
}

// Join starts this node's Raft instance and waits for the current leader to
// add it as a voter via AddVoter (driven by the cluster coordinator's
// on_node_joined handling of the client-facing JoinCluster operation).
func (m *Manager) Join(cfg Config) error {
	r, err := m.newRaftNode(cfg)
	if err != nil {
		return err
	}
	m.raft = r
	return nil
}

// AddVoter adds nodeID at address as a new Raft voter. Only the leader may
// call this successfully.
func (m *Manager) AddVoter(nodeID, address string) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !m.IsLeader() {
		return types.NewNotLeaderError(m.LeaderAddr())
	}
	future := m.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second)
	return future.Error()
}

// RemoveServer removes nodeID from the Raft configuration. Only the leader
// may call this successfully — this is the client-facing leader-only
// RemoveNode operation's consensus-layer half.
func (m *Manager) RemoveServer(nodeID string) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !m.IsLeader() {
		return types.NewNotLeaderError(m.LeaderAddr())
	}
	future := m.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second)
	return future.Error()
}

// IsLeader reports whether this node currently holds Raft leadership.
func (m *Manager) IsLeader() bool {
	return m.raft != nil && m.raft.State() == raft.Leader
}

// LeaderAddr returns the bind address of the current leader, or "" if none
// is known — used both for the leader_hint on NotLeader errors and for
// GetMaster.
func (m *Manager) LeaderAddr() string {
	if m.raft == nil {
		return ""
	}
	return string(m.raft.Leader())
}

// Term returns the current Raft term observed by this node.
func (m *Manager) Term() uint64 {
	if m.raft == nil {
		return 0
	}
	stats := m.raft.Stats()
	var term uint64
	fmt.Sscanf(stats["term"], "%d", &term)
	return term
}

// Submit marshals and applies a command through Raft, returning a
// NotLeaderError immediately if this node isn't the leader rather than
// waiting out the RPC timeout. This is the only path through which
// replicated cluster state may change.
func (m *Manager) Submit(cmd Command) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !m.IsLeader() {
		return types.NewNotLeaderError(m.LeaderAddr())
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RaftApplyDuration)

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	future := m.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		return types.NewInternalError(fmt.Sprintf("raft apply failed: %v", err))
	}
	if resp := future.Response(); resp != nil {
		if respErr, ok := resp.(error); ok {
			return types.NewInternalError(respErr.Error())
		}
	}
	return nil
}

// TriggerElection asks this node to transfer Raft leadership to another
// voter, which starts a fresh election, exposed for the client-facing
// TriggerElection admin operation (mainly useful in tests and manual
// failover drills). On a node that is not the leader, raft returns an error.
func (m *Manager) TriggerElection() error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	future := m.raft.LeadershipTransfer()
	return future.Error()
}

// Stats reports Raft diagnostics for the Health/Metrics surfaces.
func (m *Manager) Stats() map[string]string {
	if m.raft == nil {
		return nil
	}
	return m.raft.Stats()
}

// Shutdown gracefully stops the Raft node, flushing persistent state first
// (flush happens inside hashicorp/raft's own stable/log store writes).
func (m *Manager) Shutdown() error {
	if m.raft == nil {
		return m.store.Close()
	}
	if err := m.raft.Shutdown().Error(); err != nil {
		log.WithComponent("consensus").Warn().Err(err).Msg("raft shutdown reported an error")
	}
	return m.store.Close()
}
