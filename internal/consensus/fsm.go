// Package consensus implements the Raft-replicated cluster state machine:
// the cluster-state command set (ADD_NODE/REMOVE_NODE/ASSIGN_PARTITION/
// MOVE_PARTITION/ADD_REPLICA/REMOVE_REPLICA/UPDATE_CONFIG/NOOP), the FSM that
// applies committed entries to a storage.Store, and the Manager wrapping
// hashicorp/raft's Bootstrap/Join/Apply/leader-query surface.
package consensus

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/distrisearch/core/internal/storage"
	"github.com/distrisearch/core/internal/types"
	"github.com/hashicorp/raft"
)

// Op is one of the cluster-state command kinds the FSM dispatches on.
type Op string

const (
	OpAddNode         Op = "ADD_NODE"
	OpRemoveNode      Op = "REMOVE_NODE"
	OpAssignPartition Op = "ASSIGN_PARTITION"
	OpMovePartition   Op = "MOVE_PARTITION"
	OpAddReplica      Op = "ADD_REPLICA"
	OpRemoveReplica   Op = "REMOVE_REPLICA"
	OpUpdateConfig    Op = "UPDATE_CONFIG"
	OpNoop            Op = "NOOP"
	OpPutDocumentMeta Op = "PUT_DOCUMENT_META"
	OpDeleteDocument  Op = "DELETE_DOCUMENT_META"
)

// Command is the tagged-variant envelope every Raft log entry carries: one
// closed enum of op kinds plus an opaque JSON payload, dispatched by a single
// switch in FSM.Apply. RequestID, when set, lets the apply loop deduplicate
// retried client submissions idempotently.
type Command struct {
	Op        Op              `json:"op"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id,omitempty"`
}

// MovePartitionPayload moves a partition's primary to a new node (used for
// both planned rebalance moves and failure-triggered promotion).
type MovePartitionPayload struct {
	PartitionID   string `json:"partition_id"`
	NewPrimaryID  string `json:"new_primary_id"`
}

// ReplicaChangePayload adds or removes a single node from a partition's
// replica set.
type ReplicaChangePayload struct {
	PartitionID string `json:"partition_id"`
	NodeID      string `json:"node_id"`
}

// FSM implements raft.FSM over a storage.Store: it applies committed
// commands, answers snapshot requests with a full state dump, and restores
// from one on startup/join.
type FSM struct {
	mu              sync.RWMutex
	store           storage.Store
	appliedRequests map[string]struct{} // de-dup set for RequestID
}

// NewFSM creates an FSM backed by store.
func NewFSM(store storage.Store) *FSM {
	return &FSM{store: store, appliedRequests: make(map[string]struct{})}
}

// Apply dispatches one committed Raft log entry to the state machine.
func (f *FSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cmd.RequestID != "" {
		if _, seen := f.appliedRequests[cmd.RequestID]; seen {
			return nil // already applied once — idempotent retry
		}
		f.appliedRequests[cmd.RequestID] = struct{}{}
	}

	switch cmd.Op {
	case OpNoop:
		return nil

	case OpAddNode:
		var node types.Node
		if err := json.Unmarshal(cmd.Data, &node); err != nil {
			return err
		}
		return f.store.CreateNode(&node)

	case OpRemoveNode:
		var nodeID string
		if err := json.Unmarshal(cmd.Data, &nodeID); err != nil {
			return err
		}
		return f.store.DeleteNode(nodeID)

	case OpAssignPartition:
		var p types.Partition
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		return f.store.CreatePartition(&p)

	case OpMovePartition:
		var payload MovePartitionPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		p, err := f.store.GetPartition(payload.PartitionID)
		if err != nil {
			return err
		}
		p.PrimaryNodeID = payload.NewPrimaryID
		if len(p.ReplicaNodeIDs) > 0 {
			p.ReplicaNodeIDs[0] = payload.NewPrimaryID
		} else {
			p.ReplicaNodeIDs = []string{payload.NewPrimaryID}
		}
		return f.store.UpdatePartition(p)

	case OpAddReplica:
		var payload ReplicaChangePayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		p, err := f.store.GetPartition(payload.PartitionID)
		if err != nil {
			return err
		}
		for _, id := range p.ReplicaNodeIDs {
			if id == payload.NodeID {
				return nil
			}
		}
		p.ReplicaNodeIDs = append(p.ReplicaNodeIDs, payload.NodeID)
		return f.store.UpdatePartition(p)

	case OpRemoveReplica:
		var payload ReplicaChangePayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		p, err := f.store.GetPartition(payload.PartitionID)
		if err != nil {
			return err
		}
		filtered := p.ReplicaNodeIDs[:0]
		for _, id := range p.ReplicaNodeIDs {
			if id != payload.NodeID {
				filtered = append(filtered, id)
			}
		}
		p.ReplicaNodeIDs = filtered
		return f.store.UpdatePartition(p)

	case OpUpdateConfig:
		var cfg types.ClusterConfig
		if err := json.Unmarshal(cmd.Data, &cfg); err != nil {
			return err
		}
		return f.store.SaveConfig(&cfg)

	case OpPutDocumentMeta:
		var meta storage.DocumentMeta
		if err := json.Unmarshal(cmd.Data, &meta); err != nil {
			return err
		}
		return f.store.PutDocumentMeta(&meta)

	case OpDeleteDocument:
		var docID string
		if err := json.Unmarshal(cmd.Data, &docID); err != nil {
			return err
		}
		return f.store.DeleteDocumentMeta(docID)

	default:
		return fmt.Errorf("unknown command op: %s", cmd.Op)
	}
}

// Snapshot captures the full replicated state for log compaction.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	nodes, err := f.store.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	partitions, err := f.store.ListPartitions()
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	docs, err := f.store.ListDocumentMeta()
	if err != nil {
		return nil, fmt.Errorf("list document meta: %w", err)
	}
	cfg, err := f.store.LoadConfig()
	if err != nil {
		cfg = nil // not yet saved, not an error
	}

	return &snapshot{Nodes: nodes, Partitions: partitions, Documents: docs, Config: cfg}, nil
}

// Restore replaces the state machine's content with a previously persisted
// snapshot, used on startup and when a lagging follower is sent a snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	oldNodes, _ := f.store.ListNodes()
	for _, n := range oldNodes {
		_ = f.store.DeleteNode(n.ID)
	}
	oldPartitions, _ := f.store.ListPartitions()
	for _, p := range oldPartitions {
		_ = f.store.DeletePartition(p.ID)
	}
	oldDocs, _ := f.store.ListDocumentMeta()
	for _, d := range oldDocs {
		_ = f.store.DeleteDocumentMeta(d.DocID)
	}

	for _, n := range snap.Nodes {
		if err := f.store.CreateNode(n); err != nil {
			return fmt.Errorf("restore node: %w", err)
		}
	}
	for _, p := range snap.Partitions {
		if err := f.store.CreatePartition(p); err != nil {
			return fmt.Errorf("restore partition: %w", err)
		}
	}
	for _, d := range snap.Documents {
		if err := f.store.PutDocumentMeta(d); err != nil {
			return fmt.Errorf("restore document meta: %w", err)
		}
	}
	if snap.Config != nil {
		if err := f.store.SaveConfig(snap.Config); err != nil {
			return fmt.Errorf("restore config: %w", err)
		}
	}
	return nil
}

type snapshot struct {
	Nodes      []*types.Node             `json:"nodes"`
	Partitions []*types.Partition        `json:"partitions"`
	Documents  []*storage.DocumentMeta   `json:"documents"`
	Config     *types.ClusterConfig      `json:"config,omitempty"`
}

func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *snapshot) Release() {}
