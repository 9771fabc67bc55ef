// Package storage defines the durable, BoltDB-backed layer that the Raft FSM
// applies committed cluster-state commands into: the node set, the
// partition table, document placement metadata, and the AP store's
// pending-sync queue.
package storage

import "github.com/distrisearch/core/internal/types"

// Store is the interface the consensus FSM applies committed commands
// against. A BoltStore is the only production implementation; tests may
// substitute an in-memory fake.
type Store interface {
	// Nodes
	CreateNode(node *types.Node) error
	GetNode(id string) (*types.Node, error)
	ListNodes() ([]*types.Node, error)
	UpdateNode(node *types.Node) error
	DeleteNode(id string) error

	// Partitions
	CreatePartition(p *types.Partition) error
	GetPartition(id string) (*types.Partition, error)
	ListPartitions() ([]*types.Partition, error)
	UpdatePartition(p *types.Partition) error
	DeletePartition(id string) error

	// Documents (placement metadata only — content lives in internal/index)
	PutDocumentMeta(meta *DocumentMeta) error
	GetDocumentMeta(id string) (*DocumentMeta, error)
	ListDocumentMeta() ([]*DocumentMeta, error)
	DeleteDocumentMeta(id string) error

	// AP store pending-sync queue persistence (ap_store/pending_sync)
	SavePendingSync(entries []PendingSyncEntry) error
	LoadPendingSync() ([]PendingSyncEntry, error)

	// Config
	SaveConfig(cfg *types.ClusterConfig) error
	LoadConfig() (*types.ClusterConfig, error)

	Close() error
}

// DocumentMeta is the Raft-replicated placement record for a document: which
// partition it belongs to and which node currently primaries it. Document
// content and vectors live in each replica's local inverted index, not here.
type DocumentMeta struct {
	DocID          string
	PartitionID    string
	PrimaryNodeID  string
	ReplicaNodeIDs []string
}

// PendingSyncEntry is one queued AP-store write awaiting anti-entropy flush,
// in serializable form. The AP store keeps its queue in memory and never
// calls SavePendingSync or LoadPendingSync, so queued writes do not survive
// a node restart.
type PendingSyncEntry struct {
	Key         string
	Value       []byte
	VectorClock map[string]uint64
	OriginNode  string
}
