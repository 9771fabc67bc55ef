package storage

import (
	"testing"

	"github.com/distrisearch/core/internal/types"
)

func TestBoltStoreNodeCRUD(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()

	node := &types.Node{ID: "1", Address: "127.0.0.1:9001", Role: types.NodeRoleSlave}
	if err := store.CreateNode(node); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	got, err := store.GetNode("1")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got.Address != node.Address {
		t.Fatalf("expected address %q, got %q", node.Address, got.Address)
	}

	node.Status = types.NodeStatusDegraded
	if err := store.UpdateNode(node); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	got, _ = store.GetNode("1")
	if got.Status != types.NodeStatusDegraded {
		t.Fatalf("update did not persist")
	}

	if err := store.DeleteNode("1"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := store.GetNode("1"); err == nil {
		t.Fatalf("expected error after delete")
	}
}

func TestBoltStorePendingSyncRoundTrip(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()

	entries := []PendingSyncEntry{
		{Key: "k1", Value: []byte("v1"), VectorClock: map[string]uint64{"n1": 1}, OriginNode: "n1"},
		{Key: "k2", Value: []byte("v2"), VectorClock: map[string]uint64{"n1": 2}, OriginNode: "n1"},
	}
	if err := store.SavePendingSync(entries); err != nil {
		t.Fatalf("SavePendingSync: %v", err)
	}

	loaded, err := store.LoadPendingSync()
	if err != nil {
		t.Fatalf("LoadPendingSync: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
}

func TestBoltStorePartitionCRUD(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()

	p := &types.Partition{ID: "p1", PrimaryNodeID: "1", ReplicaNodeIDs: []string{"1", "2", "3"}}
	if err := store.CreatePartition(p); err != nil {
		t.Fatalf("CreatePartition: %v", err)
	}

	list, err := store.ListPartitions()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListPartitions: %v, %d", err, len(list))
	}
}
