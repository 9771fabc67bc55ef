package consensus

import (
	"encoding/json"
	"testing"

	"github.com/distrisearch/core/internal/storage"
	"github.com/distrisearch/core/internal/types"
	"github.com/hashicorp/raft"
)

func applyCmd(t *testing.T, f *FSM, index uint64, cmd Command) interface{} {
	t.Helper()
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	return f.Apply(&raft.Log{Index: index, Data: data})
}

func TestFSMAddNodeThenRemove(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()
	f := NewFSM(store)

	node := types.Node{ID: "1", Address: "127.0.0.1:9001"}
	nodeJSON, _ := json.Marshal(node)
	if res := applyCmd(t, f, 1, Command{Op: OpAddNode, Data: nodeJSON}); res != nil {
		t.Fatalf("add node failed: %v", res)
	}

	if _, err := store.GetNode("1"); err != nil {
		t.Fatalf("node was not created: %v", err)
	}

	idJSON, _ := json.Marshal("1")
	if res := applyCmd(t, f, 2, Command{Op: OpRemoveNode, Data: idJSON}); res != nil {
		t.Fatalf("remove node failed: %v", res)
	}
	if _, err := store.GetNode("1"); err == nil {
		t.Fatalf("node should have been removed")
	}
}

func TestFSMMovePartitionPromotesReplica(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()
	f := NewFSM(store)

	p := types.Partition{ID: "p1", PrimaryNodeID: "1", ReplicaNodeIDs: []string{"1", "2", "3"}}
	pJSON, _ := json.Marshal(p)
	applyCmd(t, f, 1, Command{Op: OpAssignPartition, Data: pJSON})

	movePayload, _ := json.Marshal(MovePartitionPayload{PartitionID: "p1", NewPrimaryID: "2"})
	if res := applyCmd(t, f, 2, Command{Op: OpMovePartition, Data: movePayload}); res != nil {
		t.Fatalf("move partition failed: %v", res)
	}

	got, err := store.GetPartition("p1")
	if err != nil {
		t.Fatalf("GetPartition: %v", err)
	}
	if got.PrimaryNodeID != "2" || got.ReplicaNodeIDs[0] != "2" {
		t.Fatalf("expected primary promoted to node 2, got %+v", got)
	}
}

func TestFSMDeduplicatesByRequestID(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer store.Close()
	f := NewFSM(store)

	node := types.Node{ID: "1", DocumentCount: 0}
	nodeJSON, _ := json.Marshal(node)
	cmd := Command{Op: OpAddNode, Data: nodeJSON, RequestID: "req-1"}

	applyCmd(t, f, 1, cmd)

	updated := types.Node{ID: "1", DocumentCount: 99}
	updatedJSON, _ := json.Marshal(updated)
	cmd2 := Command{Op: OpAddNode, Data: updatedJSON, RequestID: "req-1"}
	applyCmd(t, f, 2, cmd2)

	got, _ := store.GetNode("1")
	if got.DocumentCount != 0 {
		t.Fatalf("retried request_id should not have re-applied, got document count %d", got.DocumentCount)
	}
}
