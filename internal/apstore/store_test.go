package apstore

import (
	"context"
	"testing"
	"time"
)

func TestStoreWriteReadConnected(t *testing.T) {
	tracker := NewTracker()
	tracker.RegisterNode("n1")
	s := NewStore("n1", tracker, nil, nil, 0)

	res := s.Write(context.Background(), "k", []byte("v1"))
	if !res.Accepted || res.SyncStatus != SyncStatusSynced {
		t.Fatalf("unexpected write result: %+v", res)
	}

	read := s.Read("k")
	if !read.Found || string(read.Value) != "v1" || read.Freshness != FreshnessConfirmed {
		t.Fatalf("unexpected read result: %+v", read)
	}
}

func TestStoreReadUnknownKeyAlwaysSucceeds(t *testing.T) {
	tracker := NewTracker()
	s := NewStore("n1", tracker, nil, nil, 0)

	read := s.Read("missing")
	if read.Found || read.Freshness != FreshnessUnknown {
		t.Fatalf("unexpected read result: %+v", read)
	}
}

func TestStoreWriteDuringPartitionQueuesPending(t *testing.T) {
	tracker := NewTracker()
	tracker.RegisterNode("n1")
	tracker.RegisterNode("n2")
	tracker.RegisterNode("n3")
	tracker.MarkUnreachable("n2")
	tracker.MarkUnreachable("n3") // now minority -> PARTITIONED

	s := NewStore("n1", tracker, nil, nil, 0)
	res := s.Write(context.Background(), "k", []byte("v"))

	if res.SyncStatus != SyncStatusWillSyncLater {
		t.Fatalf("expected will_sync_later, got %s", res.SyncStatus)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("expected 1 pending write, got %d", s.PendingCount())
	}

	read := s.Read("k")
	if read.Freshness != FreshnessPotentiallyStale {
		t.Fatalf("expected potentially stale freshness, got %s", read.Freshness)
	}
}

func TestReceiveRemoteDetectsConflict(t *testing.T) {
	tracker := NewTracker()
	s := NewStore("n1", tracker, nil, nil, 0)

	var gotConflict bool
	s.OnConflict(func(key string, local, remote VersionedValue) {
		gotConflict = true
	})

	now := time.Now()
	local := NewVersionedValue([]byte("local"), nil, "n1", now)
	remote := NewVersionedValue([]byte("remote"), nil, "n2", now.Add(time.Second))

	s.values["k"] = local
	conflict := s.ReceiveRemote("k", remote)

	if !conflict || !gotConflict {
		t.Fatalf("expected concurrent conflict to be detected")
	}

	read := s.Read("k")
	if string(read.Value) != "remote" {
		t.Fatalf("expected LWW to pick the later remote write, got %q", read.Value)
	}
}

func TestFlushPendingRequiresReplicator(t *testing.T) {
	tracker := NewTracker()
	s := NewStore("n1", tracker, nil, func() []string { return []string{"n2"} }, 0)
	s.pending = []pendingWrite{{key: "k", val: NewVersionedValue([]byte("v"), nil, "n1", time.Now())}}

	n := s.FlushPending(context.Background())
	if n != 0 {
		t.Fatalf("expected no flush without a replicator, got %d", n)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("pending write should remain queued")
	}
}
