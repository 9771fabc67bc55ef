package apstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/distrisearch/core/internal/log"
	"github.com/distrisearch/core/internal/metrics"
)

// Replicator pushes a versioned value to a peer node. The AP store calls it
// synchronously, asynchronously, or queues it depending on partition status;
// a replication error never fails a Write, though a CONNECTED Write waits
// for its synchronous calls to return.
type Replicator interface {
	ReplicateVersion(ctx context.Context, peerID string, key string, v VersionedValue) error
}

// WriteResult is the contract a Write call always returns: it never reports
// failure, only how confidently the value has propagated.
type WriteResult struct {
	Accepted         bool
	SyncStatus       SyncStatus
	ConflictPossible bool
	PartitionStatus  Status
	Warning          string
}

// ReadResult is the contract a Read call always returns.
type ReadResult struct {
	Value     []byte
	Found     bool
	Freshness Freshness
	Version   uint64
}

type pendingWrite struct {
	key string
	val VersionedValue
}

// Store is the partition-tolerant key/value layer:
// writes always succeed locally and are propagated according to the current
// partition status; reads always succeed and carry a freshness tag instead
// of blocking for consistency.
type Store struct {
	mu       sync.RWMutex
	nodeID   string
	values   map[string]VersionedValue
	clock    VectorClock
	tracker  *Tracker
	replica  Replicator
	peers    func() []string // live peer snapshot, supplied by the coordinator
	pending  []pendingWrite
	pendingThreshold time.Duration

	conflictObservers []func(key string, local, remote VersionedValue)
}

// NewStore creates an AP store for nodeID. replica and peers may be nil
// until the cluster coordinator wires them in (the store still accepts
// local-only writes).
func NewStore(nodeID string, tracker *Tracker, replica Replicator, peers func() []string, partitionThreshold time.Duration) *Store {
	if partitionThreshold <= 0 {
		partitionThreshold = 60 * time.Second
	}
	return &Store{
		nodeID:           nodeID,
		values:           make(map[string]VersionedValue),
		clock:            VectorClock{},
		tracker:          tracker,
		replica:          replica,
		peers:            peers,
		pendingThreshold: partitionThreshold,
	}
}

// OnConflict registers an observer notified whenever Merge detects a
// concurrent write for the same key.
func (s *Store) OnConflict(fn func(key string, local, remote VersionedValue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflictObservers = append(s.conflictObservers, fn)
}

// Write always succeeds locally: it increments this node's vector-clock
// entry, stores the new version, and replicates according to the current
// partition status.
func (s *Store) Write(ctx context.Context, key string, value []byte) WriteResult {
	s.mu.Lock()
	prev := s.values[key]
	vv := NewVersionedValue(value, prev.VectorClock, s.nodeID, time.Now())
	// Vector-clock monotonicity: a node never emits a version with
	// vc[self] <= any previously emitted version by the same node.
	if vv.VectorClock[s.nodeID] <= s.clock[s.nodeID] {
		vv.VectorClock[s.nodeID] = s.clock[s.nodeID] + 1
		vv.Version = vv.VectorClock.Sum()
	}
	s.clock = vv.VectorClock.Clone()
	s.values[key] = vv
	status := s.tracker.Status()
	syncStatus := s.tracker.SyncStatusFor()
	s.mu.Unlock()

	result := WriteResult{
		Accepted:        true,
		SyncStatus:      syncStatus,
		PartitionStatus: status,
	}

	peers := s.livePeers()
	switch syncStatus {
	case SyncStatusSynced:
		s.replicateSync(ctx, key, vv, peers)
	case SyncStatusPending:
		go s.replicateAsync(key, vv, peers)
	default:
		s.mu.Lock()
		s.pending = append(s.pending, pendingWrite{key: key, val: vv})
		s.mu.Unlock()
		result.Warning = "partitioned: write queued for anti-entropy"
	}

	if status == StatusPartial || status == StatusPartitioned || status == StatusHealing {
		result.ConflictPossible = true
	}
	metrics.APPendingSyncLength.Set(float64(s.PendingCount()))
	return result
}

func (s *Store) replicateSync(ctx context.Context, key string, vv VersionedValue, peers []string) {
	if s.replica == nil {
		return
	}
	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(peerID string) {
			defer wg.Done()
			if err := s.replica.ReplicateVersion(ctx, peerID, key, vv); err != nil {
				log.WithComponent("apstore").Warn().Err(err).Str("peer", peerID).Msg("sync replication failed")
			}
		}(p)
	}
	wg.Wait()
}

func (s *Store) replicateAsync(key string, vv VersionedValue, peers []string) {
	if s.replica == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, p := range peers {
		if err := s.replica.ReplicateVersion(ctx, p, key, vv); err != nil {
			log.WithComponent("apstore").Warn().Err(err).Str("peer", p).Msg("async replication failed")
		}
	}
}

func (s *Store) livePeers() []string {
	if s.peers == nil {
		return nil
	}
	return s.peers()
}

// Read always succeeds: it returns the local value (if any) tagged with a
// freshness estimate derived from the current partition status.
func (s *Store) Read(key string) ReadResult {
	s.mu.RLock()
	vv, ok := s.values[key]
	s.mu.RUnlock()

	freshness := s.tracker.AssessFreshness(ok, s.pendingThreshold)
	if !ok {
		return ReadResult{Found: false, Freshness: freshness}
	}
	return ReadResult{Value: vv.Value, Found: true, Freshness: freshness, Version: vv.Version}
}

// ReceiveRemote merges a remote version into the local store — the entry
// point anti-entropy and synchronous replication both call. Reports whether
// the merge produced a genuine concurrent conflict.
func (s *Store) ReceiveRemote(key string, remote VersionedValue) bool {
	s.mu.Lock()
	local, hadLocal := s.values[key]
	var merged VersionedValue
	var conflict bool
	if !hadLocal {
		merged = remote
	} else {
		merged, conflict = Merge(local, remote)
	}
	s.values[key] = merged
	for k, v := range merged.VectorClock {
		if v > s.clock[k] {
			if s.clock == nil {
				s.clock = VectorClock{}
			}
			s.clock[k] = v
		}
	}
	observers := append([]func(string, VersionedValue, VersionedValue){}, s.conflictObservers...)
	s.mu.Unlock()

	if conflict {
		metrics.APConflictsTotal.Inc()
		for _, fn := range observers {
			fn(key, local, remote)
		}
	}
	return conflict
}

// PendingCount reports the number of writes still queued for anti-entropy.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// FlushPending drains the pending-sync queue, replicating every queued write
// to the current peer set. Called by the anti-entropy loop once the node
// returns to CONNECTED. Entries that fail to send are re-queued.
func (s *Store) FlushPending(ctx context.Context) int {
	s.mu.Lock()
	if len(s.pending) == 0 || s.replica == nil {
		s.mu.Unlock()
		return 0
	}
	toFlush := s.pending
	s.pending = nil
	s.mu.Unlock()

	peers := s.livePeers()
	var failed []pendingWrite
	flushed := 0
	for _, pw := range toFlush {
		ok := true
		for _, p := range peers {
			if err := s.replica.ReplicateVersion(ctx, p, pw.key, pw.val); err != nil {
				ok = false
			}
		}
		if ok {
			flushed++
		} else {
			failed = append(failed, pw)
		}
	}

	if len(failed) > 0 {
		s.mu.Lock()
		s.pending = append(s.pending, failed...)
		s.mu.Unlock()
	}
	metrics.APPendingSyncLength.Set(float64(s.PendingCount()))
	return flushed
}

// Checksum returns an 8-hex-character content digest of value, used only for
// debug logging — never for ordering, which is vector-clock/LWW only.
func Checksum(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:4])
}

// AntiEntropyLoop runs the background reconciliation task: every interval
// while CONNECTED, it flushes the pending-sync queue and then calls
// exchanger for the digest exchange with peers. The loop itself compares no
// digests (there is no Merkle tree here); callers may pass a nil exchanger
// to skip that step.
func (s *Store) AntiEntropyLoop(ctx context.Context, interval time.Duration, exchanger func(ctx context.Context) error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger := log.WithComponent("apstore")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tracker.Status() != StatusConnected {
				continue
			}
			n := s.FlushPending(ctx)
			if n > 0 {
				logger.Info().Int("flushed", n).Msg("anti-entropy flushed pending writes")
			}
			if exchanger != nil {
				if err := exchanger(ctx); err != nil {
					logger.Warn().Err(err).Msg("anti-entropy digest exchange failed")
				}
			}
		}
	}
}
