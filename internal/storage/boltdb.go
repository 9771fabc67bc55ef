package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/distrisearch/core/internal/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketNodes        = []byte("nodes")
	bucketPartitions   = []byte("partitions")
	bucketDocumentMeta = []byte("document_meta")
	bucketPendingSync  = []byte("ap_store_pending_sync")
	bucketConfig       = []byte("config")
)

var configKey = []byte("cluster_config")

// BoltStore implements Store over a single BoltDB file per node, one bucket
// per entity, JSON-encoded values keyed by ID — the same layout a reference
// storage package uses for its cluster-state buckets.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) the BoltDB file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "search.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketNodes, bucketPartitions, bucketDocumentMeta, bucketPendingSync, bucketConfig} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func put(tx *bolt.Tx, bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put(key, data)
}

// Nodes

func (s *BoltStore) CreateNode(node *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketNodes, []byte(node.ID), node)
	})
}

func (s *BoltStore) GetNode(id string) (*types.Node, error) {
	var node types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketNodes).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("node not found: %s", id)
		}
		return json.Unmarshal(data, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *BoltStore) ListNodes() ([]*types.Node, error) {
	var nodes []*types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			nodes = append(nodes, &node)
			return nil
		})
	})
	return nodes, err
}

func (s *BoltStore) UpdateNode(node *types.Node) error {
	return s.CreateNode(node)
}

func (s *BoltStore) DeleteNode(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).Delete([]byte(id))
	})
}

// Partitions

func (s *BoltStore) CreatePartition(p *types.Partition) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketPartitions, []byte(p.ID), p)
	})
}

func (s *BoltStore) GetPartition(id string) (*types.Partition, error) {
	var p types.Partition
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPartitions).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("partition not found: %s", id)
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *BoltStore) ListPartitions() ([]*types.Partition, error) {
	var out []*types.Partition
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPartitions).ForEach(func(k, v []byte) error {
			var p types.Partition
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, &p)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) UpdatePartition(p *types.Partition) error {
	return s.CreatePartition(p)
}

func (s *BoltStore) DeletePartition(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPartitions).Delete([]byte(id))
	})
}

// Document placement metadata

func (s *BoltStore) PutDocumentMeta(meta *DocumentMeta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketDocumentMeta, []byte(meta.DocID), meta)
	})
}

func (s *BoltStore) GetDocumentMeta(id string) (*DocumentMeta, error) {
	var meta DocumentMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDocumentMeta).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document metadata not found: %s", id)
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *BoltStore) ListDocumentMeta() ([]*DocumentMeta, error) {
	var out []*DocumentMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocumentMeta).ForEach(func(k, v []byte) error {
			var meta DocumentMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			out = append(out, &meta)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteDocumentMeta(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocumentMeta).Delete([]byte(id))
	})
}

// AP store pending-sync queue

func (s *BoltStore) SavePendingSync(entries []PendingSyncEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPendingSync)
		if err := b.ForEach(func(k, _ []byte) error { return nil }); err != nil {
			return err
		}
		// Replace wholesale: delete and recreate so stale entries don't linger.
		if err := tx.DeleteBucket(bucketPendingSync); err != nil {
			return err
		}
		nb, err := tx.CreateBucket(bucketPendingSync)
		if err != nil {
			return err
		}
		for i, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := nb.Put([]byte(fmt.Sprintf("%08d", i)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) LoadPendingSync() ([]PendingSyncEntry, error) {
	var out []PendingSyncEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPendingSync).ForEach(func(k, v []byte) error {
			var e PendingSyncEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Config

func (s *BoltStore) SaveConfig(cfg *types.ClusterConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketConfig, configKey, cfg)
	})
}

func (s *BoltStore) LoadConfig() (*types.ClusterConfig, error) {
	var cfg types.ClusterConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketConfig).Get(configKey)
		if data == nil {
			return fmt.Errorf("no config saved")
		}
		return json.Unmarshal(data, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
