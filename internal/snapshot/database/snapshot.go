package database

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/kd/internal/database"
	"github.com/go-sod/kd/internal/snapshot"
)

var (
	blobBucket = []byte("snapshot:blob")
	metaBucket = []byte("snapshot:meta")
)

var _ snapshot.Store = (*DB)(nil)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB stores snapshots in two bbolt buckets keyed by index name.
type DB struct {
	sDB *database.DB
}

func (db *DB) Save(_ context.Context, meta snapshot.Snapshot, blob []byte) (snapshot.Snapshot, error) {
	meta.Size = len(blob)
	bytes, err := json.Marshal(meta)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		blobs, err := tx.CreateBucketIfNotExists(blobBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		metas, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := blobs.Put([]byte(meta.Name), blob); err != nil {
			return fmt.Errorf("put blob: %w", err)
		}
		if err := metas.Put([]byte(meta.Name), bytes); err != nil {
			return fmt.Errorf("put snapshot: %w", err)
		}
		return nil
	}); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("update transaction error: %w", err)
	}

	return meta, nil
}

func (db *DB) Load(_ context.Context, name string) ([]byte, snapshot.Snapshot, error) {
	var (
		blob []byte
		meta snapshot.Snapshot
	)
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		blobs, metas := tx.Bucket(blobBucket), tx.Bucket(metaBucket)
		if blobs == nil || metas == nil {
			return snapshot.ErrNotFound
		}
		raw := metas.Get([]byte(name))
		data := blobs.Get([]byte(name))
		if raw == nil || data == nil {
			return snapshot.ErrNotFound
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("unmarshal snapshot: %w", err)
		}
		// bbolt memory is only valid inside the transaction.
		blob = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, snapshot.Snapshot{}, err
	}

	return blob, meta, nil
}

func (db *DB) Names(_ context.Context) ([]string, error) {
	names := []string{}
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})

	return names, err
}

func (db *DB) Delete(_ context.Context, name string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{blobBucket, metaBucket} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(name)); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}
