package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const openTimeout = 5 * time.Second

// BoltStore is a bbolt-backed Store. bbolt takes an exclusive file lock on
// open, so a second process pointed at the same file fails fast instead of
// corrupting the queue - the single-writer assumption is enforced, not hoped.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the store file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *BoltStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		found = true
		return nil
	})
	return out, found, err
}

func (s *BoltStore) Delete(ctx context.Context, bucket, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// List returns every entry in the bucket in ascending key order.
func (s *BoltStore) List(ctx context.Context, bucket string) ([]KV, error) {
	var out []KV
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			out = append(out, KV{
				Key:   string(k),
				Value: append([]byte(nil), v...),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
