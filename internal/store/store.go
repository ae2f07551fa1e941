package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// KV is one key/value pair returned by List, ordered by key.
type KV struct {
	Key   string
	Value []byte
}

// Store is the durable key-value persistence abstraction the engine builds on.
// Keys are namespaced by bucket; List returns entries in ascending key order,
// which is what gives the offline queue its FIFO guarantee.
type Store interface {
	Put(ctx context.Context, bucket, key string, value []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, bool, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket string) ([]KV, error)
	Close() error
}
