package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a stateful in-memory Store for tests and ephemeral use.
// Same ordering contract as BoltStore: List returns ascending key order.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool

	// FailPuts makes every Put fail, simulating an unavailable store
	// (quota exceeded, corrupt file). Tests only.
	FailPuts bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailPuts {
		return ErrClosed
	}
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		s.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, false, nil
	}
	v, ok := b[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if b, ok := s.buckets[bucket]; ok {
		delete(b, key)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, bucket string) ([]KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: append([]byte(nil), b[k]...)})
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
