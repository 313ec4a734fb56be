package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Get returns a copy of the stored document.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errs.ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, notFound(key)
	}
	return slices.Clone(data), nil
}

// Put stores a copy of data.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = slices.Clone(data)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return notFound(key)
	}
	delete(s.docs, key)
	return nil
}

// List returns the stored keys.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.docs)), nil
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
