package store

import (
	"context"
	"time"

	"github.com/matzehuels/nodeflow/pkg/observability"
)

// Instrumented reports every operation of the wrapped store to the
// registered observability.StoreHooks.
type Instrumented struct {
	inner   Store
	backend string
}

// Instrument wraps s. backend names the store in hook events.
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{inner: s, backend: backend}
}

// Unwrap returns the wrapped store.
func (s *Instrumented) Unwrap() Store { return s.inner }

// Get implements Store.
func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.inner.Get(ctx, key)
	observability.Store().OnGet(ctx, s.backend, key, err == nil, time.Since(start))
	return data, err
}

// Put implements Store.
func (s *Instrumented) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, data)
	observability.Store().OnPut(ctx, s.backend, key, len(data), time.Since(start), err)
	return err
}

// Delete implements Store.
func (s *Instrumented) Delete(ctx context.Context, key string) error {
	err := s.inner.Delete(ctx, key)
	observability.Store().OnDelete(ctx, s.backend, key, err)
	return err
}

// List implements Store.
func (s *Instrumented) List(ctx context.Context) ([]string, error) {
	return s.inner.List(ctx)
}

// Close implements Store.
func (s *Instrumented) Close() error { return s.inner.Close() }

var _ Store = (*Instrumented)(nil)
