// Package store persists nodeflow documents under string keys.
//
// A [Store] holds opaque document bytes; it does not parse them. Backends
// are selected by URL through [Open]:
//
//	file:///var/lib/nodeflow        one file per key below a directory
//	mem://                          process memory, for tests and demos
//	redis://localhost:6379/0        Redis strings under a key prefix
//	sqlite:///var/lib/nodeflow.db   one row per key
//	mongodb://localhost:27017/db    one document per key
//	http://localhost:8080           a remote nodeflow server
//
// All backends validate keys with errors.ValidateKey and report a missing
// key as NOT_FOUND.
package store

import (
	"context"
	"slices"
	"strings"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Store is a key/value store for documents.
type Store interface {
	// Get returns the document stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous document.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the document stored under key.
	Delete(ctx context.Context, key string) error

	// List returns all keys, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}

func notFound(key string) error {
	return errs.New(errs.ErrCodeNotFound, "document %q not found", key)
}

// IsNotFound reports whether err means a key does not exist.
func IsNotFound(err error) bool {
	return errs.Is(err, errs.ErrCodeNotFound)
}

// Scoped prefixes every key with scope and a colon so several
// applications can share one backend. List only returns keys of the
// scope, with the prefix removed.
type Scoped struct {
	inner  Store
	prefix string
}

// NewScoped wraps inner. An empty scope returns inner unchanged.
func NewScoped(inner Store, scope string) Store {
	if scope == "" {
		return inner
	}
	return &Scoped{inner: inner, prefix: scope + ":"}
}

func (s *Scoped) key(key string) (string, error) {
	if err := errs.ValidateKey(key); err != nil {
		return "", err
	}
	return s.prefix + key, nil
}

// Get implements Store.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := s.key(key)
	if err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, k)
}

// Put implements Store.
func (s *Scoped) Put(ctx context.Context, key string, data []byte) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, k, data)
}

// Delete implements Store.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.inner.Delete(ctx, k)
}

// List implements Store.
func (s *Scoped) List(ctx context.Context) ([]string, error) {
	all, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, s.prefix); ok {
			keys = append(keys, rest)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close closes the wrapped store.
func (s *Scoped) Close() error { return s.inner.Close() }

var _ Store = (*Scoped)(nil)
