package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// DefaultRedisPrefix is prepended to every Redis key.
const DefaultRedisPrefix = "nodeflow:doc:"

// RedisStore keeps documents as Redis strings.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix means DefaultRedisPrefix.
// The store does not own client unless it was created by Open.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) (string, error) {
	if err := errs.ValidateKey(key); err != nil {
		return "", err
	}
	return s.prefix + key, nil
}

// Get returns the document stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := s.key(key)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", k, err)
	}
	return data, nil
}

// Put stores data under key without expiry.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, k, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	n, err := s.client.Del(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", k, err)
	}
	if n == 0 {
		return notFound(key)
	}
	return nil
}

// List scans the keys under the store prefix.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
