package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// FileStore keeps one file per document below a directory.
// Entries carry their key so List does not depend on file names.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// fileEntry wraps stored data with metadata.
type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get reads the document stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	entry, err := readEntry(path)
	if os.IsNotExist(err) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// Put writes data under key. The file is replaced atomically.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(fileEntry{Key: key, Data: data, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the document stored under key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return notFound(key)
	}
	return err
}

// List walks the store directory and returns every key.
// Unreadable entries are skipped.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil {
			return nil
		}
		keys = append(keys, entry.Key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

// Close does nothing for file stores.
func (s *FileStore) Close() error {
	return nil
}

func readEntry(path string) (*fileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "corrupt store entry %s", filepath.Base(path))
	}
	return &entry, nil
}

// path converts a key to a file path.
// Uses a hash-based directory structure to avoid too many files in one dir.
func (s *FileStore) path(key string) (string, error) {
	if err := errs.ValidateKey(key); err != nil {
		return "", err
	}
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json"), nil
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
