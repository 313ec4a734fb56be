package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps one row per document in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the document stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errs.ValidateKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", key, err)
	}
	return data, nil
}

// Put inserts or replaces the row for key.
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(key)
	}
	return nil
}

// List returns all keys.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM documents ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
