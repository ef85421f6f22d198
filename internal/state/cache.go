// Package state persists the per-document extraction cache between runs.
//
// The cache is purely a performance optimization: source documents remain
// the only durable state, and deleting the cache file changes nothing but
// run time.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores extraction results keyed by document path and content hash.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens a cache database. Use ":memory:" for an ephemeral
// cache.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	cache := &Cache{db: db}
	if err := cache.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return cache, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS extractions (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached payload for a document, but only when the stored
// content hash still matches: a stale entry behaves like a miss.
func (c *Cache) Get(ctx context.Context, path, contentHash string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var storedHash string
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT content_hash, payload FROM extractions WHERE path = ?", path,
	).Scan(&storedHash, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}
	if storedHash != contentHash {
		return nil, false, nil
	}
	return payload, true, nil
}

// Put stores or replaces the cached payload for a document.
func (c *Cache) Put(ctx context.Context, path, contentHash string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO extractions (path, content_hash, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		path, contentHash, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
