// Package tba implements The Blue Alliance API client.
package tba

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQL driver registration.
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE CACHE - ETag-based conditional request cache
// ══════════════════════════════════════════════════════════════════════════════

// ResponseCache stores response bodies keyed by request path together with
// the ETag TBA returned for them. On a later request the client sends
// If-None-Match and serves the cached body on a 304, which does not count
// against TBA's goodwill the way a full fetch does.
type ResponseCache struct {
	db *sql.DB
}

// OpenResponseCache opens or creates the cache database at the given path.
func OpenResponseCache(ctx context.Context, path string) (*ResponseCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the batch job write while the server reads.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &ResponseCache{db: db}, nil
}

const cacheSchema = `
-- Cached TBA responses, one row per request path
CREATE TABLE IF NOT EXISTS responses (
    path TEXT PRIMARY KEY,          -- Request path, e.g. '/team/frc254/matches/2024'
    etag TEXT NOT NULL,             -- ETag header from the last 200 response
    body BLOB NOT NULL,             -- Response body for that ETag
    updated_at TEXT NOT NULL        -- RFC3339 time of the last refresh
);
`

// Get returns the cached ETag and body for a request path. ok is false when
// the path has never been cached.
func (c *ResponseCache) Get(ctx context.Context, path string) (etag string, body []byte, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT etag, body FROM responses WHERE path = ?", path)
	if err := row.Scan(&etag, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, false, nil
		}
		return "", nil, false, fmt.Errorf("read cache: %w", err)
	}
	return etag, body, true, nil
}

// Put stores or replaces the cached response for a request path.
func (c *ResponseCache) Put(ctx context.Context, path, etag string, body []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO responses (path, etag, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			etag = excluded.etag,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		path, etag, body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Close closes the cache database.
func (c *ResponseCache) Close() error {
	return c.db.Close()
}
