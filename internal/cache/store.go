// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps fetched dictionary pages in a local SQLite database so
// repeated runs over the same word list do not refetch them.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed page cache. It satisfies httputil.PageCache.
type Store struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithMaxAge makes entries older than d count as misses. Zero keeps entries
// forever.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) { s.maxAge = d }
}

// Open opens or creates the cache database at path and its schema.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// One writer at a time; the pipeline is sequential anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		final_url TEXT NOT NULL,
		body BLOB NOT NULL,
		fetched_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the cached final URL and body for key.
func (s *Store) Lookup(ctx context.Context, key string) (string, []byte, bool, error) {
	var (
		finalURL  string
		body      []byte
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT final_url, body, fetched_at FROM pages WHERE url = ?`, key,
	).Scan(&finalURL, &body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("querying cache: %w", err)
	}

	if s.maxAge > 0 {
		t, perr := time.Parse(time.RFC3339, fetchedAt)
		if perr != nil || s.now().Sub(t) > s.maxAge {
			return "", nil, false, nil
		}
	}
	return finalURL, body, true, nil
}

// Store inserts or replaces the entry for key.
func (s *Store) Store(ctx context.Context, key, finalURL string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (url, final_url, body, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET final_url = excluded.final_url,
		   body = excluded.body, fetched_at = excluded.fetched_at`,
		key, finalURL, body, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Len returns the number of cached pages.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
