package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a sqlite-backed cache for reconciled provider responses, keyed
// by query fingerprint. Expired rows are kept so a provider outage can fall
// back to stale data.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// NewStore opens (and if needed creates) the cache database at path.
func NewStore(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		fingerprint TEXT PRIMARY KEY,
		payload     TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	slog.Info("Metadata cache opened", "path", path, "ttl", ttl)
	return &Store{db: db, ttl: ttl}, nil
}

// Get returns the payload for fingerprint, or nil on a miss. fresh is
// false when the row exists but has outlived the TTL; callers treat that
// as a miss with a degraded fallback available.
func (s *Store) Get(ctx context.Context, fingerprint string) (payload []byte, fresh bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM entries WHERE fingerprint = ?`, fingerprint)

	var createdAt int64
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	fresh = s.ttl <= 0 || time.Since(time.Unix(createdAt, 0)) < s.ttl
	return payload, fresh, nil
}

// Put upserts the payload for fingerprint, resetting its age.
func (s *Store) Put(ctx context.Context, fingerprint string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (fingerprint, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		fingerprint, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

// Clear drops every cached entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	slog.Info("Metadata cache cleared")
	return nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
