package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Get retrieves the entry for key. Expired entries are invisible: the row
// may still exist until the sweep runs, but it is never returned.
func (s *cacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT key, kind, payload, provenance, inserted_at, expires_at, hit_count
		FROM cache_entries WHERE key = ? AND expires_at > ?
	`, key, time.Now().UTC())

	var entry domain.CacheEntry
	var kind, payload, provenance string
	err := row.Scan(&entry.Key, &kind, &payload, &provenance,
		&entry.InsertedAt, &entry.ExpiresAt, &entry.HitCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	entry.Kind = domain.EntryKind(kind)
	if err := json.Unmarshal([]byte(payload), &entry.Records); err != nil {
		return nil, fmt.Errorf("unmarshalling cache payload: %w", err)
	}
	if err := json.Unmarshal([]byte(provenance), &entry.Provenance); err != nil {
		return nil, fmt.Errorf("unmarshalling cache provenance: %w", err)
	}

	return &entry, nil
}

// Put inserts or supersedes the entry for its key.
func (s *cacheStore) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if !entry.ExpiresAt.After(entry.InsertedAt) {
		return fmt.Errorf("%w: entry for %q expires before insertion", domain.ErrInvalidInput, entry.Key)
	}

	payload, err := json.Marshal(entry.Records)
	if err != nil {
		return fmt.Errorf("marshalling cache payload: %w", err)
	}
	provenance, err := json.Marshal(entry.Provenance)
	if err != nil {
		return fmt.Errorf("marshalling cache provenance: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, kind, payload, provenance, inserted_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			provenance = excluded.provenance,
			inserted_at = excluded.inserted_at,
			expires_at = excluded.expires_at,
			hit_count = excluded.hit_count
	`, entry.Key, string(entry.Kind), string(payload), string(provenance),
		entry.InsertedAt.UTC(), entry.ExpiresAt.UTC(), entry.HitCount)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key. Missing keys are not an error.
func (s *cacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// SweepExpired removes entries at or past their expiry.
func (s *cacheStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweeping cache entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept entries: %w", err)
	}
	return int(affected), nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *cacheStore) Close() error {
	return nil
}
