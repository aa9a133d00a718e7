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

// patternStore implements driven.PatternStore.
type patternStore struct {
	store *Store
}

var _ driven.PatternStore = (*patternStore)(nil)

// Get retrieves the pattern for a normalized query.
func (s *patternStore) Get(ctx context.Context, normalized string) (*domain.QueryPattern, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT normalized_query, raw_query, frequency, last_seen, variants
		FROM query_patterns WHERE normalized_query = ?
	`, normalized)

	pattern, err := scanPattern(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return pattern, nil
}

// Upsert inserts or replaces the pattern keyed by NormalizedQuery.
func (s *patternStore) Upsert(ctx context.Context, pattern *domain.QueryPattern) error {
	variants, err := json.Marshal(pattern.Variants)
	if err != nil {
		return fmt.Errorf("marshalling variants: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO query_patterns (normalized_query, raw_query, frequency, last_seen, variants)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(normalized_query) DO UPDATE SET
			raw_query = excluded.raw_query,
			frequency = excluded.frequency,
			last_seen = excluded.last_seen,
			variants = excluded.variants
	`, pattern.NormalizedQuery, pattern.RawQuery, pattern.Frequency,
		pattern.LastSeen.UTC(), string(variants))
	if err != nil {
		return fmt.Errorf("storing query pattern: %w", err)
	}
	return nil
}

// List returns patterns with Frequency >= minFrequency, most frequent first.
func (s *patternStore) List(ctx context.Context, minFrequency int64) ([]domain.QueryPattern, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT normalized_query, raw_query, frequency, last_seen, variants
		FROM query_patterns WHERE frequency >= ?
		ORDER BY frequency DESC, last_seen DESC
	`, minFrequency)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.QueryPattern
	for rows.Next() {
		pattern, err := scanPattern(rows.Scan)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}
	return patterns, nil
}

// Decay halves stale frequencies and drops patterns that reach zero.
func (s *patternStore) Decay(ctx context.Context, notSeenSince time.Time) (int, error) {
	cutoff := notSeenSince.UTC()

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE query_patterns SET frequency = frequency / 2 WHERE last_seen < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("decaying patterns: %w", err)
	}
	touched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting decayed patterns: %w", err)
	}

	if _, err := s.store.db.ExecContext(ctx,
		`DELETE FROM query_patterns WHERE frequency <= 0`); err != nil {
		return 0, fmt.Errorf("pruning decayed patterns: %w", err)
	}

	return int(touched), nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *patternStore) Close() error {
	return nil
}

// scanPattern reads one pattern row through the given scan function.
func scanPattern(scan func(dest ...any) error) (*domain.QueryPattern, error) {
	var pattern domain.QueryPattern
	var variants string
	if err := scan(&pattern.NormalizedQuery, &pattern.RawQuery,
		&pattern.Frequency, &pattern.LastSeen, &variants); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(variants), &pattern.Variants); err != nil {
		return nil, fmt.Errorf("unmarshalling variants: %w", err)
	}
	return &pattern, nil
}
