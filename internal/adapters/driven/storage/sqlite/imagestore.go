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

// imageStore implements driven.ImageStore.
type imageStore struct {
	store *Store
}

var _ driven.ImageStore = (*imageStore)(nil)

// GetResolution returns the stored resolution for a record.
func (s *imageStore) GetResolution(ctx context.Context, recordID string) (*domain.ImageResolution, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT record_id, candidates, resolved_url, resolved_source, generated, resolved_at
		FROM image_resolutions WHERE record_id = ?
	`, recordID)

	var res domain.ImageResolution
	var candidates string
	err := row.Scan(&res.RecordID, &candidates, &res.ResolvedURL,
		&res.ResolvedSource, &res.GeneratedFallback, &res.ResolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading image resolution: %w", err)
	}
	if err := json.Unmarshal([]byte(candidates), &res.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshalling candidates: %w", err)
	}
	return &res, nil
}

// PutResolution inserts or replaces the resolution for its RecordID.
func (s *imageStore) PutResolution(ctx context.Context, res *domain.ImageResolution) error {
	if res.RecordID == "" {
		return fmt.Errorf("%w: resolution has no record id", domain.ErrInvalidInput)
	}
	candidates, err := json.Marshal(res.Candidates)
	if err != nil {
		return fmt.Errorf("marshalling candidates: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO image_resolutions (record_id, candidates, resolved_url, resolved_source, generated, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			candidates = excluded.candidates,
			resolved_url = excluded.resolved_url,
			resolved_source = excluded.resolved_source,
			generated = excluded.generated,
			resolved_at = excluded.resolved_at
	`, res.RecordID, string(candidates), res.ResolvedURL,
		res.ResolvedSource, res.GeneratedFallback, res.ResolvedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing image resolution: %w", err)
	}
	return nil
}

// GetImage returns stored image bytes by content hash.
func (s *imageStore) GetImage(ctx context.Context, hash string) (*domain.ResolvedImage, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT content_hash, content_type, data, generated
		FROM images WHERE content_hash = ?
	`, hash)

	var img domain.ResolvedImage
	err := row.Scan(&img.ContentHash, &img.ContentType, &img.Data, &img.Generated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &img, nil
}

// PutImage stores image bytes under their content hash. Storing the same
// hash twice is a no-op; the bytes are identical by construction.
func (s *imageStore) PutImage(ctx context.Context, img *domain.ResolvedImage) error {
	if img.ContentHash == "" {
		return fmt.Errorf("%w: image has no content hash", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO images (content_hash, content_type, data, generated, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`, img.ContentHash, img.ContentType, img.Data, img.Generated, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// Invalidate drops the resolution for a record. Content-addressed bytes
// stay; other records may share them.
func (s *imageStore) Invalidate(ctx context.Context, recordID string) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM image_resolutions WHERE record_id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("invalidating image resolution: %w", err)
	}
	return nil
}
