package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
)

// uniqueViolation is the Postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

// CreateAsset inserts a new media asset. A collision on the
// (namespace, content_key) pair surfaces as a Conflict error so callers
// can fall back to the existing asset.
func (s *Store) CreateAsset(ctx context.Context, asset *MediaAsset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	asset.CreatedAt = time.Now()

	query := `
		INSERT INTO media_assets (id, namespace, content_key, display_name, mime_type, object_name, owner_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		asset.ID,
		asset.Namespace,
		asset.ContentKey,
		asset.DisplayName,
		asset.MimeType,
		asset.ObjectName,
		asset.Owner,
		asset.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflictf("asset with content key %q already exists in namespace %q", asset.ContentKey, asset.Namespace)
		}
		return fmt.Errorf("failed to create media asset: %w", err)
	}
	return nil
}

// GetAsset retrieves a media asset by ID.
func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (*MediaAsset, error) {
	query := `
		SELECT id, namespace, content_key, display_name, mime_type, object_name, owner_name, created_at
		FROM media_assets
		WHERE id = $1
	`
	return s.scanAsset(s.db.QueryRowContext(ctx, query, id), fmt.Sprintf("asset %s", id))
}

// GetAssetByContentKey retrieves a media asset by its dedup identity.
func (s *Store) GetAssetByContentKey(ctx context.Context, namespace, contentKey string) (*MediaAsset, error) {
	query := `
		SELECT id, namespace, content_key, display_name, mime_type, object_name, owner_name, created_at
		FROM media_assets
		WHERE namespace = $1 AND content_key = $2
	`
	return s.scanAsset(s.db.QueryRowContext(ctx, query, namespace, contentKey),
		fmt.Sprintf("asset with content key %q in namespace %q", contentKey, namespace))
}

// DeleteAsset removes a media asset row. Callers are responsible for first
// checking that no job references it.
func (s *Store) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media asset %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting asset %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFoundf("asset %s", id)
	}
	return nil
}

func (s *Store) scanAsset(row *sql.Row, what string) (*MediaAsset, error) {
	asset := &MediaAsset{}
	err := row.Scan(
		&asset.ID,
		&asset.Namespace,
		&asset.ContentKey,
		&asset.DisplayName,
		&asset.MimeType,
		&asset.ObjectName,
		&asset.Owner,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("%s", what)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return asset, nil
}
