package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// CreateJob inserts a new transcription job in pending state. When another
// live job already holds the same (asset_id, provider, language) triple,
// the partial unique index fires and the call returns a Conflict error;
// the caller then treats the existing job as "already in flight".
func (s *Store) CreateJob(ctx context.Context, job *TranscriptionJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt

	query := `
		INSERT INTO transcription_jobs (id, asset_id, provider, language, status, segments, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.AssetID,
		job.Provider,
		job.Language,
		job.Status,
		json.RawMessage("null"),
		job.ErrorMessage,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflictf("a live job already exists for asset %s, provider %q, language %q", job.AssetID, job.Provider, job.Language)
		}
		return fmt.Errorf("failed to create transcription job: %w", err)
	}
	return nil
}

// GetJob retrieves a transcription job by ID.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*TranscriptionJob, error) {
	query := jobSelect + ` WHERE id = $1`
	return s.scanJob(s.db.QueryRowContext(ctx, query, id), fmt.Sprintf("job %s", id))
}

// FindCompletedJob returns the most recent completed job for the dedup
// triple, or NotFound. This is the primary cost-avoidance path: a hit
// means no provider call is needed.
func (s *Store) FindCompletedJob(ctx context.Context, assetID uuid.UUID, provider, language string) (*TranscriptionJob, error) {
	query := jobSelect + `
		WHERE asset_id = $1 AND provider = $2 AND language = $3 AND status = $4
		ORDER BY created_at DESC
		LIMIT 1`
	return s.scanJob(s.db.QueryRowContext(ctx, query, assetID, provider, language, JobStatusCompleted),
		fmt.Sprintf("completed job for asset %s", assetID))
}

// FindLiveJob returns the pending or processing job for the dedup triple,
// or NotFound. The partial unique index guarantees at most one exists.
func (s *Store) FindLiveJob(ctx context.Context, assetID uuid.UUID, provider, language string) (*TranscriptionJob, error) {
	query := jobSelect + `
		WHERE asset_id = $1 AND provider = $2 AND language = $3 AND status IN ($4, $5)
		LIMIT 1`
	return s.scanJob(s.db.QueryRowContext(ctx, query, assetID, provider, language, JobStatusPending, JobStatusProcessing),
		fmt.Sprintf("live job for asset %s", assetID))
}

// MarkJobProcessing moves a pending job to processing. It refuses to touch
// jobs in any other state, which keeps terminal states immutable.
func (s *Store) MarkJobProcessing(ctx context.Context, id uuid.UUID) error {
	return s.transitionJob(ctx, id,
		`UPDATE transcription_jobs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		JobStatusProcessing, time.Now(), id, JobStatusPending)
}

// MarkJobCompleted stores the segments and moves the job to completed.
func (s *Store) MarkJobCompleted(ctx context.Context, id uuid.UUID, segments []segment.Segment) error {
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to marshal segments for job %s: %w", id, err)
	}
	return s.transitionJob(ctx, id,
		`UPDATE transcription_jobs SET status = $1, segments = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		JobStatusCompleted, segmentsJSON, time.Now(), id, JobStatusProcessing)
}

// MarkJobFailed stores the error message and moves the job to failed.
func (s *Store) MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error {
	return s.transitionJob(ctx, id,
		`UPDATE transcription_jobs SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4 AND status IN ($5, $6)`,
		JobStatusFailed, message, time.Now(), id, JobStatusPending, JobStatusProcessing)
}

// DeleteJob removes a transcription job row.
func (s *Store) DeleteJob(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcription_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting job %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFoundf("job %s", id)
	}
	return nil
}

// CountJobsForAsset returns how many jobs still reference the asset. Zero
// means the asset is eligible for cascade deletion.
func (s *Store) CountJobsForAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcription_jobs WHERE asset_id = $1`, assetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs for asset %s: %w", assetID, err)
	}
	return count, nil
}

const jobSelect = `
	SELECT id, asset_id, provider, language, status, segments, error_message, created_at, updated_at
	FROM transcription_jobs`

func (s *Store) transitionJob(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected updating job %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return apperrors.Conflictf("job %s is not in a state that allows this transition", id)
	}
	return nil
}

func (s *Store) scanJob(row *sql.Row, what string) (*TranscriptionJob, error) {
	job := &TranscriptionJob{}
	var segmentsJSON []byte
	err := row.Scan(
		&job.ID,
		&job.AssetID,
		&job.Provider,
		&job.Language,
		&job.Status,
		&segmentsJSON,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("%s", what)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	if segmentsJSON != nil && string(segmentsJSON) != "null" {
		if err := json.Unmarshal(segmentsJSON, &job.Segments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal segments for %s: %w", what, err)
		}
	}
	return job, nil
}
