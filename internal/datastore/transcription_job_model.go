package datastore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/vinh406/video-transcription-app/internal/segment"
)

// Job lifecycle states. A job is created pending, claimed into processing
// by the worker, and ends in exactly one of the two terminal states.
// Terminal jobs are immutable: a retry always creates a new job.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// TranscriptionJob maps to the transcription_jobs table. One job is one
// attempt to transcribe a given asset with a given provider and language;
// the (asset_id, provider, language) triple is the dedup key.
type TranscriptionJob struct {
	ID           uuid.UUID         `json:"id"`
	AssetID      uuid.UUID         `json:"asset_id"`
	Provider     string            `json:"provider"`
	Language     string            `json:"language"`
	Status       string            `json:"status"`
	Segments     []segment.Segment `json:"segments,omitempty"`
	ErrorMessage sql.NullString    `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the job has reached an immutable state.
func (j *TranscriptionJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
