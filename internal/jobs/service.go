// Package jobs runs the asynchronous transcription pipeline. Submission
// deduplicates against completed and in-flight work; a single worker
// goroutine drains the queue and drives each job through its state
// machine.
package jobs

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/datastore"
	"github.com/vinh406/video-transcription-app/internal/providers"
	"github.com/vinh406/video-transcription-app/internal/segment"
)

// PipelineStore is the slice of the datastore the pipeline needs.
type PipelineStore interface {
	CreateJob(ctx context.Context, job *datastore.TranscriptionJob) error
	GetJob(ctx context.Context, id uuid.UUID) (*datastore.TranscriptionJob, error)
	FindCompletedJob(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, error)
	FindLiveJob(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, error)
	MarkJobProcessing(ctx context.Context, id uuid.UUID) error
	MarkJobCompleted(ctx context.Context, id uuid.UUID, segments []segment.Segment) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	CountJobsForAsset(ctx context.Context, assetID uuid.UUID) (int, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*datastore.MediaAsset, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
}

// AudioFetcher materializes an asset's audio as a local file the worker
// owns and removes after use.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, asset *datastore.MediaAsset) (string, error)
}

// ObjectRemover deletes a stored media object during asset cascade.
type ObjectRemover interface {
	DeleteFile(ctx context.Context, objectName string) error
}

const defaultQueueSize = 64

// Service owns the job queue and the worker.
type Service struct {
	store     PipelineStore
	fetcher   AudioFetcher
	objects   ObjectRemover
	providers *providers.Registry
	queue     chan uuid.UUID
	done      chan struct{}
}

// NewService wires the pipeline. objects may be nil when no object
// storage is configured; upload-asset cascade then skips object removal.
func NewService(store PipelineStore, fetcher AudioFetcher, objects ObjectRemover, registry *providers.Registry) *Service {
	return &Service{
		store:     store,
		fetcher:   fetcher,
		objects:   objects,
		providers: registry,
		queue:     make(chan uuid.UUID, defaultQueueSize),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine. It returns immediately; the
// worker exits when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case jobID := <-s.queue:
				s.runJob(ctx, jobID)
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (s *Service) Wait() {
	<-s.done
}

// Submit returns the completed job if the (asset, provider, language)
// triple was already transcribed, the live job if one is in flight, and
// otherwise creates a pending job and enqueues it. The second return
// reports whether a new job was created.
func (s *Service) Submit(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, bool, error) {
	if _, err := s.providers.Get(provider); err != nil {
		return nil, false, err
	}

	if job, err := s.store.FindCompletedJob(ctx, assetID, provider, language); err == nil {
		log.Printf("Submit: reusing completed job %s for asset %s", job.ID, assetID)
		return job, false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	return s.createAndEnqueue(ctx, assetID, provider, language)
}

// Regenerate always creates a fresh job, bypassing completed results. A
// job already in flight for the triple is returned instead of doubling
// the work.
func (s *Service) Regenerate(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, bool, error) {
	if _, err := s.providers.Get(provider); err != nil {
		return nil, false, err
	}
	return s.createAndEnqueue(ctx, assetID, provider, language)
}

func (s *Service) createAndEnqueue(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, bool, error) {
	if job, err := s.store.FindLiveJob(ctx, assetID, provider, language); err == nil {
		log.Printf("Submit: job %s already in flight for asset %s", job.ID, assetID)
		return job, false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	job := &datastore.TranscriptionJob{
		AssetID:  assetID,
		Provider: provider,
		Language: language,
		Status:   datastore.JobStatusPending,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		// A concurrent submission won the race; the unique index on live
		// jobs collapsed the create onto the existing row.
		if errors.Is(err, apperrors.ErrConflict) {
			if live, findErr := s.store.FindLiveJob(ctx, assetID, provider, language); findErr == nil {
				return live, false, nil
			}
		}
		return nil, false, err
	}

	s.queue <- job.ID
	log.Printf("Submit: created job %s (asset %s, provider %s, language %s)", job.ID, assetID, provider, language)
	return job, true, nil
}

// RegenerateFromJob creates a fresh job with the same triple as an
// existing one, after checking the caller owns the underlying asset.
func (s *Service) RegenerateFromJob(ctx context.Context, jobID uuid.UUID, owner string) (*datastore.TranscriptionJob, bool, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	asset, err := s.store.GetAsset(ctx, job.AssetID)
	if err != nil {
		return nil, false, err
	}
	if asset.Owner.Valid && asset.Owner.String != owner {
		return nil, false, apperrors.ErrPermission
	}
	return s.Regenerate(ctx, job.AssetID, job.Provider, job.Language)
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID) (*datastore.TranscriptionJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// Delete removes a job after an ownership check against its asset. When
// the last job referencing the asset goes away, the asset row and its
// stored object are removed too.
func (s *Service) Delete(ctx context.Context, jobID uuid.UUID, owner string) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	asset, err := s.store.GetAsset(ctx, job.AssetID)
	if err != nil {
		return err
	}
	if asset.Owner.Valid && asset.Owner.String != owner {
		return apperrors.ErrPermission
	}

	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return err
	}

	remaining, err := s.store.CountJobsForAsset(ctx, asset.ID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	log.Printf("Delete: asset %s has no jobs left, removing it", asset.ID)
	if asset.ObjectName.Valid && s.objects != nil {
		if err := s.objects.DeleteFile(ctx, asset.ObjectName.String); err != nil {
			return err
		}
	}
	return s.store.DeleteAsset(ctx, asset.ID)
}

// runJob drives one job from pending to a terminal state. Failures are
// captured into the job row; only infrastructure errors around the
// transition itself are merely logged.
func (s *Service) runJob(ctx context.Context, jobID uuid.UUID) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		log.Printf("worker: job %s vanished before processing: %v", jobID, err)
		return
	}
	if job.IsTerminal() {
		log.Printf("worker: job %s already %s, skipping", job.ID, job.Status)
		return
	}
	if err := s.store.MarkJobProcessing(ctx, job.ID); err != nil {
		log.Printf("worker: job %s not claimable: %v", job.ID, err)
		return
	}

	result, err := s.transcribe(ctx, job)
	if err != nil {
		log.Printf("worker: job %s failed: %v", job.ID, err)
		if markErr := s.store.MarkJobFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.Printf("worker: failed to record failure of job %s: %v", job.ID, markErr)
		}
		return
	}

	if err := s.store.MarkJobCompleted(ctx, job.ID, result.Segments); err != nil {
		log.Printf("worker: failed to complete job %s: %v", job.ID, err)
		return
	}
	log.Printf("worker: job %s completed with %d segments", job.ID, len(result.Segments))
}

func (s *Service) transcribe(ctx context.Context, job *datastore.TranscriptionJob) (*providers.Transcription, error) {
	provider, err := s.providers.Get(job.Provider)
	if err != nil {
		return nil, err
	}
	asset, err := s.store.GetAsset(ctx, job.AssetID)
	if err != nil {
		return nil, err
	}

	audioPath, err := s.fetcher.FetchAudio(ctx, asset)
	if err != nil {
		return nil, err
	}
	defer os.Remove(audioPath)

	return provider.Transcribe(ctx, audioPath, job.Language)
}
