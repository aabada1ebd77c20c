// Package transcriptionmanagement exposes the transcription pipeline
// over HTTP: upload or YouTube submission, job inspection, regeneration,
// deletion and summaries.
package transcriptionmanagement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/auth"
	"github.com/vinh406/video-transcription-app/internal/datastore"
	"github.com/vinh406/video-transcription-app/internal/media"
	"github.com/vinh406/video-transcription-app/internal/segment"
	"github.com/vinh406/video-transcription-app/internal/summarize"
)

// JobService is the slice of the jobs pipeline the handlers use.
type JobService interface {
	Submit(ctx context.Context, assetID uuid.UUID, provider, language string) (*datastore.TranscriptionJob, bool, error)
	RegenerateFromJob(ctx context.Context, jobID uuid.UUID, owner string) (*datastore.TranscriptionJob, bool, error)
	Get(ctx context.Context, jobID uuid.UUID) (*datastore.TranscriptionJob, error)
	Delete(ctx context.Context, jobID uuid.UUID, owner string) error
}

// Uploader stores uploaded media under its content key.
type Uploader interface {
	UploadFile(ctx context.Context, contentKey, originalFilename string, reader io.Reader, size int64, contentType string) (string, error)
}

// Summarizer produces a timestamped summary from segments.
type Summarizer interface {
	Summarize(ctx context.Context, segments []segment.Segment) (*summarize.Summary, error)
}

// Handlers carries the wired dependencies for the transcription routes.
type Handlers struct {
	Jobs       JobService
	Registry   *media.Registry
	Uploader   Uploader
	Summarizer Summarizer
}

// TranscribeUploadHandler accepts a multipart upload with `service` and
// `language` form fields. Identical content resolves to the same asset,
// and an already completed (asset, service, language) triple comes back
// straight from the cache.
func (h *Handlers) TranscribeUploadHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload: " + err.Error()})
		return
	}
	service := c.DefaultPostForm("service", "whisper")
	language := c.DefaultPostForm("language", "auto")

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("upload-%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename)))
	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload: " + err.Error()})
		return
	}
	defer os.Remove(tempPath)

	contentKey, err := media.HashFile(tempPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash upload: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	asset, err := h.Registry.Resolve(ctx, datastore.NamespaceUpload, contentKey)
	if errors.Is(err, apperrors.ErrNotFound) {
		asset, err = h.registerUpload(ctx, c, tempPath, contentKey, fileHeader.Filename, fileHeader.Size)
	}
	if err != nil {
		h.renderError(c, err)
		return
	}

	job, created, err := h.Jobs.Submit(ctx, asset.ID, service, language)
	if err != nil {
		h.renderError(c, err)
		return
	}
	renderJob(c, job, created)
}

func (h *Handlers) registerUpload(ctx context.Context, c *gin.Context, tempPath, contentKey, filename string, size int64) (*datastore.MediaAsset, error) {
	f, err := os.Open(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen upload: %w", err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName, err := h.Uploader.UploadFile(ctx, contentKey, filename, f, size, contentType)
	if err != nil {
		return nil, err
	}

	asset, err := h.Registry.Register(ctx, datastore.NamespaceUpload, contentKey, media.Metadata{
		DisplayName: filename,
		MimeType:    contentType,
		ObjectName:  objectName,
		Owner:       auth.CurrentUser(c),
	})
	if errors.Is(err, apperrors.ErrConflict) {
		// A concurrent upload of the same content won the race.
		log.Printf("upload: asset for %s registered concurrently, reusing it", contentKey)
		return h.Registry.Resolve(ctx, datastore.NamespaceUpload, contentKey)
	}
	return asset, err
}

// YouTubeRequest is the JSON payload of the YouTube submission route.
type YouTubeRequest struct {
	URL      string `json:"url" binding:"required"`
	Service  string `json:"service"`
	Language string `json:"language"`
}

// TranscribeYouTubeHandler registers a YouTube video as an asset keyed
// by its video ID and submits a transcription job for it. The audio is
// only downloaded when the worker picks the job up.
func (h *Handlers) TranscribeYouTubeHandler(c *gin.Context) {
	var req YouTubeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.Service == "" {
		req.Service = "whisper"
	}
	if req.Language == "" {
		req.Language = "auto"
	}

	videoID, err := media.ExtractVideoID(req.URL)
	if err != nil {
		h.renderError(c, err)
		return
	}

	ctx := c.Request.Context()
	asset, err := h.Registry.Resolve(ctx, datastore.NamespaceYouTube, videoID)
	if errors.Is(err, apperrors.ErrNotFound) {
		asset, err = h.Registry.Register(ctx, datastore.NamespaceYouTube, videoID, media.Metadata{
			DisplayName: req.URL,
			Owner:       auth.CurrentUser(c),
		})
		if errors.Is(err, apperrors.ErrConflict) {
			asset, err = h.Registry.Resolve(ctx, datastore.NamespaceYouTube, videoID)
		}
	}
	if err != nil {
		h.renderError(c, err)
		return
	}

	job, created, err := h.Jobs.Submit(ctx, asset.ID, req.Service, req.Language)
	if err != nil {
		h.renderError(c, err)
		return
	}
	renderJob(c, job, created)
}

// GetTranscriptionHandler returns the job's status, segments, and error
// message if any.
func (h *Handlers) GetTranscriptionHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// RegenerateHandler submits a fresh job for the same asset, provider
// and language, bypassing cached results.
func (h *Handlers) RegenerateHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	job, created, err := h.Jobs.RegenerateFromJob(c.Request.Context(), jobID, auth.CurrentUser(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	renderJob(c, job, created)
}

// DeleteTranscriptionHandler deletes a job; the asset and stored object
// go with it when no other job references them.
func (h *Handlers) DeleteTranscriptionHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	if err := h.Jobs.Delete(c.Request.Context(), jobID, auth.CurrentUser(c)); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transcription deleted"})
}

// SummarizeRequest is the JSON payload of the summary route.
type SummarizeRequest struct {
	Segments []segment.Segment `json:"segments" binding:"required"`
}

// SummarizeHandler turns transcript segments into a timestamped summary.
func (h *Handlers) SummarizeHandler(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if h.Summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Summarization is not configured"})
		return
	}
	summary, err := h.Summarizer.Summarize(c.Request.Context(), req.Segments)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Summary generated successfully", "data": summary})
}

func renderJob(c *gin.Context, job *datastore.TranscriptionJob, created bool) {
	switch {
	case job.Status == datastore.JobStatusCompleted:
		c.JSON(http.StatusOK, gin.H{"message": "Transcription retrieved from cache", "data": job})
	case created:
		c.JSON(http.StatusAccepted, gin.H{"message": "Transcription job queued", "data": job})
	default:
		c.JSON(http.StatusAccepted, gin.H{"message": "Transcription already in progress", "data": job})
	}
}

// renderError maps the error taxonomy onto HTTP status codes.
func (h *Handlers) renderError(c *gin.Context, err error) {
	var provErr *apperrors.ProviderError
	var parseErr *apperrors.ParseError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this resource"})
	case errors.As(err, &provErr), errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("handler: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
