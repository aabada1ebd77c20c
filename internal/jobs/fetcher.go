package jobs

import (
	"context"
	"os"

	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/datastore"
	"github.com/vinh406/video-transcription-app/internal/media"
)

// ObjectDownloader materializes a stored object as a local temp file.
type ObjectDownloader interface {
	DownloadToTemp(ctx context.Context, objectName, dir string) (string, error)
}

// MediaFetcher resolves an asset's audio by namespace: uploads come out
// of object storage, youtube assets are re-downloaded by video id.
type MediaFetcher struct {
	Objects ObjectDownloader
	YouTube *media.YouTubeDownloader
	TempDir string
}

// NewMediaFetcher returns a fetcher writing transient files to the
// system temp directory.
func NewMediaFetcher(objects ObjectDownloader, youtube *media.YouTubeDownloader) *MediaFetcher {
	return &MediaFetcher{Objects: objects, YouTube: youtube, TempDir: os.TempDir()}
}

// FetchAudio returns the path of a transient local audio file for the
// asset. The caller owns the file and removes it when done.
func (f *MediaFetcher) FetchAudio(ctx context.Context, asset *datastore.MediaAsset) (string, error) {
	switch asset.Namespace {
	case datastore.NamespaceUpload:
		if !asset.ObjectName.Valid {
			return "", apperrors.Validationf("asset %s has no stored object", asset.ID)
		}
		return f.Objects.DownloadToTemp(ctx, asset.ObjectName.String, f.TempDir)
	case datastore.NamespaceYouTube:
		return f.YouTube.DownloadAudio(ctx, asset.ContentKey, f.TempDir)
	default:
		return "", apperrors.Validationf("asset %s has unknown namespace %q", asset.ID, asset.Namespace)
	}
}
