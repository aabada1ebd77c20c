// Package media maps content identities to stored assets. An asset is
// identified by a content key inside a namespace: uploads use a sha256
// hash of the bytes, remote sources an externally issued identifier.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/vinh406/video-transcription-app/internal/datastore"
)

// AssetStore is the slice of the datastore the registry needs.
type AssetStore interface {
	CreateAsset(ctx context.Context, asset *datastore.MediaAsset) error
	GetAssetByContentKey(ctx context.Context, namespace, contentKey string) (*datastore.MediaAsset, error)
}

// Metadata describes an asset at registration time.
type Metadata struct {
	DisplayName string
	MimeType    string
	ObjectName  string
	Owner       string
}

// Registry resolves and registers assets by content identity. It has no
// side effects beyond the asset store itself.
type Registry struct {
	assets AssetStore
}

// NewRegistry returns a Registry over the given store.
func NewRegistry(assets AssetStore) *Registry {
	return &Registry{assets: assets}
}

// Resolve returns the existing asset for the content key, or a NotFound
// error. Callers implement get-or-create as Resolve followed by Register;
// the storage unique constraint covers the race between the two.
func (r *Registry) Resolve(ctx context.Context, namespace, contentKey string) (*datastore.MediaAsset, error) {
	return r.assets.GetAssetByContentKey(ctx, namespace, contentKey)
}

// Register creates a new asset for the content key. It fails with a
// Conflict error when the key already exists in the namespace.
func (r *Registry) Register(ctx context.Context, namespace, contentKey string, meta Metadata) (*datastore.MediaAsset, error) {
	asset := &datastore.MediaAsset{
		Namespace:   namespace,
		ContentKey:  contentKey,
		DisplayName: meta.DisplayName,
		MimeType:    meta.MimeType,
	}
	if meta.ObjectName != "" {
		asset.ObjectName.String = meta.ObjectName
		asset.ObjectName.Valid = true
	}
	if meta.Owner != "" {
		asset.Owner.String = meta.Owner
		asset.Owner.Valid = true
	}
	if err := r.assets.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// HashFile computes the sha256 content key of a file without loading it
// into memory at once.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
