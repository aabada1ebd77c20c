package media

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vinh406/video-transcription-app/internal/apperrors"
	"github.com/vinh406/video-transcription-app/internal/datastore"
)

type fakeAssetStore struct {
	assets map[string]*datastore.MediaAsset
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{assets: make(map[string]*datastore.MediaAsset)}
}

func (s *fakeAssetStore) key(namespace, contentKey string) string {
	return namespace + "/" + contentKey
}

func (s *fakeAssetStore) CreateAsset(ctx context.Context, asset *datastore.MediaAsset) error {
	k := s.key(asset.Namespace, asset.ContentKey)
	if _, ok := s.assets[k]; ok {
		return apperrors.Conflictf("asset %s already exists", k)
	}
	asset.ID = uuid.New()
	s.assets[k] = asset
	return nil
}

func (s *fakeAssetStore) GetAssetByContentKey(ctx context.Context, namespace, contentKey string) (*datastore.MediaAsset, error) {
	a, ok := s.assets[s.key(namespace, contentKey)]
	if !ok {
		return nil, apperrors.NotFoundf("asset %s/%s not found", namespace, contentKey)
	}
	return a, nil
}

func TestRegistryResolveRegister(t *testing.T) {
	store := newFakeAssetStore()
	reg := NewRegistry(store)
	ctx := context.Background()

	if _, err := reg.Resolve(ctx, datastore.NamespaceUpload, "abc123"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Resolve on empty store: err = %v, want not found", err)
	}

	created, err := reg.Register(ctx, datastore.NamespaceUpload, "abc123", Metadata{
		DisplayName: "meeting.mp4",
		MimeType:    "video/mp4",
		ObjectName:  "abc123.mp4",
		Owner:       "alice",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("registered asset has no ID")
	}
	if !created.ObjectName.Valid || created.ObjectName.String != "abc123.mp4" {
		t.Fatalf("object name not recorded: %+v", created.ObjectName)
	}
	if !created.Owner.Valid || created.Owner.String != "alice" {
		t.Fatalf("owner not recorded: %+v", created.Owner)
	}

	got, err := reg.Resolve(ctx, datastore.NamespaceUpload, "abc123")
	if err != nil {
		t.Fatalf("Resolve after Register: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("Resolve returned %s, want %s", got.ID, created.ID)
	}
}

func TestRegistryRegisterConflict(t *testing.T) {
	store := newFakeAssetStore()
	reg := NewRegistry(store)
	ctx := context.Background()

	if _, err := reg.Register(ctx, datastore.NamespaceYouTube, "dQw4w9WgXcQ", Metadata{DisplayName: "clip"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := reg.Register(ctx, datastore.NamespaceYouTube, "dQw4w9WgXcQ", Metadata{DisplayName: "clip again"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("duplicate Register: err = %v, want conflict", err)
	}
}

// Same content key in different namespaces identifies different assets.
func TestRegistryNamespacesAreDisjoint(t *testing.T) {
	store := newFakeAssetStore()
	reg := NewRegistry(store)
	ctx := context.Background()

	up, err := reg.Register(ctx, datastore.NamespaceUpload, "samekey", Metadata{DisplayName: "upload"})
	if err != nil {
		t.Fatalf("Register upload: %v", err)
	}
	yt, err := reg.Register(ctx, datastore.NamespaceYouTube, "samekey", Metadata{DisplayName: "youtube"})
	if err != nil {
		t.Fatalf("Register youtube: %v", err)
	}
	if up.ID == yt.ID {
		t.Fatal("assets in different namespaces share an ID")
	}
}
