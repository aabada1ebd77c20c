package datastore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Content-key namespaces. Uploaded files are keyed by a sha256 hash of
// their bytes; remote sources carry an externally issued identifier. The
// two namespaces are disjoint and never compared against each other.
const (
	NamespaceUpload  = "upload"
	NamespaceYouTube = "youtube"
)

// MediaAsset maps to the media_assets table. Created on first submission
// of a given piece of content; immutable thereafter; deleted only when no
// job references it anymore.
type MediaAsset struct {
	ID          uuid.UUID      `json:"id"`
	Namespace   string         `json:"namespace"`
	ContentKey  string         `json:"content_key"`
	DisplayName string         `json:"display_name"`
	MimeType    string         `json:"mime_type"`
	ObjectName  sql.NullString `json:"object_name,omitempty"` // key in object storage
	Owner       sql.NullString `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
