package storage

import (
	"context"
	"io"
)

// UploadResult describes the stored object after a successful upload.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader abstracts the object store that holds team logos. A nil
// uploader means file storage is not configured and uploads are rejected.
type FileUploader interface {
	// Upload stores the reader's content under key, replacing any
	// previous object at that key.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// GetPublicURL returns the browser-reachable URL for key, or an
	// empty string when no public base URL is configured.
	GetPublicURL(key string) string
}
