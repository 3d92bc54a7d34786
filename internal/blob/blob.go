// Package blob stores receipt images in an S3-compatible object store.
package blob

import "context"

// Uploader stores a local file remotely and returns its storage key.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// NoopUploader is used when no object storage is configured; entries keep
// their local receipt path and nothing is uploaded.
type NoopUploader struct{}

func (NoopUploader) Upload(ctx context.Context, localPath string) (string, error) {
	return "", nil
}
