// Package storage provides local file handling and S3 delivery for split
// tracks. It defines the Storage interface (port) with implementations for
// local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for source uploads, extracted tracks and
// optional S3 delivery of finished tracks.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename; its extension
	// is preserved so the extraction step can reuse it.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified files (uploaded sources or
	// extracted tracks). It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads a track to S3 and returns its public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
