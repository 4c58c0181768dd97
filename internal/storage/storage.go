// Package storage defines the blob store used to persist CSV-backed tables.
// Implementations live in the local, gcs and memory subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound signals that no object exists at the requested path.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore reads and writes whole objects addressed by path.
type BlobStore interface {
	// PutObject replaces the object at path and returns its URI.
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	// GetObject returns the object content or ErrObjectNotFound.
	GetObject(ctx context.Context, path string) ([]byte, error)
}
