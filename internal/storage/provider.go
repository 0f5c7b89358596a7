// Package storage defines the file store behind the upload endpoints.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// FileInfo describes one stored file.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Provider abstracts where uploaded files live.
type Provider interface {
	// Put stores the contents of r under filename and returns its metadata.
	Put(ctx context.Context, filename, contentType string, r io.Reader) (FileInfo, error)
	// Open returns a reader for a stored file or ErrNotFound.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	// Delete removes a stored file or returns ErrNotFound.
	Delete(ctx context.Context, filename string) error
	// List enumerates stored files.
	List(ctx context.Context) ([]FileInfo, error)
}
