// Package gcs provides an upload store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/mkovalev/newsstand/internal/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	Prefix string
}

// Store keeps uploaded files in a GCS bucket under an optional prefix.
type Store struct {
	client *gstorage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed upload store.
func New(client *gstorage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Put uploads the file to the configured bucket.
func (s *Store) Put(ctx context.Context, filename, contentType string, r io.Reader) (storage.FileInfo, error) {
	if strings.TrimSpace(filename) == "" {
		return storage.FileInfo{}, fmt.Errorf("filename is required")
	}
	writer := s.object(filename).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	n, err := io.Copy(writer, r)
	if err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return storage.FileInfo{}, fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return storage.FileInfo{}, fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return storage.FileInfo{}, fmt.Errorf("close writer: %w", err)
	}
	return storage.FileInfo{Filename: filename, Size: n}, nil
}

// Open returns a reader for the stored object.
func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	reader, err := s.object(filename).NewReader(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return reader, nil
}

// Delete removes the stored object.
func (s *Store) Delete(ctx context.Context, filename string) error {
	err := s.object(filename).Delete(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// List enumerates objects under the configured prefix.
func (s *Store) List(ctx context.Context) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	it := s.client.Bucket(s.bucket).Objects(ctx, &gstorage.Query{Prefix: s.objectPrefix()})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate objects: %w", err)
		}
		files = append(files, storage.FileInfo{
			Filename: strings.TrimPrefix(attrs.Name, s.objectPrefix()),
			Size:     attrs.Size,
		})
	}
	return files, nil
}

func (s *Store) object(filename string) *gstorage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectPrefix() + filename)
}

func (s *Store) objectPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}
