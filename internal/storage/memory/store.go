// Package memory contains an in-memory upload store for development and tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/mkovalev/newsstand/internal/storage"
)

// Store keeps uploaded files in a map.
type Store struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// New constructs an empty Store.
func New() *Store {
	return &Store{files: make(map[string][]byte)}
}

// Put stores the file contents in memory.
func (s *Store) Put(_ context.Context, filename, _ string, r io.Reader) (storage.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.FileInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = data
	return storage.FileInfo{Filename: filename, Size: int64(len(data))}, nil
}

// Open returns a reader over the stored bytes.
func (s *Store) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[filename]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the file.
func (s *Store) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[filename]; !ok {
		return storage.ErrNotFound
	}
	delete(s.files, filename)
	return nil
}

// List enumerates stored files sorted by name.
func (s *Store) List(_ context.Context) ([]storage.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]storage.FileInfo, 0, len(s.files))
	for name, data := range s.files {
		files = append(files, storage.FileInfo{Filename: name, Size: int64(len(data))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}
