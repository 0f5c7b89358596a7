// Package local implements a filesystem-backed upload store.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkovalev/newsstand/internal/storage"
)

// Config captures the parameters for the local upload store.
type Config struct {
	// BaseDir is the directory where uploads are stored.
	BaseDir string `mapstructure:"base_dir"`
}

// Store keeps uploaded files in a single flat directory.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed store, creating BaseDir when missing.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Put writes the file to disk under filename.
func (s *Store) Put(_ context.Context, filename, _ string, r io.Reader) (storage.FileInfo, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return storage.FileInfo{}, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		closeErr := f.Close()
		if removeErr := os.Remove(path); removeErr != nil {
			return storage.FileInfo{}, fmt.Errorf("write file: %w (cleanup: %v)", err, removeErr)
		}
		if closeErr != nil {
			return storage.FileInfo{}, fmt.Errorf("write file: %w (close: %v)", err, closeErr)
		}
		return storage.FileInfo{}, fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return storage.FileInfo{}, fmt.Errorf("close file: %w", err)
	}

	return storage.FileInfo{Filename: filename, Size: n}, nil
}

// Open returns a reader for the stored file.
func (s *Store) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes the stored file.
func (s *Store) Delete(_ context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// List enumerates files in the base directory.
func (s *Store) List(_ context.Context) ([]storage.FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read base directory: %w", err)
	}
	files := make([]storage.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, storage.FileInfo{Filename: e.Name(), Size: info.Size()})
	}
	return files, nil
}

// resolve joins filename onto baseDir, rejecting traversal attempts.
func (s *Store) resolve(filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("filename is required")
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	full := filepath.Join(s.baseDir, filename)
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(full), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return full, nil
}
