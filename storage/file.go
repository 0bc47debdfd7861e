package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File persists each key as its own JSON file under a data directory.
// Writes go through a temp file and rename, so a reader (including an
// external process watching the directory) never observes a partial value.
type File struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFile creates a file-backed store rooted at dir.
// The directory is created if it doesn't exist.
func NewFile(dir string, logger *slog.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &File{
		dir:    dir,
		logger: logger,
	}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *File) Get(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return string(data), nil
}

// Set stores value under key via a temp file and an atomic rename.
func (s *File) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for key %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for key %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace key %q: %w", key, err)
	}

	s.logger.Debug("wrote key to disk", "key", key, "path", path)
	return nil
}

// Close is a no-op for the file store.
func (s *File) Close() error {
	return nil
}

// Dir returns the directory backing the store.
func (s *File) Dir() string {
	return s.dir
}

// path maps a key to its backing file. Keys are flat names like "run-state";
// path separators are flattened so a key can never escape the directory.
func (s *File) path(key string) string {
	name := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, name+".json")
}

// KeyForPath maps a file inside a File store's directory back to its key.
// Returns false for temp files and anything else the store does not manage.
func KeyForPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
