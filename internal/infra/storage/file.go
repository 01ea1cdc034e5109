package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// FileStore persists keys as a single JSON document on disk. Every Set
// rewrites the file; the document never grows past a handful of keys, so
// each write stays cheap.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// NewFileStore loads the store backed by path, starting empty when the
// file does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   filepath.Clean(path),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errors.Wrap(err, "failed to read state file")
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, errors.Wrap(err, "failed to parse state file")
	}

	return s, nil
}

// Get returns the stored value and whether the key was present.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores the value under key and rewrites the backing file. The file is
// written to a temp path and renamed so readers never see a partial write.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write state file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace state file")
	}
	return nil
}

// Close is a no-op; every Set already reaches the disk.
func (s *FileStore) Close() error {
	return nil
}
