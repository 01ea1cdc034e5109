// Package storage provides durable key-value persistence for playback state.
package storage

import "github.com/cockroachdb/errors"

// Keys used by the playback store. All values are written as strings and
// parsed back on read.
const (
	KeyTrackID = "currentTrackId"
	KeyTime    = "currentTrackTime"
	KeyVolume  = "currentTrackVolume"
	KeyState   = "audioState"
)

// Store is a minimal durable key-value store. Implementations must be safe
// for concurrent use within a single process.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool)
	// Set stores the value under key, replacing any previous value.
	Set(key, value string) error
	// Close releases underlying resources.
	Close() error
}

// Open creates a Store for the given backend type. The path is ignored by
// the memory backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "file", "":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf("unknown storage backend: %s", backend)
	}
}
