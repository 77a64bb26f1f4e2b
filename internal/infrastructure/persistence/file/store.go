// Package file implements the filesystem-backed snapshot store. It is the
// default store: a single JSON document replaced atomically on every batch
// pass, so a crashed run never leaves a reader with a half-written file.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
)

// DefaultPath is where the snapshot lives when no path is configured.
const DefaultPath = "data/leaderboard.json"

// Store persists the leaderboard snapshot as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a store writing to the given path. Parent directories are
// created on the first Write.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Write replaces the snapshot file atomically. The snapshot is written to a
// temp file in the same directory and renamed over the old one, so a reader
// sees either the previous snapshot or the new one, never a partial write.
func (s *Store) Write(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leaderboard-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	// Rename within the same directory is atomic on POSIX filesystems.
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Read returns the latest persisted snapshot.
func (s *Store) Read(ctx context.Context) (*leaderboard.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, leaderboard.ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return leaderboard.DecodeSnapshot(data)
}
