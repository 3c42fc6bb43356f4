// Package store persists encoded room snapshots by room code.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

var ErrNotFound = errors.New("snapshot not found")
var ErrInvalidCode = errors.New("invalid room code")

// Store loads and saves the latest snapshot of each room.
type Store interface {
	Load(ctx context.Context, code string) ([]byte, error)
	Save(ctx context.Context, code string, data []byte) error
	Delete(ctx context.Context, code string) error
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidCode reports whether code is safe to use as a key.
func ValidCode(code string) bool { return codePattern.MatchString(code) }

// FileStore keeps one JSON file per room under dir.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) path(code string) string {
	return filepath.Join(s.dir, code+".json")
}

func (s *FileStore) Load(_ context.Context, code string) ([]byte, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}
	data, err := afero.ReadFile(s.fs, s.path(code))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", code, err)
	}
	return data, nil
}

// Save writes a temp file and renames it over the old snapshot.
func (s *FileStore) Save(_ context.Context, code string, data []byte) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}
	tmp := s.path(code) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", code, err)
	}
	if err := s.fs.Rename(tmp, s.path(code)); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", code, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, code string) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}
	if err := s.fs.Remove(s.path(code)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete snapshot %s: %w", code, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
