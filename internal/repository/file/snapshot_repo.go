// Package file keeps collection snapshots as JSON files on an afero filesystem.
package file

import (
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", `\`, "_")

// fileSnapshotRepository implements repository.SnapshotRepository
type fileSnapshotRepository struct {
	fs  afero.Fs
	dir string
}

// NewFileSnapshotRepository stores snapshots as <dir>/<key>.json on fs.
func NewFileSnapshotRepository(fs afero.Fs, dir string) (repository.SnapshotRepository, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %q: %w", dir, err)
	}
	return &fileSnapshotRepository{fs: fs, dir: dir}, nil
}

func (r *fileSnapshotRepository) path(key string) string {
	return filepath.Join(r.dir, keyReplacer.Replace(key)+".json")
}

// Load reads the snapshot file for key.
func (r *fileSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(r.fs, r.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save writes to a temp file and renames it over the previous snapshot,
// so a reader never observes a half-written file.
func (r *fileSnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("snapshot key is required")
	}

	target := r.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSaveFailed, err)
	}
	if err := r.fs.Rename(tmp, target); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("%w: %v", repository.ErrSaveFailed, err)
	}
	return nil
}
