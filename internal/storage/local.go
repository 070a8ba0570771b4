package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// localStorage keeps documents in a directory tree on an afero filesystem.
type localStorage struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

// NewLocalStorage creates a directory-backed document store rooted at root.
func NewLocalStorage(fsys afero.Fs, root string, logger *zap.Logger) (DocumentStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage.NewLocalStorage: %w", err)
	}
	if err := fsys.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocalStorage: create %s: %w", abs, err)
	}
	return &localStorage{fs: fsys, root: abs, logger: logger}, nil
}

// path resolves objectKey below the root. Keys that resolve to the root
// itself or outside it are rejected.
func (s *localStorage) path(objectKey string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(objectKey))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, objectKey)
	}
	return p, nil
}

func (s *localStorage) Put(ctx context.Context, objectKey string, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(objectKey)
	if err != nil {
		return fmt.Errorf("localStorage.Put: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("localStorage.Put %s: %w", objectKey, err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("localStorage.Put %s: %w", objectKey, err)
	}
	s.logger.Debug("object stored", zap.String("path", p), zap.Int("bytes", len(data)))
	return nil
}

// PresignedDownloadURL returns a file:// URL. Local files do not expire.
func (s *localStorage) PresignedDownloadURL(ctx context.Context, objectKey string, _ time.Duration) (string, error) {
	p, err := s.path(objectKey)
	if err != nil {
		return "", fmt.Errorf("localStorage.PresignedDownloadURL: %w", err)
	}
	if _, err := s.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("localStorage.PresignedDownloadURL %s: %w", objectKey, ErrObjectNotFound)
		}
		return "", fmt.Errorf("localStorage.PresignedDownloadURL %s: %w", objectKey, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String(), nil
}

// ListObjects treats prefix as a directory and returns the keys of the files
// below it. A missing directory holds no objects.
func (s *localStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	dir, err := s.path(prefix)
	if err != nil {
		return nil, fmt.Errorf("localStorage.ListObjects: %w", err)
	}

	var keys []string
	err = afero.Walk(s.fs, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localStorage.ListObjects %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *localStorage) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := s.path(objectKey)
	if err != nil {
		return fmt.Errorf("localStorage.DeleteObject: %w", err)
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localStorage.DeleteObject %s: %w", objectKey, err)
	}
	s.logger.Info("object deleted", zap.String("key", objectKey))
	return nil
}
