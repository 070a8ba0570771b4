// Package sqlite keeps collection snapshots in an embedded SQLite database.
package sqlite

import (
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);`

// SnapshotRepository implements repository.SnapshotRepository on SQLite.
type SnapshotRepository struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database file at path.
func Open(ctx context.Context, path string) (*SnapshotRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SnapshotRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}

// Load returns the snapshot stored under key.
func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save upserts the snapshot stored under key.
func (r *SnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("snapshot key is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSaveFailed, err)
	}
	return nil
}

var _ repository.SnapshotRepository = (*SnapshotRepository)(nil)
