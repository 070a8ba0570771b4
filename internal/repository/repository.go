package repository

import (
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound   = RepositoryError("not found")
	ErrSaveFailed = RepositoryError("save failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Fixed keys under which each store keeps its collection snapshot.
const (
	CustomersKey = "trainerscribe:customers"
	ProtocolsKey = "trainerscribe:protocols"
)

// SnapshotRepository persists whole-collection snapshots under a fixed key.
// Save replaces any prior snapshot stored under the same key.
type SnapshotRepository interface {
	// Load returns the latest snapshot for key, or ErrNotFound if none was saved.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
