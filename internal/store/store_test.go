package store

import (
	"alcyxob/trainerscribe/internal/repository"
	"alcyxob/trainerscribe/internal/repository/file"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out a fixed instant that tests can move.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newMemoryRepository(t *testing.T) repository.SnapshotRepository {
	t.Helper()
	repo, err := file.NewFileSnapshotRepository(afero.NewMemMapFs(), "/snapshots")
	require.NoError(t, err)
	return repo
}

// flakyRepository fails every Save while broken is set.
type flakyRepository struct {
	repository.SnapshotRepository
	broken bool
}

func (r *flakyRepository) Save(ctx context.Context, key string, data []byte) error {
	if r.broken {
		return errors.New("disk full")
	}
	return r.SnapshotRepository.Save(ctx, key, data)
}
