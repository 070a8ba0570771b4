package sqlite

import (
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestRepository(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSnapshotRepository_LoadMissing(t *testing.T) {
	repo := openTestRepository(t)

	_, err := repo.Load(context.Background(), repository.CustomersKey)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSnapshotRepository_SaveUpserts(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, repository.CustomersKey, []byte(`["first"]`)))
	require.NoError(t, repo.Save(ctx, repository.CustomersKey, []byte(`["second"]`)))
	require.NoError(t, repo.Save(ctx, repository.ProtocolsKey, []byte(`["protocol"]`)))

	got, err := repo.Load(ctx, repository.CustomersKey)
	require.NoError(t, err)
	require.Equal(t, `["second"]`, string(got))

	got, err = repo.Load(ctx, repository.ProtocolsKey)
	require.NoError(t, err)
	require.Equal(t, `["protocol"]`, string(got))
}

func TestSnapshotRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	repo, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, repository.ProtocolsKey, []byte(`[]`)))
	require.NoError(t, repo.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, repository.ProtocolsKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))
}
