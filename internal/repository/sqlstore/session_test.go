package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/ai-interviewer/internal/repository/storetest"
)

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "data", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	storetest.Run(t, repo)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	want := storetest.Fixture("persisted")
	require.NoError(t, repo.Save(ctx, want))
	require.NoError(t, repo.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMySQL(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}

	ctx := context.Background()
	repo, err := OpenMySQL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, repo.Delete(ctx, id))
	}

	storetest.Run(t, repo)
}
