package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/ai-interviewer/internal/repository/storetest"
)

func TestSessionRepository(t *testing.T) {
	repo, err := NewSessionRepository(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	storetest.Run(t, repo)
}

func TestSessionRepository_InvalidIDs(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSessionRepository(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", ".", "..", "../escape", `a\b`} {
		t.Run(id, func(t *testing.T) {
			_, err := repo.Load(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidSessionID)

			assert.ErrorIs(t, repo.Save(ctx, storetest.Fixture(id)), ErrInvalidSessionID)
		})
	}
}

func TestSessionRepository_ListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewSessionRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, storetest.Fixture("s1")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o750))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}
