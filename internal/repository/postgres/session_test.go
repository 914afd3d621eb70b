package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/repository/storetest"
)

// Integration test, needs a disposable database in POSTGRES_TEST_HOST
func TestSessionRepository(t *testing.T) {
	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASSWORD"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
	}

	require.NoError(t, RunMigrations(cfg.DSN(), "file://../../../migrations"))

	ctx := context.Background()
	db, err := NewDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Pool.Exec(ctx, `TRUNCATE interview_sessions`)
	require.NoError(t, err)

	storetest.Run(t, NewSessionRepository(db.Pool))
}
