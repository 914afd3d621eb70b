package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// RunMigrations applies every pending up migration from sourceURL
func RunMigrations(dsn string, sourceURL string) error {
	m, err := newMigrate(dsn, sourceURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("Database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	log.Info().Msg("Database migration: success")
	return nil
}

// RollbackMigrations reverts the given number of migrations
func RollbackMigrations(dsn string, sourceURL string, steps int) error {
	m, err := newMigrate(dsn, sourceURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back %d migrations: %w", steps, err)
	}

	log.Info().Int("steps", steps).Msg("Database migration: rolled back")
	return nil
}

// MigrationVersion reports the applied schema version
func MigrationVersion(dsn string, sourceURL string) (uint, bool, error) {
	m, err := newMigrate(dsn, sourceURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(dsn, sourceURL string) (*migrate.Migrate, error) {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
