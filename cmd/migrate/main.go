package main

import (
	"fmt"
	"os"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/logger"
	"github.com/Rrens/ai-interviewer/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var cfg *config.Config

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Postgres session schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			_, err = logger.Setup(cfg.Logging)
			return err
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Migrating database")
			return postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RollbackMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := postgres.MigrationVersion(cfg.Database.DSN(), cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}
