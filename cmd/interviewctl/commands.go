package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/export"
	"github.com/Rrens/ai-interviewer/internal/repository"
	"github.com/Rrens/ai-interviewer/internal/security"
	"github.com/Rrens/ai-interviewer/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	cfg        *config.Config
	stores     *repository.Stores
	interviews *service.InterviewService
}

func (a *app) close() {
	if a.stores != nil {
		a.stores.Close()
	}
}

func newRootCommand(a *app) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "interviewctl",
		Short:         "Inspect, export and administer interview sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)

			var err error
			if configPath != "" {
				a.cfg, err = config.LoadFile(configPath)
			} else {
				a.cfg, err = config.Load()
			}
			return err
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.yaml)")

	root.AddCommand(
		newInterviewsCommand(a),
		newSessionsCommand(a),
		newExportCommand(a),
		newTokenCommand(a),
	)
	return root
}

// open connects the configured store lazily so that token minting works
// without one
func (a *app) open(ctx context.Context) error {
	if a.interviews != nil {
		return nil
	}

	plans, err := service.NewPlanCatalog(a.cfg.Interviews)
	if err != nil {
		return err
	}
	stores, err := repository.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.stores = stores
	a.interviews = service.NewInterviewService(stores.Sessions, nil, plans)
	return nil
}

func newInterviewsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interviews",
		Short: "List configured interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := service.NewPlanCatalog(a.cfg.Interviews)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTOPICS")
			for _, info := range plans.Interviews() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", info.ID, info.Name, info.Topics)
			}
			return tw.Flush()
		},
	}
}

func newSessionsCommand(a *app) *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored sessions",
	}

	sessions.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every session id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			ids, err := a.interviews.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	sessions.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one session document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			session, err := a.interviews.Load(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(session)
		},
	})

	sessions.AddCommand(&cobra.Command{
		Use:   "delete <session-id>...",
		Short: "Delete sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			for _, id := range args {
				if err := a.interviews.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	})

	return sessions
}

func newExportCommand(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every transcript in long form",
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			rows, err := a.interviews.Export(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := exporter.Export(rows, w); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newTokenCommand(a *app) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for the HTTP admin routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = a.cfg.Auth.AdminTokenTTL
			}
			token, expiresAt, err := security.NewJWTManager(a.cfg.Auth.JWTSecret, ttl).GenerateAdminToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.admin_token_ttl)")
	return cmd
}
