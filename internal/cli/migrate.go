package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres"
	"github.com/heartmarshall/salesdesk-backend/internal/app"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
)

// MigrateCmd returns the migrate command.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the embedded goose migrations to the configured PostgreSQL database.
Other store backends keep no schema, so there is nothing to apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cfg.Store.Backend != config.BackendPostgres {
				fmt.Fprintf(out, "%s store backend %q has no schema\n", color.New(color.FgYellow).Sprint("SKIP"), cfg.Store.Backend)
				return nil
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(ctx, pool, app.NewLogger(cfg.Log)); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s migrations applied\n", color.New(color.FgGreen).Sprint("OK"))
			return nil
		},
	}
}

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion())
		},
	}
}
