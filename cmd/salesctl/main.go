package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/salesdesk-backend/internal/app"
	"github.com/heartmarshall/salesdesk-backend/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "salesctl",
		Short:   "Operator tooling for the salesdesk backend",
		Version: app.BuildVersion(),
		Long: `salesctl runs maintenance tasks against the configured store:
schema migrations and the daily follow-up report.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.DueCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
