// Package commands implements the finctl operator CLI.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"finboard/internal/cli"
	applog "finboard/internal/log"
)

type globalOptions struct {
	dbPath   string
	logLevel string
}

// NewRootCmd builds the command tree. Output goes to the command's out
// writer so tests can capture it.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "finctl",
		Short: "Operator tooling for finboard",
		Long: `finctl computes reports and insights from the finboard database or a
JSON export, and manages the SQLite schema.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
			if opts.dbPath == "" {
				opts.dbPath = envOr("SQLITE_DB_PATH", "./data/finboard.db")
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default $SQLITE_DB_PATH or ./data/finboard.db)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newReportCmd(opts))
	root.AddCommand(newInsightsCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	lvl := slog.LevelWarn
	if parsed, err := applog.ParseLevel(o.logLevel); err == nil {
		lvl = parsed
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
