package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/app"
	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/logging"
)

// cli carries the loaded configuration between the root command and its
// subcommands.
type cli struct {
	envFile   string
	dbPath    string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "chorechart",
		Short:         "Household chore chart with recurring chores and completion history",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = c.dbPath
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = c.logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = c.logFormat
			}
			c.cfg = cfg
			c.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", ".env", "file to preload environment variables from")
	pf.StringVar(&c.dbPath, "db", "", "path to the SQLite database (overrides CHORECHART_DB_PATH)")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides CHORECHART_LOG_LEVEL)")
	pf.StringVar(&c.logFormat, "log-format", "", "text or json (overrides CHORECHART_LOG_FORMAT)")

	root.AddCommand(
		newServeCmd(c),
		newWeekCmd(c),
		newListCmd(c),
		newHistoryCmd(c),
		newPreviewCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newResetCmd(c),
		newBackupCmd(c),
		newBackupsCmd(c),
		newRestoreCmd(c),
	)
	return root
}

// open opens the database and builds the services. Callers close the app.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	a, err := app.Open(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.cfg.DBPath, err)
	}
	return a, nil
}

// passphrase prefers an explicit flag value over the configured default.
func (c *cli) passphrase(flag string) string {
	if flag != "" {
		return flag
	}
	return c.cfg.BackupPassphrase
}
