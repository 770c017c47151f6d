package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/toolscout/internal/adapters/repository"
	"github.com/okian/toolscout/internal/config"
	"github.com/okian/toolscout/pkg/logger"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolscout",
		Short: "AI tools directory: quiz matching, related posts and click stats",
		Long: `toolscout serves the quiz matcher, the related-content ranker and the
click dashboard over HTTP, and renders click reports from the stored history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "YAML config file (overrides TOOLSCOUT_CONFIG)")
	cmd.PersistentFlags().String("db", "", "SQLite database path (overrides db_path)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the persistent flags over config.Load and configures
// the global logger from the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// openStore opens the SQLite store at path, or an in-memory store when path
// is empty.
func openStore(ctx context.Context, path string) (repository.Store, error) {
	if path == "" {
		logger.Get().Warn(ctx, "no db_path configured; using a volatile in-memory store")
		return repository.NewMemoryStore(), nil
	}
	st, err := repository.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Get().Info(ctx, "using sqlite store", logger.String("path", path))
	return st, nil
}
