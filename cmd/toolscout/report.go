package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/toolscout/internal/app"
	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the click dashboard as Markdown",
		Long: `Report aggregates the stored click history and renders the dashboard:
per-tool buckets for the chosen range plus the global counters.`,
		Example: `  toolscout report --db data/toolscout.db --range 7d
  toolscout report --db data/toolscout.db --out clicks.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("report needs a database: set --db or db_path")
			}
			rngFlag, _ := cmd.Flags().GetString("range")
			rng, err := types.ParseRange(rngFlag)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			// Aggregation reads the store directly; no workers are needed.
			svc := app.New(app.WithStore(store))
			d, err := report.Build(ctx, svc, store, rng, time.Now())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // user-provided output path
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			return report.NewMarkdownWriter(w).Write(d)
		},
	}
	cmd.Flags().StringP("range", "r", string(types.RangeAll), "Range selector: all, 7d, 30d or month")
	cmd.Flags().StringP("out", "o", "", "Write the report to a file instead of stdout")
	return cmd
}
