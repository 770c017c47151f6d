package report

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/types"
)

// StatsSource aggregates the click history.
type StatsSource interface {
	ClickStats(ctx context.Context, rng types.Range) (model.ClickReport, error)
	GlobalClicks(ctx context.Context) (model.GlobalCounts, error)
}

// CatalogSource resolves tool ids to display names.
type CatalogSource interface {
	PublishedTools(ctx context.Context) ([]model.Tool, error)
}

// Build collects everything one dashboard rendering needs.
func Build(ctx context.Context, stats StatsSource, catalog CatalogSource, rng types.Range, now time.Time) (Dashboard, error) {
	rep, err := stats.ClickStats(ctx, rng)
	if err != nil {
		return Dashboard{}, fmt.Errorf("click stats: %w", err)
	}
	global, err := stats.GlobalClicks(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("global clicks: %w", err)
	}
	tools, err := catalog.PublishedTools(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("catalog: %w", err)
	}

	names := make(map[string]string, len(tools))
	for _, t := range tools {
		names[t.ID] = t.Name
	}
	return Dashboard{Report: rep, Global: global, Names: names, GeneratedAt: now}, nil
}
