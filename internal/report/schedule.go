package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/pkg/logger"
)

const snapshotTimeout = 30 * time.Second

// Scheduler periodically writes a dashboard snapshot to a file.
type Scheduler struct {
	cron    *cron.Cron
	stats   StatsSource
	catalog CatalogSource
	rng     types.Range
	path    string
	log     logger.Logger
	now     func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger used for snapshot failures.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSchedulerClock overrides time.Now for GeneratedAt.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler parses spec (standard five-field cron) and registers the
// snapshot job. Nothing runs until Start.
func NewScheduler(spec, path string, rng types.Range, stats StatsSource, catalog CatalogSource, opts ...SchedulerOption) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		stats:   stats,
		catalog: catalog,
		rng:     rng,
		path:    path,
		log:     logger.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running snapshot to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := s.Snapshot(ctx); err != nil {
		s.log.Error(ctx, "dashboard snapshot failed", logger.String("path", s.path), logger.Error(err))
		return
	}
	s.log.Debug(ctx, "dashboard snapshot written", logger.String("path", s.path))
}

// Snapshot renders the dashboard once. The file is replaced atomically so
// readers never see a partial report.
func (s *Scheduler) Snapshot(ctx context.Context) error {
	d, err := Build(ctx, s.stats, s.catalog, s.rng, s.now())
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dashboard-*.md")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := NewMarkdownWriter(tmp).Write(d); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("render dashboard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
