package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/toolscout/internal/adapters/http/api"
	"github.com/okian/toolscout/internal/adapters/http/swagger"
	"github.com/okian/toolscout/internal/adapters/subscribe"
	app "github.com/okian/toolscout/internal/app"
	"github.com/okian/toolscout/internal/config"
	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/internal/report"
	"github.com/okian/toolscout/pkg/logger"
	"github.com/okian/toolscout/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve starts the HTTP API together with the click ingestion workers.

Routes:
  POST /quiz               questionnaire -> up to 3 recommendations
  GET  /related/{slug}     up to 3 related posts
  POST /clicks             record a click
  GET  /clicks/stats       per-tool click buckets (?range=all|7d|30d|month)
  GET  /clicks/global      ungrouped click counters
  GET  /stats              service statistics
  GET  /healthz            Prometheus metrics
  GET  /api-docs           API reference

SIGINT or SIGTERM drains the click queue and stops the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
			}
			return serve(ctx, cfg, ln)
		},
	}
}

// serve runs until ctx is done, then shuts everything down in order: stop
// accepting requests, drain the click queue, close the store.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	log := logger.Get()

	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	notifier := subscribe.NewHTTPNotifier(cfg.SubscribeURL,
		subscribe.WithTimeout(time.Duration(cfg.SubscribeTimeoutMS)*time.Millisecond),
		subscribe.WithLogger(log.Named("subscribe")),
	)
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithNotifier(notifier),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}

	if cfg.ReportSchedule != "" {
		rng, _ := types.ParseRange(cfg.ReportRange)
		sched, err := report.NewScheduler(cfg.ReportSchedule, cfg.ReportPath, rng, svc, store,
			report.WithSchedulerLogger(log.Named("report")))
		if err != nil {
			_ = svc.Stop(ctx)
			_ = ln.Close()
			return err
		}
		sched.Start()
		log.Info(ctx, "dashboard snapshots enabled",
			logger.String("schedule", cfg.ReportSchedule), logger.String("path", cfg.ReportPath))
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = sched.Stop(stopCtx)
		}()
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		runServiceMetricsUpdater(gctx, svc)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// runSystemMetricsUpdater refreshes process gauges until ctx is done.
func runSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// runServiceMetricsUpdater polls the service so queue gauges stay fresh
// between requests.
func runServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if started, _ := stats["started"].(bool); !started {
				continue
			}
			if n, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(n)
			}
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
