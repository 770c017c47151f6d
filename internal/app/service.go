// Package service wires the stores, the ingestion pipeline and the scoring
// core behind the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/toolscout/internal/adapters/mq/queue"
	workerpool "github.com/okian/toolscout/internal/adapters/mq/worker"
	"github.com/okian/toolscout/internal/adapters/repository"
	"github.com/okian/toolscout/internal/adapters/subscribe"
	"github.com/okian/toolscout/internal/domain/clicks"
	"github.com/okian/toolscout/internal/domain/dedupe"
	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/related"
	"github.com/okian/toolscout/internal/domain/scoring"
	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/pkg/logger"
	"github.com/okian/toolscout/pkg/metrics"
)

// Clock supplies the current instant.
type Clock func() time.Time

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	notifier subscribe.Notifier
	matcher  *scoring.Matcher
	clock    Clock

	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	cancelRun  context.CancelFunc

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. The caller keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier sets where quiz submissions are forwarded.
func WithNotifier(n subscribe.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMatcher replaces the quiz matcher.
func WithMatcher(m *scoring.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithWorkerCount sets the number of click ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the click queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent click ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without WithStore it runs on an empty
// in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		store:       repository.NewMemoryStore(),
		matcher:     scoring.NewMatcher(),
		clock:       time.Now,
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.notifier == nil {
		s.notifier = subscribe.NewHTTPNotifier("", subscribe.WithLogger(s.logger))
	}
	return s
}

// Start builds the ingestion pipeline and starts the workers. The workers
// outlive ctx; they stop in Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	deduper := s.deduper
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store,
		workerpool.WithWorkerOptions(
			// A click that never reached the store may be sent again.
			workerpool.WithFailureHook(func(ev model.ClickEvent, _ error) {
				deduper.Unrecord(context.Background(), ev.EventID)
			}),
		),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRun = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the click queue and waits for pending subscription calls.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping service...")

	var firstErr error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("stop workers: %w", err)
	}
	s.cancelRun()

	if err := s.notifier.Wait(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop notifier: %w", err)
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
	return firstErr
}

// Recommend validates answers, ranks the published catalog and forwards the
// submission when an email is present. email overrides answers.Email.
func (s *Service) Recommend(ctx context.Context, answers model.QuizAnswers, email string) (model.QuizResult, error) {
	if err := answers.Validate(); err != nil {
		metrics.RecordQuizInvalid()
		return model.QuizResult{}, err
	}
	if email == "" {
		email = answers.Email
	}

	start := time.Now()
	catalog, err := s.store.PublishedTools(ctx)
	if err != nil {
		return model.QuizResult{}, fmt.Errorf("load catalog: %w", err)
	}
	metrics.UpdateCatalogSize(len(catalog))

	recs := s.matcher.Match(answers, catalog)
	metrics.RecordQuizMatch(len(recs))
	metrics.RecordOperationLatency("quiz_match", msSince(start))

	res := model.QuizResult{Recommendations: recs}
	res.SubmissionID = s.notifier.Notify(ctx, email, answers, recs)

	s.logger.Debug(ctx, "quiz matched",
		logger.String("goal", answers.Goal),
		logger.Int("catalog", len(catalog)),
		logger.Int("recommendations", len(recs)),
	)
	return res, nil
}

// Related returns up to three published posts related to slug.
func (s *Service) Related(ctx context.Context, slug string) ([]model.RelatedPost, error) {
	start := time.Now()
	target, err := s.store.PostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.PublishedPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	out := related.Rank(target, posts)
	metrics.RecordRelatedRanking()
	metrics.RecordOperationLatency("related_rank", msSince(start))
	return out, nil
}

// statsRequest pins the instant and windows of one dashboard query so every
// step of it agrees on "now".
type statsRequest struct {
	now   time.Time
	rng   types.Range
	since time.Time
}

func newStatsRequest(now time.Time, rng types.Range) statsRequest {
	req := statsRequest{now: now, rng: rng}
	if rng == types.RangeAll {
		return req
	}
	// Last-7-days and this-month are reported for every range, so fetch back
	// to the earliest of the three bounds.
	since := rng.Since(now)
	for _, b := range []time.Time{types.SevenDaysBefore(now), types.MonthStart(now)} {
		if b.Before(since) {
			since = b
		}
	}
	req.since = since
	return req
}

// ClickStats aggregates clicks for every published tool.
func (s *Service) ClickStats(ctx context.Context, rng types.Range) (model.ClickReport, error) {
	start := time.Now()
	req := newStatsRequest(s.clock(), rng)

	events, err := s.store.ClickEvents(ctx, req.since)
	if err != nil {
		return model.ClickReport{}, fmt.Errorf("load clicks: %w", err)
	}
	entities, err := s.store.EntityIDs(ctx)
	if err != nil {
		return model.ClickReport{}, fmt.Errorf("load entities: %w", err)
	}

	report := clicks.Aggregate(events, req.now, req.rng, entities)
	metrics.RecordClickAggregation(rng.String(), len(report.Entities))
	metrics.RecordOperationLatency("click_stats", msSince(start))
	return report, nil
}

// GlobalClicks counts every stored click without grouping.
func (s *Service) GlobalClicks(ctx context.Context) (model.GlobalCounts, error) {
	events, err := s.store.ClickEvents(ctx, time.Time{})
	if err != nil {
		return model.GlobalCounts{}, fmt.Errorf("load clicks: %w", err)
	}
	return clicks.Global(events, s.clock()), nil
}

// RecordClick accepts a click for asynchronous persistence. A blank eventID
// gets a fresh one and a zero at means now. Replayed event ids are
// acknowledged as duplicates and not stored again.
func (s *Service) RecordClick(ctx context.Context, eventID, entityID string, at time.Time) (model.ClickAck, error) {
	if entityID == "" {
		return model.ClickAck{}, fmt.Errorf("%w: entity_id is required", model.ErrInvalidClick)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.ClickAck{}, model.ErrNotStarted
	}

	if eventID == "" {
		eventID = uuid.NewString()
	}
	if at.IsZero() {
		at = s.clock()
	}
	ack := model.ClickAck{EventID: eventID}

	if s.deduper.SeenAndRecord(ctx, eventID) {
		metrics.RecordClickDuplicate()
		s.logger.Debug(ctx, "duplicate click", logger.String("eventID", eventID))
		ack.Duplicate = true
		return ack, nil
	}

	ev := model.ClickEvent{EventID: eventID, EntityID: entityID, OccurredAt: at}
	if !s.eventQueue.Enqueue(ctx, ev) {
		s.deduper.Unrecord(ctx, eventID)
		return model.ClickAck{}, model.ErrBackpressure
	}
	metrics.RecordClickIngested()
	return ack, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		queueLen := s.eventQueue.Len()
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["clicksPersisted"] = s.workerPool.Processed()
		stats["clicksFailed"] = s.workerPool.Failed()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
