// Package service provides the core business service that implements
// the dependencies required by the HTTP API: windowed aggregation,
// ranking, progress, and the asynchronous ingestion pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	eventqueue "github.com/tallysvc/tally/internal/adapters/mq/queue"
	workerpool "github.com/tallysvc/tally/internal/adapters/mq/worker"
	"github.com/tallysvc/tally/internal/adapters/store"
	"github.com/tallysvc/tally/internal/domain/board"
	"github.com/tallysvc/tally/internal/domain/dedupe"
	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/internal/domain/progress"
	"github.com/tallysvc/tally/internal/domain/window"
	"github.com/tallysvc/tally/pkg/logger"
	"github.com/tallysvc/tally/pkg/metrics"
)

// Service implements the aggregation and ingestion surface of the
// contribution tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	events   store.Store
	windows  *window.Calculator
	renderer *progress.Renderer
	deduper  dedupe.Deduper
	queue    eventqueue.Queue
	workers  *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	rolloverHour int
	defaultLimit int
	segments     int

	// now is swappable for deterministic window tests.
	now func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the event store backend. Defaults to the in-memory
// store when unset.
func WithStore(s store.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.events = s
		}
	}
}

// WithWorkerCount sets the number of append workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRolloverHour sets the hour-of-day at which a day begins.
func WithRolloverHour(hour int) Option {
	return func(s *Service) {
		if hour >= 0 && hour <= 23 {
			s.rolloverHour = hour
		}
	}
}

// WithDefaultLimit sets the leaderboard size used when a caller asks
// for zero or fewer entries.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithSegments sets the number of buckets in rendered progress bars.
func WithSegments(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= progress.MaxSegments {
			s.segments = n
		}
	}
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    100_000,
		dedupeSize:   500_000,
		rolloverHour: window.DefaultRolloverHour,
		defaultLimit: 10,
		segments:     progress.DefaultSegments,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tally service...")

	if s.events == nil {
		s.events = store.NewMemStore()
		s.logger.Info(ctx, "using in-memory event store")
	}
	s.windows = window.NewCalculator(window.WithRolloverHour(s.rolloverHour))
	s.renderer = progress.NewRenderer(progress.WithSegments(s.segments))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.workers = workerpool.NewPool(s.workerCount, s.queue, s.events)
	s.workers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tally service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("rolloverHour", s.rolloverHour),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tally service...")

	// Shutdown closes the queue and lets workers drain remaining events
	// before they exit.
	if s.workers != nil {
		_ = s.workers.Shutdown(ctx)
	}
	if closer, ok := s.events.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "tally service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records
// it if not. Returns true if the event was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Submit enqueues an event for asynchronous persistence. Returns false
// on backpressure.
func (s *Service) Submit(ctx context.Context, e model.Event) bool {
	if e.MemberID == "" || e.OccurredAt.IsZero() {
		metrics.RecordEventRejected()
		s.logger.Warn(ctx, "rejected malformed event",
			logger.String("eventID", e.EventID),
			logger.String("memberID", e.MemberID),
		)
		return false
	}

	s.logger.Debug(ctx, "enqueueing event",
		logger.String("eventID", e.EventID),
		logger.String("memberID", e.MemberID),
		logger.Int64("amount", e.Amount),
	)
	return s.queue.Enqueue(ctx, e)
}

// Leaderboard returns the built leaderboard for a period. An empty
// candidate set surfaces as board.ErrNoData; limit <= 0 falls back to
// the configured default.
func (s *Service) Leaderboard(ctx context.Context, period window.Period, guildID string, limit int) (board.Result, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	metrics.RecordQuery("leaderboard", string(period))

	rows, err := s.rank(ctx, period, guildID, limit)
	if err != nil {
		return board.Result{}, err
	}
	res, err := board.Build(rows)
	if errors.Is(err, board.ErrNoData) {
		metrics.RecordEmptyResult()
	}
	return res, err
}

// Progress renders goal progress over a period. The goal is always
// caller-supplied; pro-rating a weekly goal down to a day is the
// caller's business. A positive segments overrides the configured bar
// width for this call; zero keeps the service default.
func (s *Service) Progress(ctx context.Context, period window.Period, guildID string, goal float64, segments int) (progress.Result, error) {
	if goal <= 0 {
		return progress.Result{}, progress.ErrInvalidGoal
	}
	metrics.RecordQuery("progress", string(period))

	w, err := s.windows.For(period, s.now())
	if err != nil {
		return progress.Result{}, err
	}
	total, err := s.events.SumRange(ctx, store.Filter{GuildID: guildID, Window: w})
	if err != nil {
		metrics.RecordAggregationError()
		return progress.Result{}, fmt.Errorf("progress total: %w", err)
	}

	r := s.renderer
	if segments > 0 && segments != s.segments {
		r = progress.NewRenderer(progress.WithSegments(segments))
	}
	return r.Render(total, goal)
}

// Total returns the summed contribution amount for a period,
// optionally narrowed to one member. Zero with no error means no
// matching events.
func (s *Service) Total(ctx context.Context, period window.Period, guildID, memberID string) (int64, error) {
	metrics.RecordQuery("total", string(period))

	w, err := s.windows.For(period, s.now())
	if err != nil {
		return 0, err
	}
	total, err := s.events.SumRange(ctx, store.Filter{GuildID: guildID, MemberID: memberID, Window: w})
	if err != nil {
		metrics.RecordAggregationError()
		return 0, fmt.Errorf("total: %w", err)
	}
	return total, nil
}

// rank aggregates, orders and truncates the per-member totals for a
// window. Ordering is total descending with ties broken by ascending
// member id, so equal totals always come back in the same order.
// Truncation happens after sorting: ranking must see the full
// candidate set first.
func (s *Service) rank(ctx context.Context, period window.Period, guildID string, limit int) ([]model.AggregateRow, error) {
	w, err := s.windows.For(period, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.events.GroupedSumRange(ctx, store.Filter{GuildID: guildID, Window: w})
	if err != nil {
		metrics.RecordAggregationError()
		return nil, fmt.Errorf("rank: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].MemberID < rows[j].MemberID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"rolloverHour": s.rolloverHour,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		storedEvents := s.events.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedEvents"] = storedEvents

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredEvents(storedEvents)
	}

	return stats
}
