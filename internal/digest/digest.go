// Package digest produces scheduled leaderboard summaries. At each
// configured wall-clock time it reads the day's standings and goal
// progress and hands them to a notifier.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tallysvc/tally/internal/domain/board"
	"github.com/tallysvc/tally/internal/domain/progress"
	"github.com/tallysvc/tally/internal/domain/window"
	"github.com/tallysvc/tally/pkg/logger"
	"github.com/tallysvc/tally/pkg/metrics"
)

// Default digest configuration constants.
const (
	defaultGoal  = 100
	defaultLimit = 10
)

// Reader provides the aggregates a digest is built from.
type Reader interface {
	Leaderboard(ctx context.Context, period window.Period, guildID string, limit int) (board.Result, error)
	Progress(ctx context.Context, period window.Period, guildID string, goal float64, segments int) (progress.Result, error)
}

// Digest is one generated summary.
type Digest struct {
	GuildID     string          `json:"guild_id"`
	Period      window.Period   `json:"period"`
	Board       board.Result    `json:"board"`
	Progress    progress.Result `json:"progress"`
	Empty       bool            `json:"empty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Notifier delivers a generated digest somewhere.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// timeOfDay is a wall-clock firing time.
type timeOfDay struct {
	hour   int
	minute int
}

// parseTimeOfDay parses an "HH:MM" string.
func parseTimeOfDay(s string) (timeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return timeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return timeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return timeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return timeOfDay{hour: hour, minute: minute}, nil
}

// Scheduler fires digests at fixed times of day.
type Scheduler struct {
	reader   Reader
	notifier Notifier
	guildID  string
	times    []timeOfDay
	goal     float64
	limit    int

	now func() time.Time

	stop chan struct{}
	done chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithNotifier sets the delivery target. Defaults to logging digests.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithGoal sets the goal the progress section is rendered against.
func WithGoal(goal float64) Option {
	return func(s *Scheduler) {
		if goal > 0 {
			s.goal = goal
		}
	}
}

// WithLimit sets how many leaderboard entries a digest includes.
func WithLimit(limit int) Option {
	return func(s *Scheduler) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler firing at the given "HH:MM" times.
func NewScheduler(reader Reader, guildID string, times []string, opts ...Option) (*Scheduler, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no times configured", ErrInvalidTime)
	}
	parsed := make([]timeOfDay, 0, len(times))
	for _, raw := range times {
		t, err := parseTimeOfDay(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	}

	s := &Scheduler{
		reader:  reader,
		guildID: guildID,
		times:   parsed,
		goal:    defaultGoal,
		limit:   defaultLimit,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger.Get().Named("digest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = &logNotifier{logger: s.logger}
	}
	return s, nil
}

// NextRun returns the next firing instant strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	var next time.Time
	for _, t := range s.times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		now := s.now()
		next := s.NextRun(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error(ctx, "digest failed", logger.Error(err))
			}
		}
	}
}

// RunOnce generates and delivers a single digest for today's window.
// An empty window still produces a digest; readers want to know a quiet
// day was quiet.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	d := Digest{
		GuildID:     s.guildID,
		Period:      window.Today,
		GeneratedAt: s.now(),
	}

	res, err := s.reader.Leaderboard(ctx, window.Today, s.guildID, s.limit)
	switch {
	case errors.Is(err, board.ErrNoData):
		d.Empty = true
	case err != nil:
		metrics.RecordDigestError()
		return fmt.Errorf("digest leaderboard: %w", err)
	default:
		d.Board = res
	}

	prog, err := s.reader.Progress(ctx, window.Today, s.guildID, s.goal, 0)
	if err != nil {
		metrics.RecordDigestError()
		return fmt.Errorf("digest progress: %w", err)
	}
	d.Progress = prog

	if err := s.notifier.Notify(ctx, d); err != nil {
		metrics.RecordDigestError()
		return fmt.Errorf("digest notify: %w", err)
	}
	metrics.RecordDigestRun()
	return nil
}

// logNotifier is the fallback delivery target.
type logNotifier struct {
	logger logger.Logger
}

func (n *logNotifier) Notify(ctx context.Context, d Digest) error {
	if d.Empty {
		n.logger.Info(ctx, "digest: no contributions in window",
			logger.String("guildID", d.GuildID),
		)
		return nil
	}
	n.logger.Info(ctx, "digest",
		logger.String("guildID", d.GuildID),
		logger.String("winner", d.Board.Winner.MemberID),
		logger.Int64("winnerTotal", d.Board.Winner.Total),
		logger.Int("percent", d.Progress.Percent),
		logger.String("bar", d.Progress.Bar),
	)
	return nil
}
