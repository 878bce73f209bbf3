// Package store defines the event store interface and errors.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/pkg/metrics"
)

// In-memory Store implementation.
//
// Ordering: events are kept sorted by OccurredAt ascending so a window
// query only scans the slice segment bounded by two binary searches.
// Every query re-aggregates from the raw events; there is no
// materialized ranking to keep consistent, which keeps reads and the
// append path independent of each other beyond the lock.

// MemStore implements Store with a mutex-guarded, time-ordered slice.
type MemStore struct {
	mu     sync.RWMutex
	events []model.Event
}

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithInitialCapacity preallocates space for the event slice.
func WithInitialCapacity(n int) MemOption {
	return func(s *MemStore) {
		if n > 0 {
			s.events = make([]model.Event, 0, n)
		}
	}
}

// NewMemStore creates an empty in-memory event store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records one event, keeping the slice ordered by OccurredAt.
func (s *MemStore) Append(ctx context.Context, e model.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if e.MemberID == "" {
		return fmt.Errorf("%w: missing member id", ErrInvalidEvent)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Common case: append-only arrival order.
	if n := len(s.events); n == 0 || !e.OccurredAt.Before(s.events[n-1].OccurredAt) {
		s.events = append(s.events, e)
	} else {
		i := sort.Search(len(s.events), func(i int) bool {
			return s.events[i].OccurredAt.After(e.OccurredAt)
		})
		s.events = append(s.events, model.Event{})
		copy(s.events[i+1:], s.events[i:])
		s.events[i] = e
	}

	metrics.UpdateStoredEvents(len(s.events))
	return nil
}

// SumRange returns the summed amount over the filtered range.
func (s *MemStore) SumRange(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	s.scan(f, func(e model.Event) {
		total += e.Amount
	})
	return total, nil
}

// GroupedSumRange returns per-member totals over the filtered range.
func (s *MemStore) GroupedSumRange(ctx context.Context, f Filter) ([]model.AggregateRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	s.scan(f, func(e model.Event) {
		totals[e.MemberID] += e.Amount
	})

	rows := make([]model.AggregateRow, 0, len(totals))
	for member, total := range totals {
		rows = append(rows, model.AggregateRow{MemberID: member, Total: total})
	}
	return rows, nil
}

// Count returns the number of stored events.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// scan visits every event matching f. Must be called with the lock held.
func (s *MemStore) scan(f Filter, visit func(model.Event)) {
	lo, hi := 0, len(s.events)
	if !f.Window.Start.IsZero() || !f.Window.End.IsZero() {
		lo = sort.Search(len(s.events), func(i int) bool {
			return !s.events[i].OccurredAt.Before(f.Window.Start)
		})
		hi = sort.Search(len(s.events), func(i int) bool {
			return !s.events[i].OccurredAt.Before(f.Window.End)
		})
	}
	for _, e := range s.events[lo:hi] {
		if f.GuildID != "" && e.GuildID != f.GuildID {
			continue
		}
		if f.MemberID != "" && e.MemberID != f.MemberID {
			continue
		}
		visit(e)
	}
}
