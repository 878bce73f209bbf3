// Package store defines the event store interface and errors.
package store

import (
	"context"

	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/internal/domain/window"
)

// Filter scopes a range query. The zero value matches every event; a
// set GuildID or MemberID narrows the match, and a non-zero Window
// restricts events to [Start, End).
type Filter struct {
	GuildID  string
	MemberID string
	Window   window.Window
}

// Store provides append and range-aggregation access to the event log.
// Absence of matching events is a valid zero result, never an error;
// backend failures surface as ErrUnavailable.
type Store interface {
	// Append records one event. Events are immutable once appended.
	Append(ctx context.Context, e model.Event) error

	// SumRange returns the summed amount of all events matching the
	// filter, or 0 when nothing matches.
	SumRange(ctx context.Context, f Filter) (int64, error)

	// GroupedSumRange returns one row per distinct member with at least
	// one matching event. Rows carry no ordering guarantee; ranking is
	// the caller's job.
	GroupedSumRange(ctx context.Context, f Filter) ([]model.AggregateRow, error)

	// Count returns the number of events held by the store.
	Count(ctx context.Context) int
}
