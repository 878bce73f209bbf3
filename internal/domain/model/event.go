// Package model contains domain models passed between layers.
package model

import "time"

// Event is one immutable contribution fact: a member logged an amount
// at an instant. Events are only ever appended; corrections are out of
// scope for the core.
type Event struct {
	EventID    string    // unique id for idempotency
	GuildID    string    // community the contribution belongs to
	MemberID   string    // subject/member identifier
	Amount     int64     // contribution amount
	OccurredAt time.Time // event timestamp
}

// AggregateRow is one member's summed contribution total within a window.
type AggregateRow struct {
	MemberID string
	Total    int64
}
