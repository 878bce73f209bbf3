package store

import "errors"

// Sentinel kinds for event store errors.
var (
	// ErrUnavailable marks a backend failure. It is never used for an
	// empty result set.
	ErrUnavailable = errors.New("event store unavailable")

	ErrInvalidEvent = errors.New("invalid event")
)
