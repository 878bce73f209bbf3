package board

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	// ErrNoData marks an empty candidate set. It is a distinct outcome,
	// not a failure: callers show a "no leaderboard data" message.
	ErrNoData = errors.New("no leaderboard data")
)
