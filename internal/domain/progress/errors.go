package progress

import "errors"

// Sentinel kinds for progress errors.
var (
	ErrInvalidGoal = errors.New("goal must be greater than zero")
)
