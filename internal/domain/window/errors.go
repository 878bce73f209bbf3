package window

import "errors"

// Sentinel kinds for window errors.
var (
	ErrInvalidPeriod = errors.New("invalid period")
)
