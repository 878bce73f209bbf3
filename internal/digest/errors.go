package digest

import "errors"

// ErrInvalidTime reports a malformed schedule time.
var ErrInvalidTime = errors.New("invalid schedule time")
