// Package progress renders a (total, goal) pair as a quantized bar and
// classifies how the group stands against the goal.
package progress

import (
	"math"
	"strings"
)

// Default rendering configuration constants.
const (
	// DefaultSegments is the number of buckets in a rendered bar.
	DefaultSegments = 10

	// MaxSegments bounds the bucket count. Buckets cover whole
	// percentage points, so more than 100 would make a bucket zero
	// points wide.
	MaxSegments = 100

	percentScale = 100
)

// Glyphs used to draw the bar. The partial glyph is picked from the
// remainder inside the current bucket.
const (
	glyphFull    = "⬛"
	glyphGoalMet = "🟨"
	glyphLarge   = "◼️"
	glyphMedium  = "◾"
	glyphSmall   = "▪️"
	glyphEmpty   = "▫️"
)

// Status classifies a total against a goal.
type Status string

// Possible statuses.
const (
	StatusUnder Status = "under"
	StatusAt    Status = "at"
	StatusOver  Status = "over"
)

// Result carries the rendered bar plus everything a caller needs to
// present goal progress.
type Result struct {
	Total   int64   `json:"total"`
	Goal    float64 `json:"goal"`
	Percent int     `json:"percent"`
	Bar     string  `json:"bar"`
	Status  Status  `json:"status"`
	// OvershootPercent is round(total/goal*100), set only when Status
	// is over.
	OvershootPercent int `json:"overshoot_percent,omitempty"`
}

// Renderer draws progress bars with a fixed segment count.
type Renderer struct {
	segments int
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSegments sets the number of buckets in the bar. Values outside
// [1, MaxSegments] are ignored and the default is kept.
func WithSegments(n int) Option {
	return func(r *Renderer) {
		if n > 0 && n <= MaxSegments {
			r.segments = n
		}
	}
}

// NewRenderer creates a Renderer with default configuration.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{segments: DefaultSegments}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render quantizes total/goal into the configured segments. A goal of
// zero or less is rejected up front, never divided. Pure, no I/O.
func (r *Renderer) Render(total int64, goal float64) (Result, error) {
	if goal <= 0 {
		return Result{}, ErrInvalidGoal
	}

	ratio := float64(total) / goal
	percent := int(math.Floor(ratio * percentScale))

	res := Result{
		Total:   total,
		Goal:    goal,
		Percent: percent,
		Status:  classify(total, goal),
	}
	if res.Status == StatusOver {
		res.OvershootPercent = int(math.Round(ratio * percentScale))
	}

	var b strings.Builder

	// Goal met or exceeded: the whole bar becomes the goal-met glyph,
	// no partial or empty segments follow.
	if percent >= percentScale {
		for i := 0; i < r.segments; i++ {
			b.WriteString(glyphGoalMet)
		}
		res.Bar = b.String()
		return res, nil
	}

	// Each bucket covers 100/segments percentage points (10 at the
	// default). The remainder inside the current bucket picks the one
	// partial glyph.
	step := percentScale / r.segments
	filled := percent / step
	remainder := percent % step
	drawn := filled

	for i := 0; i < filled; i++ {
		b.WriteString(glyphFull)
	}
	switch {
	case remainder > step/2:
		b.WriteString(glyphLarge)
		drawn++
	case remainder == step/2 && remainder != 0:
		b.WriteString(glyphMedium)
		drawn++
	case remainder > 0:
		b.WriteString(glyphSmall)
		drawn++
	}
	for i := drawn; i < r.segments; i++ {
		b.WriteString(glyphEmpty)
	}

	res.Bar = b.String()
	return res, nil
}

// classify returns at iff the total equals the goal rounded to an
// integer, over iff it exceeds the goal, under otherwise.
func classify(total int64, goal float64) Status {
	switch {
	case total == int64(math.Round(goal)):
		return StatusAt
	case float64(total) > goal:
		return StatusOver
	default:
		return StatusUnder
	}
}
