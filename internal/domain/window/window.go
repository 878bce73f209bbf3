// Package window computes the half-open time ranges that scope every
// aggregation query. A "day" does not start at midnight: it starts at a
// configurable rollover hour, so late-night activity counts toward the
// previous day.
package window

import (
	"fmt"
	"strings"
	"time"
)

// Default rollover configuration constants.
const (
	// DefaultRolloverHour is the hour-of-day at which a new day begins.
	DefaultRolloverHour = 4

	minRolloverHour = 0
	maxRolloverHour = 23

	daysPerWeek = 7
)

// Period selects which window a query covers.
type Period string

// Supported periods.
const (
	Today   Period = "today"
	Week    Period = "week"
	AllTime Period = "all"
)

// Parse converts a string into a Period. Unknown values are rejected;
// there is deliberately no fallback to a default window.
func Parse(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Today):
		return Today, nil
	case string(Week), "this_week":
		return Week, nil
	case string(AllTime), "all_time", "alltime":
		return AllTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Window is a half-open instant range [Start, End). Start is inclusive,
// End exclusive. Windows are computed fresh per query and never stored.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Calculator produces windows for a fixed rollover hour.
type Calculator struct {
	rolloverHour int
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRolloverHour sets the hour-of-day (0-23) at which a day begins.
func WithRolloverHour(hour int) Option {
	return func(c *Calculator) {
		if hour >= minRolloverHour && hour <= maxRolloverHour {
			c.rolloverHour = hour
		}
	}
}

// NewCalculator creates a Calculator with the default rollover hour
// unless overridden by options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{rolloverHour: DefaultRolloverHour}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RolloverHour returns the configured rollover hour.
func (c *Calculator) RolloverHour() int {
	return c.rolloverHour
}

// For computes the window for a period relative to now. The calculation
// is pure: identical inputs always yield an identical window. End is
// always now.
func (c *Calculator) For(period Period, now time.Time) (Window, error) {
	switch period {
	case Today:
		return Window{Start: c.dayStart(now), End: now}, nil
	case Week:
		return Window{Start: c.weekStart(now), End: now}, nil
	case AllTime:
		// Epoch floor: the earliest instant the store can contain.
		return Window{Start: time.Unix(0, 0).UTC(), End: now}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
}

// effectiveDate returns the calendar date the instant belongs to under
// the rollover rule: an instant before the rollover hour belongs to the
// previous date. An instant exactly at rollover belongs to the new day.
func (c *Calculator) effectiveDate(now time.Time) time.Time {
	d := now
	if now.Hour() < c.rolloverHour {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// dayStart returns the rollover instant opening the effective day.
func (c *Calculator) dayStart(now time.Time) time.Time {
	d := c.effectiveDate(now)
	return time.Date(d.Year(), d.Month(), d.Day(), c.rolloverHour, 0, 0, 0, now.Location())
}

// weekStart returns the rollover instant of the most recent Sunday on
// or before the effective date. Weeks always start on Sunday.
func (c *Calculator) weekStart(now time.Time) time.Time {
	d := c.effectiveDate(now)
	back := int(d.Weekday()) % daysPerWeek
	d = d.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), c.rolloverHour, 0, 0, 0, now.Location())
}
