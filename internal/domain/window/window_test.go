package window_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tallysvc/tally/internal/domain/window"
)

func TestParse(t *testing.T) {
	Convey("Given period strings", t, func() {
		Convey("When parsing known periods", func() {
			for s, want := range map[string]window.Period{
				"today":     window.Today,
				"week":      window.Week,
				"all":       window.AllTime,
				"TODAY":     window.Today,
				" week":     window.Week,
				"this_week": window.Week,
				"all_time":  window.AllTime,
			} {
				p, err := window.Parse(s)
				So(err, ShouldBeNil)
				So(p, ShouldEqual, want)
			}
		})

		Convey("When parsing unknown periods", func() {
			for _, s := range []string{"", "month", "yesterday", "weekly"} {
				_, err := window.Parse(s)
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, window.ErrInvalidPeriod)
			}
		})
	})
}

func TestCalculatorToday(t *testing.T) {
	Convey("Given a calculator with the default rollover hour", t, func() {
		calc := window.NewCalculator()

		Convey("When now is after the rollover hour", func() {
			now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
			w, err := calc.For(window.Today, now)

			Convey("Then the day starts at 04:00 of the same date", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 12, 4, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(w.End.Equal(now), ShouldBeTrue)
			})
		})

		Convey("When now is one hour before rollover", func() {
			now := time.Date(2025, 3, 12, 3, 0, 0, 0, time.UTC)
			w, err := calc.For(window.Today, now)

			Convey("Then the window starts on the previous date", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 11, 4, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When now is exactly the rollover instant", func() {
			now := time.Date(2025, 3, 12, 4, 0, 0, 0, time.UTC)
			w, err := calc.For(window.Today, now)

			Convey("Then it belongs to the new day", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(now), ShouldBeTrue)
				So(w.End.Equal(now), ShouldBeTrue)
			})
		})
	})

	Convey("Given a calculator with a custom rollover hour", t, func() {
		calc := window.NewCalculator(window.WithRolloverHour(6))

		Convey("When now is 05:59", func() {
			now := time.Date(2025, 3, 12, 5, 59, 0, 0, time.UTC)
			w, err := calc.For(window.Today, now)

			Convey("Then the previous date still owns the instant", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})
	})
}

func TestCalculatorWeek(t *testing.T) {
	Convey("Given a calculator with the default rollover hour", t, func() {
		calc := window.NewCalculator()

		Convey("When now is a Wednesday afternoon", func() {
			// 2025-03-12 is a Wednesday; the prior Sunday is 2025-03-09.
			now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
			w, err := calc.For(window.Week, now)

			Convey("Then the week starts on the prior Sunday at rollover", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 9, 4, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(w.Start.Weekday(), ShouldEqual, time.Sunday)
			})
		})

		Convey("When now is Sunday after rollover", func() {
			now := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
			w, err := calc.For(window.Week, now)

			Convey("Then the week starts that same Sunday", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 9, 4, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When now is Sunday before rollover", func() {
			now := time.Date(2025, 3, 9, 2, 0, 0, 0, time.UTC)
			w, err := calc.For(window.Week, now)

			Convey("Then the effective date is Saturday and the week is the prior one", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Date(2025, 3, 2, 4, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When comparing week and today windows", func() {
			now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
			wk, errWeek := calc.For(window.Week, now)
			day, errDay := calc.For(window.Today, now)

			Convey("Then week start <= today start <= now", func() {
				So(errWeek, ShouldBeNil)
				So(errDay, ShouldBeNil)
				So(wk.Start.After(day.Start), ShouldBeFalse)
				So(day.Start.After(now), ShouldBeFalse)
			})
		})
	})
}

func TestCalculatorAllTime(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := window.NewCalculator()
		now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

		Convey("When computing the all-time window", func() {
			w, err := calc.For(window.AllTime, now)

			Convey("Then it spans from the epoch floor to now", func() {
				So(err, ShouldBeNil)
				So(w.Start.Equal(time.Unix(0, 0).UTC()), ShouldBeTrue)
				So(w.End.Equal(now), ShouldBeTrue)
			})
		})

		Convey("When asking for an unknown period", func() {
			_, err := calc.For(window.Period("month"), now)

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, window.ErrInvalidPeriod)
			})
		})
	})
}

func TestWindowContains(t *testing.T) {
	Convey("Given a half-open window", t, func() {
		w := window.Window{
			Start: time.Date(2025, 3, 12, 4, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 12, 16, 0, 0, 0, time.UTC),
		}

		Convey("Then the start is inclusive and the end exclusive", func() {
			So(w.Contains(w.Start), ShouldBeTrue)
			So(w.Contains(w.End), ShouldBeFalse)
			So(w.Contains(w.Start.Add(time.Hour)), ShouldBeTrue)
			So(w.Contains(w.Start.Add(-time.Nanosecond)), ShouldBeFalse)
		})
	})
}
