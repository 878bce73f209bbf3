package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tallysvc/tally/internal/adapters/store"
	service "github.com/tallysvc/tally/internal/app"
	"github.com/tallysvc/tally/internal/domain/board"
	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/internal/domain/progress"
	"github.com/tallysvc/tally/internal/domain/window"
	"github.com/tallysvc/tally/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// testNow is well past the rollover hour so "today" starts on the same
// calendar date.
var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func newStartedService(t *testing.T, events store.Store, opts ...service.Option) *service.Service {
	t.Helper()

	opts = append([]service.Option{
		service.WithStore(events),
		service.WithClock(func() time.Time { return testNow }),
		service.WithWorkerCount(2),
	}, opts...)
	svc := service.New(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func appendEvents(t *testing.T, events store.Store, evts ...model.Event) {
	t.Helper()
	for _, e := range evts {
		if err := events.Append(context.Background(), e); err != nil {
			t.Fatalf("append event %s: %v", e.EventID, err)
		}
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithRolloverHour(6),
			service.WithDefaultLimit(5),
			service.WithSegments(20),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_SubmitAndDedupe(t *testing.T) {
	Convey("Given a started service", t, func() {
		events := store.NewMemStore()
		svc := newStartedService(t, events)
		ctx := context.Background()

		Convey("When submitting a valid event", func() {
			ok := svc.Submit(ctx, model.Event{
				EventID:    "evt-1",
				GuildID:    "g1",
				MemberID:   "alice",
				Amount:     10,
				OccurredAt: testNow,
			})

			Convey("Then it should be accepted", func() {
				So(ok, ShouldBeTrue)
			})

			Convey("And it should eventually reach the store", func() {
				deadline := time.Now().Add(5 * time.Second)
				for events.Count(ctx) == 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(events.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When submitting a malformed event", func() {
			ok := svc.Submit(ctx, model.Event{EventID: "evt-2", GuildID: "g1"})

			Convey("Then it should be rejected", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When recording an event id twice", func() {
			first := svc.SeenAndRecord(ctx, "evt-dup")
			second := svc.SeenAndRecord(ctx, "evt-dup")

			Convey("Then only the second sighting counts as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
			})

			Convey("And unrecording allows a retry", func() {
				svc.Unrecord(ctx, "evt-dup")
				So(svc.SeenAndRecord(ctx, "evt-dup"), ShouldBeFalse)
			})
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a service over a populated store", t, func() {
		events := store.NewMemStore()
		appendEvents(t, events,
			model.Event{EventID: "e1", GuildID: "g1", MemberID: "alice", Amount: 30, OccurredAt: testNow.Add(-time.Hour)},
			model.Event{EventID: "e2", GuildID: "g1", MemberID: "bob", Amount: 50, OccurredAt: testNow.Add(-2 * time.Hour)},
			model.Event{EventID: "e3", GuildID: "g1", MemberID: "alice", Amount: 5, OccurredAt: testNow.Add(-time.Minute)},
			model.Event{EventID: "e4", GuildID: "g1", MemberID: "carol", Amount: 35, OccurredAt: testNow.Add(-3 * time.Hour)},
			// Yesterday relative to the pinned clock.
			model.Event{EventID: "e5", GuildID: "g1", MemberID: "dave", Amount: 500, OccurredAt: testNow.Add(-24 * time.Hour)},
		)
		svc := newStartedService(t, events)
		ctx := context.Background()

		Convey("When building today's leaderboard", func() {
			res, err := svc.Leaderboard(ctx, window.Today, "g1", 10)
			So(err, ShouldBeNil)

			Convey("Then the winner has the highest windowed total", func() {
				So(res.Winner.MemberID, ShouldEqual, "bob")
				So(res.Winner.Total, ShouldEqual, 50)
				So(res.Winner.Rank, ShouldEqual, 1)
			})

			Convey("And runners-up are ranked positionally", func() {
				So(len(res.RunnersUp), ShouldEqual, 2)
				So(res.RunnersUp[0].MemberID, ShouldEqual, "alice")
				So(res.RunnersUp[0].Total, ShouldEqual, 35)
				So(res.RunnersUp[0].Rank, ShouldEqual, 2)
				So(res.RunnersUp[1].MemberID, ShouldEqual, "carol")
			})

			Convey("And yesterday's events are excluded", func() {
				for _, e := range res.Entries() {
					So(e.MemberID, ShouldNotEqual, "dave")
				}
			})
		})

		Convey("When building the all-time leaderboard", func() {
			res, err := svc.Leaderboard(ctx, window.AllTime, "g1", 10)
			So(err, ShouldBeNil)

			Convey("Then yesterday's events count", func() {
				So(res.Winner.MemberID, ShouldEqual, "dave")
				So(res.Winner.Total, ShouldEqual, 500)
			})
		})

		Convey("When the limit truncates the board", func() {
			res, err := svc.Leaderboard(ctx, window.Today, "g1", 2)
			So(err, ShouldBeNil)

			Convey("Then only the top entries remain, in rank order", func() {
				So(res.Winner.MemberID, ShouldEqual, "bob")
				So(len(res.RunnersUp), ShouldEqual, 1)
				So(res.RunnersUp[0].MemberID, ShouldEqual, "alice")
			})
		})

		Convey("When the limit is zero", func() {
			res, err := svc.Leaderboard(ctx, window.Today, "g1", 0)

			Convey("Then the default limit applies", func() {
				So(err, ShouldBeNil)
				So(len(res.Entries()), ShouldEqual, 3)
			})
		})

		Convey("When the period is unknown", func() {
			_, err := svc.Leaderboard(ctx, window.Period("fortnight"), "g1", 10)

			Convey("Then it should return an invalid period error", func() {
				So(err, ShouldWrap, window.ErrInvalidPeriod)
			})
		})

		Convey("When no events match the window", func() {
			_, err := svc.Leaderboard(ctx, window.Today, "empty-guild", 10)

			Convey("Then it should return a no data error", func() {
				So(err, ShouldWrap, board.ErrNoData)
			})
		})
	})
}

func TestService_LeaderboardTieBreak(t *testing.T) {
	Convey("Given members with equal totals", t, func() {
		events := store.NewMemStore()
		appendEvents(t, events,
			model.Event{EventID: "t1", GuildID: "g1", MemberID: "zed", Amount: 40, OccurredAt: testNow.Add(-time.Hour)},
			model.Event{EventID: "t2", GuildID: "g1", MemberID: "amy", Amount: 40, OccurredAt: testNow.Add(-time.Hour)},
			model.Event{EventID: "t3", GuildID: "g1", MemberID: "mia", Amount: 40, OccurredAt: testNow.Add(-time.Hour)},
		)
		svc := newStartedService(t, events)

		Convey("When building the leaderboard", func() {
			res, err := svc.Leaderboard(context.Background(), window.Today, "g1", 10)
			So(err, ShouldBeNil)

			Convey("Then ties break by ascending member id", func() {
				So(res.Winner.MemberID, ShouldEqual, "amy")
				So(res.RunnersUp[0].MemberID, ShouldEqual, "mia")
				So(res.RunnersUp[1].MemberID, ShouldEqual, "zed")
			})
		})
	})
}

func TestService_Progress(t *testing.T) {
	Convey("Given a service over a populated store", t, func() {
		events := store.NewMemStore()
		appendEvents(t, events,
			model.Event{EventID: "p1", GuildID: "g1", MemberID: "alice", Amount: 30, OccurredAt: testNow.Add(-time.Hour)},
			model.Event{EventID: "p2", GuildID: "g1", MemberID: "bob", Amount: 12, OccurredAt: testNow.Add(-2 * time.Hour)},
		)
		svc := newStartedService(t, events)
		ctx := context.Background()

		Convey("When rendering today's progress against a goal of 100", func() {
			res, err := svc.Progress(ctx, window.Today, "g1", 100, 0)
			So(err, ShouldBeNil)

			Convey("Then the total and percent reflect the window sum", func() {
				So(res.Total, ShouldEqual, 42)
				So(res.Percent, ShouldEqual, 42)
				So(res.Status, ShouldEqual, progress.StatusUnder)
			})
		})

		Convey("When the caller asks for a custom segment count", func() {
			res, err := svc.Progress(ctx, window.Today, "g1", 100, 5)
			So(err, ShouldBeNil)

			Convey("Then the bar is drawn with that many buckets", func() {
				So(strings.Count(res.Bar, "⬛"), ShouldEqual, 2)
				So(strings.Count(res.Bar, "▪️"), ShouldEqual, 1)
				So(strings.Count(res.Bar, "▫️"), ShouldEqual, 2)
			})
		})

		Convey("When rendering with no matching events", func() {
			res, err := svc.Progress(ctx, window.Today, "empty-guild", 100, 0)

			Convey("Then the result is a zero-progress bar, not an error", func() {
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 0)
				So(res.Percent, ShouldEqual, 0)
			})
		})

		Convey("When the goal is not positive", func() {
			_, err := svc.Progress(ctx, window.Today, "g1", 0, 0)

			Convey("Then it should return an invalid goal error", func() {
				So(err, ShouldWrap, progress.ErrInvalidGoal)
			})
		})

		Convey("When the period is unknown", func() {
			_, err := svc.Progress(ctx, window.Period("decade"), "g1", 100, 0)

			Convey("Then it should return an invalid period error", func() {
				So(err, ShouldWrap, window.ErrInvalidPeriod)
			})
		})
	})
}

func TestService_Total(t *testing.T) {
	Convey("Given a service over a populated store", t, func() {
		events := store.NewMemStore()
		appendEvents(t, events,
			model.Event{EventID: "s1", GuildID: "g1", MemberID: "alice", Amount: 30, OccurredAt: testNow.Add(-time.Hour)},
			model.Event{EventID: "s2", GuildID: "g1", MemberID: "bob", Amount: 12, OccurredAt: testNow.Add(-2 * time.Hour)},
		)
		svc := newStartedService(t, events)
		ctx := context.Background()

		Convey("When summing the whole guild", func() {
			total, err := svc.Total(ctx, window.Today, "g1", "")
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 42)
		})

		Convey("When summing a single member", func() {
			total, err := svc.Total(ctx, window.Today, "g1", "alice")
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 30)
		})

		Convey("When nothing matches", func() {
			total, err := svc.Total(ctx, window.Today, "g1", "nobody")

			Convey("Then zero comes back without an error", func() {
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 0)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		events := store.NewMemStore()
		appendEvents(t, events,
			model.Event{EventID: "g1e1", GuildID: "g1", MemberID: "alice", Amount: 1, OccurredAt: testNow},
		)
		svc := newStartedService(t, events)

		Convey("When fetching stats", func() {
			stats := svc.GetStats()

			Convey("Then they reflect the running components", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["storedEvents"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 0)
			})
		})
	})
}
