package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tallysvc/tally/internal/domain/dedupe"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given an empty deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a fresh id", func() {
			seen := d.SeenAndRecord(ctx, "evt-1")

			Convey("Then it reports unseen and records it", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second submit of the same id is a duplicate", func() {
				So(d.SeenAndRecord(ctx, "evt-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an id", func() {
			d.SeenAndRecord(ctx, "evt-1")
			d.Unrecord(ctx, "evt-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "evt-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded to three ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When recording four ids", func() {
			for i := 1; i <= 4; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest id was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "evt-1"), ShouldBeFalse) // forgotten
				So(d.SeenAndRecord(ctx, "evt-4"), ShouldBeTrue)  // still known
			})
		})

		Convey("When an unrecorded id sits in the eviction order", func() {
			d.SeenAndRecord(ctx, "evt-1")
			d.SeenAndRecord(ctx, "evt-2")
			d.SeenAndRecord(ctx, "evt-3")
			d.Unrecord(ctx, "evt-1")
			d.SeenAndRecord(ctx, "evt-4")
			d.SeenAndRecord(ctx, "evt-5")

			Convey("Then eviction skips it and drops the next oldest", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "evt-2"), ShouldBeFalse) // evicted
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When recording many ids", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "evt-0"), ShouldBeTrue)
			})
		})
	})
}
