package events_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brightnest/reliability/internal/adapters/events"
	"github.com/brightnest/reliability/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestEventConstructors(t *testing.T) {
	Convey("Given the event constructors", t, func() {
		Convey("When building a tier-change event", func() {
			ev := events.NewTierChange("a@example.com", 55, 76, "Developing", "Pro")

			Convey("Then it carries the transition details", func() {
				So(ev.Type, ShouldEqual, events.TypeReliabilityChanged)
				So(ev.UserEmail, ShouldEqual, "a@example.com")
				So(ev.Details.OldScore, ShouldEqual, 55)
				So(ev.Details.NewScore, ShouldEqual, 76)
				So(ev.Details.OldTier, ShouldEqual, "Developing")
				So(ev.Details.NewTier, ShouldEqual, "Pro")
				So(ev.ID, ShouldNotBeEmpty)
				So(ev.Timestamp.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When building a batch summary", func() {
			ev := events.NewBatchSummary("run-1", 9, 10, 2)

			Convey("Then it carries the run counters", func() {
				So(ev.Type, ShouldEqual, events.TypeBatchCompleted)
				So(ev.Details.Successful, ShouldEqual, 9)
				So(ev.Details.Total, ShouldEqual, 10)
				So(ev.Details.TierChanges, ShouldEqual, 2)
				So(ev.Details.RunID, ShouldEqual, "run-1")
			})
		})

		Convey("When building a manual recompute audit event", func() {
			ev := events.NewManualRecompute("a@example.com", 55, 76, "Developing", "Pro")

			Convey("Then only the type differs from a tier change", func() {
				So(ev.Type, ShouldEqual, events.TypeManualRecompute)
				So(ev.Details.NewTier, ShouldEqual, "Pro")
			})
		})
	})
}

func TestMemoryEmitter(t *testing.T) {
	Convey("Given a memory emitter", t, func() {
		em := events.NewMemoryEmitter()
		ctx := context.Background()

		Convey("When several events are emitted", func() {
			So(em.Emit(ctx, events.NewTierChange("a@example.com", 1, 2, "Developing", "Developing")), ShouldBeNil)
			So(em.Emit(ctx, events.NewBatchSummary("run-1", 1, 1, 0)), ShouldBeNil)

			Convey("Then all of them are captured in order", func() {
				got := em.Events()
				So(got, ShouldHaveLength, 2)
				So(got[0].Type, ShouldEqual, events.TypeReliabilityChanged)
				So(got[1].Type, ShouldEqual, events.TypeBatchCompleted)
			})

			Convey("And they can be filtered by type", func() {
				So(em.ByType(events.TypeBatchCompleted), ShouldHaveLength, 1)
				So(em.ByType(events.TypeManualRecompute), ShouldBeEmpty)
			})
		})
	})
}

func TestLogEmitter(t *testing.T) {
	Convey("Given a log emitter", t, func() {
		em := events.NewLogEmitter(logger.Get())

		Convey("When an event is emitted", func() {
			err := em.Emit(context.Background(), events.NewTierChange("a@example.com", 10, 20, "Developing", "Developing"))

			Convey("Then emission succeeds", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestDedupeEmitter(t *testing.T) {
	Convey("Given a dedupe emitter over a memory sink", t, func() {
		sink := events.NewMemoryEmitter()
		dedupe := events.NewDedupeEmitter(sink)
		ctx := context.Background()

		Convey("When the same tier transition is emitted twice", func() {
			So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)

			Convey("Then only the first reaches the sink", func() {
				So(sink.Events(), ShouldHaveLength, 1)
			})
		})

		Convey("When the same transition arrives as different event types", func() {
			So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewManualRecompute("a@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)

			Convey("Then both pass through; keys include the event type", func() {
				So(sink.Events(), ShouldHaveLength, 2)
			})
		})

		Convey("When different cleaners make the same transition", func() {
			So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewTierChange("b@example.com", 55, 76, "Developing", "Pro")), ShouldBeNil)

			Convey("Then both pass through", func() {
				So(sink.Events(), ShouldHaveLength, 2)
			})
		})

		Convey("When a cleaner oscillates between the same tiers across days", func() {
			day := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
			up := events.NewTierChange("osc@example.com", 70, 76, "Semi Pro", "Pro")
			up.Timestamp = day
			down := events.NewTierChange("osc@example.com", 76, 70, "Pro", "Semi Pro")
			down.Timestamp = day.Add(24 * time.Hour)
			upAgain := events.NewTierChange("osc@example.com", 70, 76, "Semi Pro", "Pro")
			upAgain.Timestamp = day.Add(48 * time.Hour)

			So(dedupe.Emit(ctx, up), ShouldBeNil)
			So(dedupe.Emit(ctx, down), ShouldBeNil)
			So(dedupe.Emit(ctx, upAgain), ShouldBeNil)

			Convey("Then every genuine change reaches the sink", func() {
				So(sink.Events(), ShouldHaveLength, 3)
			})
		})

		Convey("When the same transition repeats within one day", func() {
			day := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
			first := events.NewTierChange("osc@example.com", 70, 76, "Semi Pro", "Pro")
			first.Timestamp = day
			second := events.NewTierChange("osc@example.com", 70, 76, "Semi Pro", "Pro")
			second.Timestamp = day.Add(3 * time.Hour)

			So(dedupe.Emit(ctx, first), ShouldBeNil)
			So(dedupe.Emit(ctx, second), ShouldBeNil)

			Convey("Then the repeat is suppressed", func() {
				So(sink.Events(), ShouldHaveLength, 1)
			})
		})

		Convey("When batch summaries repeat", func() {
			So(dedupe.Emit(ctx, events.NewBatchSummary("run-1", 5, 5, 0)), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewBatchSummary("run-1", 5, 5, 0)), ShouldBeNil)

			Convey("Then summaries are never deduplicated", func() {
				So(sink.ByType(events.TypeBatchCompleted), ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a dedupe emitter bounded to two keys", t, func() {
		sink := events.NewMemoryEmitter()
		dedupe := events.NewDedupeEmitter(sink, events.WithMaxSize(2))
		ctx := context.Background()

		Convey("When a third distinct transition evicts the oldest key", func() {
			So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 1, 2, "Developing", "Developing")), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewTierChange("b@example.com", 1, 2, "Developing", "Developing")), ShouldBeNil)
			So(dedupe.Emit(ctx, events.NewTierChange("c@example.com", 1, 2, "Developing", "Developing")), ShouldBeNil)

			Convey("Then the window stays bounded", func() {
				So(dedupe.Size(), ShouldEqual, 2)
			})

			Convey("And the evicted transition can be emitted again", func() {
				So(dedupe.Emit(ctx, events.NewTierChange("a@example.com", 1, 2, "Developing", "Developing")), ShouldBeNil)
				So(sink.Events(), ShouldHaveLength, 4)
			})
		})
	})
}
