package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/brightnest/reliability/internal/domain/model"
	"github.com/brightnest/reliability/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCleanerFloor(t *testing.T) {
	Convey("Given a cleaner with fewer than five bookings", t, func() {
		engine := scoring.NewEngine()
		profile := model.CleanerProfile{UserEmail: "new@example.com"}

		Convey("When the history is empty", func() {
			bd, err := engine.Compute(context.Background(), profile, nil, testNow)
			So(err, ShouldBeNil)

			Convey("Then every component sits at the starting value", func() {
				So(bd.Attendance, ShouldEqual, 50)
				So(bd.Punctuality, ShouldEqual, 50)
				So(bd.PhotoCompliance, ShouldEqual, 50)
				So(bd.Communication, ShouldEqual, 50)
				So(bd.CompletionConfirmation, ShouldEqual, 50)
				So(bd.Rating, ShouldEqual, 50)
			})

			Convey("And the total is the starting score", func() {
				So(bd.TotalScore, ShouldEqual, 30)
			})

			Convey("And no penalties apply", func() {
				So(bd.CancellationPenalty, ShouldEqual, 0)
				So(bd.NoShowPenalty, ShouldEqual, 0)
				So(bd.DisputePenalty, ShouldEqual, 0)
			})
		})

		Convey("When the cleaner has four perfect bookings", func() {
			var bookings []model.Booking
			for i := 0; i < 4; i++ {
				bookings = append(bookings, completedBooking("new@example.com", testNow.Add(-time.Duration(i+1)*24*time.Hour)))
			}
			bd, err := engine.Compute(context.Background(), profile, bookings, testNow)
			So(err, ShouldBeNil)

			Convey("Then the floor still applies", func() {
				So(bd.TotalScore, ShouldEqual, 30)
			})

			Convey("And completed jobs are still counted", func() {
				So(bd.TotalJobs, ShouldEqual, 4)
			})
		})

		Convey("When the fifth booking arrives", func() {
			var bookings []model.Booking
			for i := 0; i < 5; i++ {
				bookings = append(bookings, completedBooking("new@example.com", testNow.Add(-time.Duration(i+1)*24*time.Hour)))
			}
			bd, err := engine.Compute(context.Background(), profile, bookings, testNow)
			So(err, ShouldBeNil)

			Convey("Then the score becomes data-driven", func() {
				So(bd.TotalScore, ShouldEqual, 90)
			})
		})
	})
}

func TestPerfectHistoryScore(t *testing.T) {
	Convey("Given ten flawless completed bookings and a 5.0 rating", t, func() {
		engine := scoring.NewEngine()
		profile := model.CleanerProfile{UserEmail: "star@example.com", AverageRating: 5.0}
		var bookings []model.Booking
		for i := 0; i < 10; i++ {
			bookings = append(bookings, completedBooking("star@example.com", testNow.Add(-time.Duration(i+1)*24*time.Hour)))
		}

		bd, err := engine.Compute(context.Background(), profile, bookings, testNow)
		So(err, ShouldBeNil)

		Convey("Then every component is perfect", func() {
			So(bd.Attendance, ShouldEqual, 100)
			So(bd.Punctuality, ShouldEqual, 100)
			So(bd.PhotoCompliance, ShouldEqual, 100)
			So(bd.Communication, ShouldEqual, 100)
			So(bd.CompletionConfirmation, ShouldEqual, 100)
			So(bd.Rating, ShouldEqual, 100)
		})

		Convey("Then the weighted total is 90", func() {
			// Positive weights sum to 90 by design of the weight table.
			So(bd.TotalScore, ShouldEqual, 90)
		})

		Convey("And the completed-job count is carried on the breakdown", func() {
			So(bd.TotalJobs, ShouldEqual, 10)
		})
	})
}

func TestScoreIsBounded(t *testing.T) {
	Convey("Given a history stacked with every penalty", t, func() {
		engine := scoring.NewEngine()
		profile := model.CleanerProfile{UserEmail: "bad@example.com", AverageRating: 1.0}

		var bookings []model.Booking
		// Heavy late-cancellation and no-show history.
		for i := 0; i < 3; i++ {
			start := testNow.Add(time.Duration(i+1) * 24 * time.Hour)
			bookings = append(bookings, model.Booking{
				CleanerEmail:   "bad@example.com",
				Status:         model.StatusCancelled,
				CancelledBy:    model.CancelledByCleaner,
				ScheduledStart: start,
				CancelledAt:    start.Add(-time.Hour),
			})
		}
		for i := 0; i < 3; i++ {
			bookings = append(bookings, model.Booking{
				CleanerEmail:   "bad@example.com",
				Status:         model.StatusScheduled,
				ScheduledStart: testNow.Add(-time.Duration(i+1) * 24 * time.Hour),
			})
		}

		bd, err := engine.Compute(context.Background(), profile, bookings, testNow)
		So(err, ShouldBeNil)

		Convey("Then the total never goes below zero", func() {
			So(bd.TotalScore, ShouldBeGreaterThanOrEqualTo, 0)
			So(bd.TotalScore, ShouldBeLessThanOrEqualTo, 100)
		})

		Convey("And the penalties are individually capped", func() {
			So(bd.CancellationPenalty, ShouldEqual, -20)
			So(bd.NoShowPenalty, ShouldEqual, -15)
		})
	})
}

func TestComputeIsDeterministic(t *testing.T) {
	Convey("Given a fixed booking snapshot and a fixed clock", t, func() {
		engine := scoring.NewEngine()
		profile := model.CleanerProfile{UserEmail: "same@example.com", AverageRating: 4.2, CommunicationRate: 88}
		var bookings []model.Booking
		for i := 0; i < 7; i++ {
			bookings = append(bookings, completedBooking("same@example.com", testNow.Add(-time.Duration(i+1)*24*time.Hour)))
		}
		bookings = append(bookings, model.Booking{
			CleanerEmail:   "same@example.com",
			Status:         model.StatusScheduled,
			ScheduledStart: testNow.Add(-2 * time.Hour),
		})

		Convey("When computed twice", func() {
			first, err := engine.Compute(context.Background(), profile, bookings, testNow)
			So(err, ShouldBeNil)
			second, err := engine.Compute(context.Background(), profile, bookings, testNow)
			So(err, ShouldBeNil)

			Convey("Then the breakdowns are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestComputeHonorsContext(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		engine := scoring.NewEngine()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then Compute returns the cancellation", func() {
			_, err := engine.Compute(ctx, model.CleanerProfile{}, nil, testNow)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "cancelled")
		})
	})
}

func TestWeightsFromConfig(t *testing.T) {
	Convey("Given configured weight overrides", t, func() {
		Convey("When known keys are set", func() {
			w := scoring.WeightsFromConfig(map[string]int{
				"attendance":  30,
				"rating":      5,
				"no_show_max": 25,
			})

			Convey("Then they replace the defaults", func() {
				So(w.Attendance, ShouldEqual, 30)
				So(w.Rating, ShouldEqual, 5)
				So(w.NoShowMax, ShouldEqual, 25)
			})

			Convey("And untouched weights keep their defaults", func() {
				So(w.Punctuality, ShouldEqual, 20)
				So(w.CancellationMax, ShouldEqual, 20)
			})
		})

		Convey("When keys are unknown or negative", func() {
			w := scoring.WeightsFromConfig(map[string]int{
				"sparkle":    40,
				"attendance": -1,
			})

			Convey("Then the defaults survive", func() {
				So(w, ShouldResemble, scoring.DefaultWeights())
			})
		})
	})
}
