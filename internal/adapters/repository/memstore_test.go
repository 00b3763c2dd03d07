package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/brightnest/reliability/internal/adapters/repository"
	"github.com/brightnest/reliability/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProfileByEmail(t *testing.T) {
	Convey("Given a store seeded with one profile", t, func() {
		store := repository.NewMemoryStore(repository.WithProfiles(
			model.CleanerProfile{UserEmail: "anna@example.com", ReliabilityScore: 72, IsActive: true},
		))

		Convey("When looking up the seeded email", func() {
			p, err := store.ProfileByEmail(context.Background(), "anna@example.com")

			Convey("Then the profile is returned", func() {
				So(err, ShouldBeNil)
				So(p.ReliabilityScore, ShouldEqual, 72)
			})
		})

		Convey("When looking up an unknown email", func() {
			_, err := store.ProfileByEmail(context.Background(), "ghost@example.com")

			Convey("Then the not-found sentinel is returned", func() {
				So(err, ShouldWrap, repository.ErrProfileNotFound)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := store.ProfileByEmail(ctx, "anna@example.com")

			Convey("Then the lookup fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestActiveProfiles(t *testing.T) {
	Convey("Given active and inactive profiles", t, func() {
		store := repository.NewMemoryStore(repository.WithProfiles(
			model.CleanerProfile{UserEmail: "a@example.com", IsActive: true},
			model.CleanerProfile{UserEmail: "b@example.com", IsActive: false},
			model.CleanerProfile{UserEmail: "c@example.com", IsActive: true},
		))

		Convey("When listing active profiles", func() {
			active, err := store.ActiveProfiles(context.Background())

			Convey("Then only the active ones are returned", func() {
				So(err, ShouldBeNil)
				So(active, ShouldHaveLength, 2)
				for _, p := range active {
					So(p.IsActive, ShouldBeTrue)
				}
			})
		})
	})
}

func TestApplyScoreUpdate(t *testing.T) {
	Convey("Given a stored profile at version 3", t, func() {
		store := repository.NewMemoryStore(repository.WithProfiles(
			model.CleanerProfile{UserEmail: "v@example.com", ReliabilityScore: 40, Tier: "Developing", Version: 3},
		))
		when := time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)
		upd := repository.ScoreUpdate{
			ReliabilityScore: 81,
			Tier:             "Pro",
			AttendanceRate:   95,
			TotalJobs:        12,
			LastScoreUpdate:  when,
			ExpectedVersion:  3,
		}

		Convey("When the expected version matches", func() {
			err := store.ApplyScoreUpdate(context.Background(), "v@example.com", upd)

			Convey("Then the fields are written and the version bumps", func() {
				So(err, ShouldBeNil)
				p, err := store.ProfileByEmail(context.Background(), "v@example.com")
				So(err, ShouldBeNil)
				So(p.ReliabilityScore, ShouldEqual, 81)
				So(p.Tier, ShouldEqual, "Pro")
				So(p.AttendanceRate, ShouldEqual, 95)
				So(p.TotalJobs, ShouldEqual, 12)
				So(p.LastScoreUpdate, ShouldResemble, when)
				So(p.Version, ShouldEqual, 4)
			})
		})

		Convey("When the expected version is stale", func() {
			stale := upd
			stale.ExpectedVersion = 2
			err := store.ApplyScoreUpdate(context.Background(), "v@example.com", stale)

			Convey("Then the update fails with a version conflict", func() {
				So(err, ShouldWrap, repository.ErrVersionConflict)
			})

			Convey("And the stored profile is untouched", func() {
				p, lookupErr := store.ProfileByEmail(context.Background(), "v@example.com")
				So(lookupErr, ShouldBeNil)
				So(p.ReliabilityScore, ShouldEqual, 40)
				So(p.Version, ShouldEqual, 3)
			})
		})

		Convey("When the profile does not exist", func() {
			err := store.ApplyScoreUpdate(context.Background(), "nobody@example.com", upd)

			Convey("Then the not-found sentinel is returned", func() {
				So(err, ShouldWrap, repository.ErrProfileNotFound)
			})
		})
	})
}

func TestBookingQueries(t *testing.T) {
	Convey("Given bookings for two cleaners", t, func() {
		start := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore(repository.WithBookings(
			model.Booking{ID: "b1", CleanerEmail: "x@example.com", Status: model.StatusCompleted, ScheduledStart: start},
			model.Booking{ID: "b2", CleanerEmail: "x@example.com", Status: model.StatusScheduled, ScheduledStart: start.Add(48 * time.Hour)},
			model.Booking{ID: "b3", CleanerEmail: "x@example.com", Status: model.StatusInProgress, ScheduledStart: start.Add(24 * time.Hour)},
			model.Booking{ID: "b4", CleanerEmail: "y@example.com", Status: model.StatusCompleted, ScheduledStart: start},
		))

		Convey("When fetching all bookings for one cleaner", func() {
			got, err := store.BookingsFor(context.Background(), "x@example.com")

			Convey("Then only that cleaner's bookings come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
			})
		})

		Convey("When filtering by status", func() {
			got, err := store.BookingsByStatus(context.Background(), "x@example.com",
				model.StatusScheduled, model.StatusInProgress)

			Convey("Then only matching statuses come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				for _, b := range got {
					So(b.Status, ShouldBeIn, model.StatusScheduled, model.StatusInProgress)
				}
			})
		})

		Convey("When the cleaner has no bookings", func() {
			got, err := store.BookingsFor(context.Background(), "nobody@example.com")

			Convey("Then an empty slice comes back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestPutHelpers(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := repository.NewMemoryStore()

		Convey("When inserting a profile and a booking", func() {
			store.PutProfile(model.CleanerProfile{UserEmail: "p@example.com"})
			store.PutBooking(model.Booking{ID: "b1", CleanerEmail: "p@example.com", Status: model.StatusCompleted})

			Convey("Then both are retrievable", func() {
				So(store.Count(context.Background()), ShouldEqual, 1)
				got, err := store.BookingsFor(context.Background(), "p@example.com")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})
	})
}
