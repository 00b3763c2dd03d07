package scoring

import (
	"math"
	"time"

	"github.com/brightnest/reliability/internal/domain/model"
)

// Component scores default to 100 and penalties to 0 when there is no
// qualifying history: absence of negative evidence is good standing, not
// missing data.
const (
	perfectScore = 100
	noPenalty    = 0
)

// attendance counts system-initiated cancellations without a check-in as
// no-shows among the bookings the cleaner accepted.
func (e *Engine) attendance(bookings []model.Booking) int {
	accepted := 0
	noShows := 0
	for _, b := range bookings {
		systemCancelled := b.Status == model.StatusCancelled && b.CancelledBy == model.CancelledBySystem
		if !b.Accepted() && !systemCancelled {
			continue
		}
		accepted++
		if systemCancelled && !b.HasCheckIn() {
			noShows++
		}
	}
	if accepted == 0 {
		return perfectScore
	}
	return roundRate(accepted-noShows, accepted)
}

// punctuality counts a completed booking as on time when the check-in landed
// within the grace window after the scheduled start. Bookings without a
// check-in stay in the denominator so missing data cannot inflate the rate.
func (e *Engine) punctuality(bookings []model.Booking) int {
	completed := 0
	onTime := 0
	for _, b := range bookings {
		if !b.Completed() {
			continue
		}
		completed++
		if !b.HasCheckIn() || b.ScheduledStart.IsZero() {
			continue
		}
		if b.CheckInTime.Sub(b.ScheduledStart) <= e.graceWindow {
			onTime++
		}
	}
	if completed == 0 {
		return perfectScore
	}
	return roundRate(onTime, completed)
}

// photoCompliance requires at least minPhotos combined before/after photos
// on a completed booking.
func (e *Engine) photoCompliance(bookings []model.Booking) int {
	completed := 0
	compliant := 0
	for _, b := range bookings {
		if !b.Completed() {
			continue
		}
		completed++
		if b.TotalPhotos() >= e.minPhotos {
			compliant++
		}
	}
	if completed == 0 {
		return perfectScore
	}
	return roundRate(compliant, completed)
}

// communication passes through the profile's stored rate. Message-level
// analysis belongs to an external collaborator.
func (e *Engine) communication(profile model.CleanerProfile) int {
	if profile.CommunicationRate <= 0 {
		return perfectScore
	}
	return clampScore(profile.CommunicationRate)
}

// completionConfirmation requires both a check-out and a compliant photo set.
func (e *Engine) completionConfirmation(bookings []model.Booking) int {
	completed := 0
	confirmed := 0
	for _, b := range bookings {
		if !b.Completed() {
			continue
		}
		completed++
		if b.HasCheckOut() && b.TotalPhotos() >= e.minPhotos {
			confirmed++
		}
	}
	if completed == 0 {
		return perfectScore
	}
	return roundRate(confirmed, completed)
}

// ratingScore rescales the 1.0-5.0 average rating linearly onto 0-100.
func (e *Engine) ratingScore(profile model.CleanerProfile) int {
	if profile.AverageRating < 1 {
		return perfectScore
	}
	scaled := (profile.AverageRating - 1) / 4 * 100
	return clampScore(int(math.Round(scaled)))
}

// cancellationPenalty punishes cleaner-initiated cancellations inside the
// late-cancel window before the scheduled start. Reported as a negative
// number, capped at the configured maximum.
func (e *Engine) cancellationPenalty(bookings []model.Booking) int {
	if len(bookings) == 0 {
		return noPenalty
	}
	late := 0
	for _, b := range bookings {
		if b.Status != model.StatusCancelled || b.CancelledBy != model.CancelledByCleaner {
			continue
		}
		if b.CancelledAt.IsZero() || b.ScheduledStart.IsZero() {
			continue
		}
		if b.ScheduledStart.Sub(b.CancelledAt) < e.lateCancelWindow {
			late++
		}
	}
	rate := float64(late) / float64(len(bookings)) * 100
	penalty := math.Min(float64(e.weights.CancellationMax), rate/10*float64(e.weights.CancellationMax))
	return -int(math.Round(penalty))
}

// noShowPenalty flags accepted bookings past their start with no check-in.
// now is an explicit argument so a fixed snapshot scores deterministically.
func (e *Engine) noShowPenalty(bookings []model.Booking, now time.Time) int {
	if len(bookings) == 0 {
		return noPenalty
	}
	noShows := 0
	for _, b := range bookings {
		if b.Status != model.StatusScheduled && b.Status != model.StatusInProgress {
			continue
		}
		if b.ScheduledStart.IsZero() || !b.ScheduledStart.Before(now) {
			continue
		}
		if !b.HasCheckIn() {
			noShows++
		}
	}
	rate := float64(noShows) / float64(len(bookings)) * 100
	penalty := math.Min(float64(e.weights.NoShowMax), rate/5*float64(e.weights.NoShowMax))
	return -int(math.Round(penalty))
}

// disputePenalty reserves the dispute weight. No dispute-at-fault data source
// is wired in yet, so the penalty is always zero.
func (e *Engine) disputePenalty() int {
	return noPenalty
}

func roundRate(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > perfectScore {
		return perfectScore
	}
	return v
}
