// Package scoring computes reliability score breakdowns from booking history.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brightnest/reliability/internal/domain/model"
)

// Default engine configuration constants.
const (
	defaultGraceWindow      = 15 * time.Minute
	defaultLateCancelWindow = 24 * time.Hour
	defaultMinPhotos        = 3
	defaultMinHistory       = 5

	startingComponent = 50
	startingScore     = 30
)

// Weights is the immutable weight table applied by the aggregator. Positive
// weights intentionally sum to 90; penalties are additive negative terms, not
// subtracted from a fixed base.
type Weights struct {
	Attendance    int
	Punctuality   int
	PhotoProof    int
	Communication int
	Completion    int
	Rating        int

	// Maximum penalty magnitudes.
	CancellationMax int
	NoShowMax       int
	DisputeMax      int
}

// DefaultWeights returns the production weight table.
func DefaultWeights() Weights {
	return Weights{
		Attendance:      25,
		Punctuality:     20,
		PhotoProof:      15,
		Communication:   10,
		Completion:      10,
		Rating:          10,
		CancellationMax: 20,
		NoShowMax:       15,
		DisputeMax:      10,
	}
}

// WeightsFromConfig overlays configured component weights onto the defaults.
// Keys mirror the breakdown field names; unknown keys are ignored.
func WeightsFromConfig(overrides map[string]int) Weights {
	w := DefaultWeights()
	for name, weight := range overrides {
		if weight < 0 {
			continue
		}
		switch name {
		case "attendance":
			w.Attendance = weight
		case "punctuality":
			w.Punctuality = weight
		case "photo_proof":
			w.PhotoProof = weight
		case "communication":
			w.Communication = weight
		case "completion":
			w.Completion = weight
		case "rating":
			w.Rating = weight
		case "cancellation_max":
			w.CancellationMax = weight
		case "no_show_max":
			w.NoShowMax = weight
		case "dispute_max":
			w.DisputeMax = weight
		}
	}
	return w
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the weight table.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithGraceWindow sets the punctuality tolerance after a scheduled start.
func WithGraceWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.graceWindow = d
		}
	}
}

// WithLateCancelWindow sets how close to the start a cleaner cancellation
// counts as late.
func WithLateCancelWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lateCancelWindow = d
		}
	}
}

// WithMinPhotos sets the photo-proof compliance threshold.
func WithMinPhotos(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minPhotos = n
		}
	}
}

// WithMinHistory sets how many bookings a cleaner needs before being scored
// from data instead of receiving the new-cleaner floor.
func WithMinHistory(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minHistory = n
		}
	}
}

// Engine aggregates weighted component scores into a bounded total.
type Engine struct {
	weights          Weights
	graceWindow      time.Duration
	lateCancelWindow time.Duration
	minPhotos        int
	minHistory       int
}

// NewEngine creates an Engine with default configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:          DefaultWeights(),
		graceWindow:      defaultGraceWindow,
		lateCancelWindow: defaultLateCancelWindow,
		minPhotos:        defaultMinPhotos,
		minHistory:       defaultMinHistory,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Weights returns the engine's weight table.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Compute produces a fresh breakdown for one cleaner from a booking snapshot.
// now anchors no-show detection; identical snapshots with identical now yield
// identical breakdowns. The tier field is left empty for the classifier.
func (e *Engine) Compute(ctx context.Context, profile model.CleanerProfile, bookings []model.Booking, now time.Time) (model.ScoreBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreBreakdown{}, fmt.Errorf("compute cancelled: %w", err)
	}

	completed := 0
	for _, b := range bookings {
		if b.Completed() {
			completed++
		}
	}

	// New-cleaner floor: not enough history for a data-driven score.
	if len(bookings) < e.minHistory {
		return model.ScoreBreakdown{
			Attendance:             startingComponent,
			Punctuality:            startingComponent,
			PhotoCompliance:        startingComponent,
			Communication:          startingComponent,
			CompletionConfirmation: startingComponent,
			Rating:                 startingComponent,
			TotalScore:             startingScore,
			TotalJobs:              completed,
		}, nil
	}

	bd := model.ScoreBreakdown{
		Attendance:             e.attendance(bookings),
		Punctuality:            e.punctuality(bookings),
		PhotoCompliance:        e.photoCompliance(bookings),
		Communication:          e.communication(profile),
		CompletionConfirmation: e.completionConfirmation(bookings),
		Rating:                 e.ratingScore(profile),
		CancellationPenalty:    e.cancellationPenalty(bookings),
		NoShowPenalty:          e.noShowPenalty(bookings, now),
		DisputePenalty:         e.disputePenalty(),
		TotalJobs:              completed,
	}
	bd.TotalScore = e.aggregate(bd)

	return bd, nil
}

// aggregate combines weighted positive components with additive penalties and
// clamps the total to 0-100.
func (e *Engine) aggregate(bd model.ScoreBreakdown) int {
	w := e.weights
	total := float64(bd.Attendance)*float64(w.Attendance)/100 +
		float64(bd.Punctuality)*float64(w.Punctuality)/100 +
		float64(bd.PhotoCompliance)*float64(w.PhotoProof)/100 +
		float64(bd.Communication)*float64(w.Communication)/100 +
		float64(bd.CompletionConfirmation)*float64(w.Completion)/100 +
		float64(bd.Rating)*float64(w.Rating)/100 +
		float64(bd.CancellationPenalty) +
		float64(bd.NoShowPenalty) +
		float64(bd.DisputePenalty)

	total = math.Max(0, math.Min(100, total))
	return int(math.Round(total))
}
