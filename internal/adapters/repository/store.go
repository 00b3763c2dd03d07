// Package repository defines the profile and booking store ports.
//
// The engine depends on these interfaces only; it has no knowledge of the
// storage technology behind them.
package repository

import (
	"context"
	"time"

	"github.com/brightnest/reliability/internal/domain/model"
)

// ScoreUpdate carries the fields the score updater persists on a profile.
// Penalty rates are absolute magnitudes. ExpectedVersion enables an
// optimistic concurrency check; a mismatch fails with ErrVersionConflict.
type ScoreUpdate struct {
	ReliabilityScore int
	Tier             string

	AttendanceRate             int
	PunctualityRate            int
	PhotoComplianceRate        int
	CommunicationRate          int
	CompletionConfirmationRate int
	CancellationRate           int
	NoShowRate                 int
	DisputeRate                int

	TotalJobs       int
	LastScoreUpdate time.Time
	ExpectedVersion int64
}

// ProfileStore provides access to cleaner profiles.
type ProfileStore interface {
	// ProfileByEmail returns the profile for email.
	// Returns ErrProfileNotFound when no profile matches.
	ProfileByEmail(ctx context.Context, email string) (model.CleanerProfile, error)

	// ActiveProfiles returns all profiles eligible for the nightly batch.
	ActiveProfiles(ctx context.Context) ([]model.CleanerProfile, error)

	// ApplyScoreUpdate writes the score fields for email.
	// Returns ErrProfileNotFound for unknown emails and ErrVersionConflict
	// when the stored version no longer matches ExpectedVersion.
	ApplyScoreUpdate(ctx context.Context, email string, upd ScoreUpdate) error
}

// BookingStore provides read access to booking history.
type BookingStore interface {
	// BookingsFor returns every booking recorded for the cleaner.
	BookingsFor(ctx context.Context, email string) ([]model.Booking, error)

	// BookingsByStatus returns the cleaner's bookings matching any of the
	// given statuses.
	BookingsByStatus(ctx context.Context, email string, statuses ...model.BookingStatus) ([]model.Booking, error)
}

// Store combines both ports for adapters that back profiles and bookings
// with the same storage.
type Store interface {
	ProfileStore
	BookingStore
}
