package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightnest/reliability/internal/domain/model"
	"github.com/brightnest/reliability/pkg/metrics"
)

// MemoryStore implements Store with RWMutex-guarded maps. It backs tests and
// single-process deployments; persistent deployments swap in an adapter
// satisfying the same ports.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.CleanerProfile
	bookings map[string][]model.Booking
}

// NewMemoryStore creates a MemoryStore, optionally seeded via options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		profiles: make(map[string]model.CleanerProfile),
		bookings: make(map[string][]model.Booking),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ProfileByEmail returns the profile for email.
func (s *MemoryStore) ProfileByEmail(ctx context.Context, email string) (model.CleanerProfile, error) {
	defer observeQuery(time.Now())

	if err := ctx.Err(); err != nil {
		return model.CleanerProfile{}, fmt.Errorf("profile lookup cancelled: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[email]
	if !ok {
		return model.CleanerProfile{}, ErrProfileNotFound
	}
	return p, nil
}

// ActiveProfiles returns all profiles flagged as batch-eligible.
func (s *MemoryStore) ActiveProfiles(ctx context.Context) ([]model.CleanerProfile, error) {
	defer observeQuery(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("profile listing cancelled: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]model.CleanerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// ApplyScoreUpdate writes the score fields for email, bumping the version.
func (s *MemoryStore) ApplyScoreUpdate(ctx context.Context, email string, upd ScoreUpdate) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("score update cancelled: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[email]
	if !ok {
		return ErrProfileNotFound
	}
	if p.Version != upd.ExpectedVersion {
		metrics.RecordRepositoryConflict()
		return fmt.Errorf("%w: have %d, expected %d", ErrVersionConflict, p.Version, upd.ExpectedVersion)
	}

	p.ReliabilityScore = upd.ReliabilityScore
	p.Tier = upd.Tier
	p.AttendanceRate = upd.AttendanceRate
	p.PunctualityRate = upd.PunctualityRate
	p.PhotoComplianceRate = upd.PhotoComplianceRate
	p.CommunicationRate = upd.CommunicationRate
	p.CompletionConfirmationRate = upd.CompletionConfirmationRate
	p.CancellationRate = upd.CancellationRate
	p.NoShowRate = upd.NoShowRate
	p.DisputeRate = upd.DisputeRate
	p.TotalJobs = upd.TotalJobs
	p.LastScoreUpdate = upd.LastScoreUpdate
	p.Version++

	s.profiles[email] = p
	return nil
}

// BookingsFor returns every booking recorded for the cleaner.
func (s *MemoryStore) BookingsFor(ctx context.Context, email string) ([]model.Booking, error) {
	defer observeQuery(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("booking lookup cancelled: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Booking(nil), s.bookings[email]...), nil
}

// BookingsByStatus returns the cleaner's bookings matching any given status.
func (s *MemoryStore) BookingsByStatus(ctx context.Context, email string, statuses ...model.BookingStatus) ([]model.Booking, error) {
	defer observeQuery(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("booking lookup cancelled: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Booking
	for _, b := range s.bookings[email] {
		for _, st := range statuses {
			if b.Status == st {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

// PutProfile inserts or replaces a profile.
func (s *MemoryStore) PutProfile(p model.CleanerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserEmail] = p
}

// PutBooking appends a booking to the cleaner's history.
func (s *MemoryStore) PutBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.CleanerEmail] = append(s.bookings[b.CleanerEmail], b)
}

// Count returns the number of stored profiles.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}
