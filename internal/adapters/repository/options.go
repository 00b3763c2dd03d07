package repository

import "github.com/brightnest/reliability/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithProfiles seeds the store with cleaner profiles.
func WithProfiles(profiles ...model.CleanerProfile) Option {
	return func(s *MemoryStore) {
		for _, p := range profiles {
			s.profiles[p.UserEmail] = p
		}
	}
}

// WithBookings seeds the store with bookings, grouped by cleaner email.
func WithBookings(bookings ...model.Booking) Option {
	return func(s *MemoryStore) {
		for _, b := range bookings {
			s.bookings[b.CleanerEmail] = append(s.bookings[b.CleanerEmail], b)
		}
	}
}
