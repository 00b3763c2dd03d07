// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; file and env layers override them in Load.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BatchSchedule is the cron expression for the nightly recompute.
	BatchSchedule string `koanf:"batch_schedule"`

	// BatchWorkers bounds concurrent per-cleaner updates within a run.
	BatchWorkers int `koanf:"batch_workers"`

	// BatchEnabled toggles the cron scheduler; manual triggers stay available.
	BatchEnabled bool `koanf:"batch_enabled"`

	// GraceWindowMinutes is the punctuality tolerance after a scheduled start.
	GraceWindowMinutes int `koanf:"grace_window_minutes"`

	// LateCancelHours is how close to the start a cleaner cancellation counts as late.
	LateCancelHours int `koanf:"late_cancel_hours"`

	// MinPhotos is the photo-proof compliance threshold per booking.
	MinPhotos int `koanf:"min_photos"`

	// MinHistory is how many bookings a cleaner needs before data-driven scoring.
	MinHistory int `koanf:"min_history"`

	// Weights overrides individual component weights and penalty caps.
	// Keys: attendance, punctuality, photo_proof, communication, completion,
	// rating, cancellation_max, no_show_max, dispute_max.
	Weights map[string]int `koanf:"weights"`

	// EventDedupeSize bounds the duplicate-transition suppression cache.
	EventDedupeSize int `koanf:"event_dedupe_size"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8090",
		BatchSchedule:      "0 2 * * *",
		BatchWorkers:       runtime.NumCPU(),
		BatchEnabled:       true,
		GraceWindowMinutes: 15,
		LateCancelHours:    24,
		MinPhotos:          3,
		MinHistory:         5,
		Weights:            map[string]int{},
		EventDedupeSize:    10_000,
	}
}
