package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrProfileNotFound = errors.New("cleaner profile not found")
	ErrVersionConflict = errors.New("profile version conflict")
)
