package batch

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrComputation     = errors.New("computation error")
	ErrInvalidSchedule = errors.New("invalid batch schedule")
)
