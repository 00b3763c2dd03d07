package tier

import "errors"

// Sentinel kinds for tier table errors.
var (
	ErrInvalidTable    = errors.New("invalid tier table")
	ErrScoreOutOfRange = errors.New("score out of range")
)
