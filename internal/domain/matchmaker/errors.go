package matchmaker

import "errors"

// Sentinel kinds for matchmaker errors.
var (
	ErrNilPool      = errors.New("matchmaker pool is nil")
	ErrInvalidShape = errors.New("teams and players per team must be at least 1")
)
