package simulation

import "errors"

// Sentinel kinds for simulation errors.
var (
	ErrNoMatches    = errors.New("matchup produced no matches")
	ErrInvalidTruth = errors.New("invalid truth model")
)
