package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNilConfig      = errors.New("config must not be nil")
	ErrUnknownRanker  = errors.New("unknown ranker")
	ErrAlreadyRunning = errors.New("service is already running")
)
