package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownMetric = errors.New("unknown benchmark metric")
)
