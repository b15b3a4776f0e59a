package matchmaker

import (
	"math/rand"

	"github.com/okian/ranked/pkg/logger"
)

// Option applies a configuration option to the Matchmaker.
type Option func(*Matchmaker)

// WithRand sets the source used to shuffle brackets.
func WithRand(rng *rand.Rand) Option {
	return func(m *Matchmaker) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithSeed seeds a private shuffle source.
func WithSeed(seed int64) Option {
	return func(m *Matchmaker) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithReplaySink receives every produced assignment set.
func WithReplaySink(sink ReplaySink) Option {
	return func(m *Matchmaker) { m.sink = sink }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Matchmaker) {
		if l != nil {
			m.logger = l
		}
	}
}
