package elo

import (
	"github.com/okian/ranked/pkg/logger"
)

// Option applies a configuration option to the Elo ranker.
type Option func(*Elo)

// WithVolatility sets the rating volatility (vol).
func WithVolatility(vol float64) Option {
	return func(e *Elo) { e.vol = vol }
}

// WithAlpha sets the K-factor multiplier.
func WithAlpha(alpha float64) Option {
	return func(e *Elo) { e.alpha = alpha }
}

// WithK fixes the K-factor instead of deriving it from alpha and volatility.
func WithK(k float64) Option {
	return func(e *Elo) { e.k = k }
}

// WithDistribution sets the CDF used by Win.
func WithDistribution(d Distribution) Option {
	return func(e *Elo) { e.dist = d }
}

// WithInitialRating sets the rating of players made by NewPlayer.
func WithInitialRating(mu float64) Option {
	return func(e *Elo) { e.initial = mu }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Elo) {
		if l != nil {
			e.logger = l
		}
	}
}
