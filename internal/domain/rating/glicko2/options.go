package glicko2

import (
	"github.com/okian/ranked/pkg/logger"
)

// Option applies a configuration option to the Glicko2 ranker.
type Option func(*Glicko2)

// WithCenter sets the rating mapped to 0 on the internal scale.
func WithCenter(center float64) Option {
	return func(g *Glicko2) { g.center = center }
}

// WithScale sets the rating points per internal unit.
func WithScale(scale float64) Option {
	return func(g *Glicko2) { g.scale = scale }
}

// WithTau sets the volatility change constraint.
func WithTau(tau float64) Option {
	return func(g *Glicko2) { g.tau = tau }
}

// WithInitialDeviation sets the deviation of new players (default scale*1.2).
func WithInitialDeviation(deviation float64) Option {
	return func(g *Glicko2) { g.initialDeviation = deviation }
}

// WithInitialVolatility sets the volatility of new players (default tau/2).
func WithInitialVolatility(volatility float64) Option {
	return func(g *Glicko2) { g.initialVolatility = volatility }
}

// WithEpsilon sets the convergence tolerance of the volatility solve.
func WithEpsilon(eps float64) Option {
	return func(g *Glicko2) { g.epsilon = eps }
}

// WithMaxIterations bounds the bracket search and the Illinois loop.
func WithMaxIterations(n int) Option {
	return func(g *Glicko2) { g.maxIterations = n }
}

// WithWorkers computes a period on n goroutines. Write-back stays serial.
func WithWorkers(n int) Option {
	return func(g *Glicko2) { g.workers = n }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Glicko2) {
		if l != nil {
			g.logger = l
		}
	}
}
