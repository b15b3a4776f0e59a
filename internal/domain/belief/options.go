package belief

// Option applies a configuration option to the engine.
type Option func(*Gaussian)

// WithMu sets the prior mean.
func WithMu(mu float64) Option {
	return func(g *Gaussian) { g.mu = mu }
}

// WithSigma sets the prior deviation (default mu/3).
func WithSigma(sigma float64) Option {
	return func(g *Gaussian) { g.sigma = sigma }
}

// WithBeta sets the performance noise (default sigma/2).
func WithBeta(beta float64) Option {
	return func(g *Gaussian) { g.beta = beta }
}

// WithTau sets the dynamics noise added before every update (default
// sigma/100). Zero disables it.
func WithTau(tau float64) Option {
	return func(g *Gaussian) { g.tau = tau }
}

// WithDrawProbability sets the probability of a draw between equals.
func WithDrawProbability(p float64) Option {
	return func(g *Gaussian) { g.draw = p }
}

// WithKappa floors the multiplicative deviation shrink.
func WithKappa(kappa float64) Option {
	return func(g *Gaussian) { g.kappa = kappa }
}
