// Package belief implements a Gaussian skill-belief engine: the
// Thurstone-Mosteller full pairing update, where every team is compared
// with every other team of the match.
//
// For two teams it reproduces the TrueSkill update exactly.
package belief

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/internal/domain/rating/bayes"
)

const (
	defaultMu              = 35
	defaultDrawProbability = 0.1
	defaultKappa           = 1e-4

	// below this the truncated Gaussian corrections switch to their
	// asymptotic forms
	tailEpsilon = 1e-300
	drawEpsilon = 1e-5
)

// Gaussian is a bayes.Engine.
type Gaussian struct {
	mu    float64
	sigma float64
	beta  float64
	tau   float64
	draw  float64
	kappa float64
}

var _ bayes.Engine = (*Gaussian)(nil)

// New creates an engine. Unset parameters derive from mu: sigma = mu/3,
// beta = sigma/2, tau = sigma/100.
func New(opts ...Option) (*Gaussian, error) {
	g := &Gaussian{
		mu:    defaultMu,
		draw:  defaultDrawProbability,
		kappa: defaultKappa,
		tau:   -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sigma == 0 {
		g.sigma = g.mu / 3
	}
	if g.beta == 0 {
		g.beta = g.sigma / 2
	}
	if g.tau < 0 {
		g.tau = g.sigma / 100
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gaussian) validate() error {
	switch {
	case !(g.sigma > 0):
		return &rating.ConfigurationError{Field: "sigma", Reason: "must be positive"}
	case !(g.beta > 0):
		return &rating.ConfigurationError{Field: "beta", Reason: "must be positive"}
	case !(g.draw >= 0 && g.draw < 1):
		return &rating.ConfigurationError{Field: "draw probability", Reason: "must be in [0, 1)"}
	case !(g.kappa > 0):
		return &rating.ConfigurationError{Field: "kappa", Reason: "must be positive"}
	}
	return nil
}

// Prior implements bayes.Engine.
func (g *Gaussian) Prior() bayes.Belief {
	return bayes.Belief{Mu: g.mu, Sigma: g.sigma}
}

// Beta returns the performance noise.
func (g *Gaussian) Beta() float64 { return g.beta }

type team struct {
	mu      float64
	sigmaSq float64
	size    int
	sigmas  []float64 // inflated by tau
}

func (g *Gaussian) summarize(members []bayes.Belief) team {
	t := team{size: len(members), sigmas: make([]float64, len(members))}
	mus := make([]float64, len(members))
	sq := make([]float64, len(members))
	for i, m := range members {
		t.sigmas[i] = math.Sqrt(m.Sigma*m.Sigma + g.tau*g.tau)
		mus[i] = m.Mu
		sq[i] = t.sigmas[i] * t.sigmas[i]
	}
	t.mu = floats.Sum(mus)
	t.sigmaSq = floats.Sum(sq)
	return t
}

// drawMargin is the performance difference below which a game is a draw.
func (g *Gaussian) drawMargin(players int) float64 {
	return distuv.UnitNormal.Quantile((g.draw+1)/2) * math.Sqrt(float64(players)) * g.beta
}

// Rate implements bayes.Engine.
func (g *Gaussian) Rate(teams [][]bayes.Belief, ranks []int) ([][]bayes.Belief, error) {
	if len(teams) < 2 {
		return nil, &rating.UnsupportedArityError{Op: "rate", Arity: len(teams)}
	}
	if len(ranks) != len(teams) {
		return nil, &rating.DegenerateStateError{Op: "rate", Reason: "ranks do not match teams"}
	}

	ts := make([]team, len(teams))
	for i, members := range teams {
		if len(members) == 0 {
			return nil, &rating.DegenerateStateError{Op: "rate", Reason: "team has no members"}
		}
		ts[i] = g.summarize(members)
	}

	out := make([][]bayes.Belief, len(teams))
	for i, ti := range ts {
		omega, delta := 0.0, 0.0
		for q, tq := range ts {
			if q == i {
				continue
			}
			c := math.Sqrt(ti.sigmaSq + tq.sigmaSq + 2*g.beta*g.beta)
			t := g.drawMargin(ti.size+tq.size) / c
			diff := (ti.mu - tq.mu) / c
			share := ti.sigmaSq / c

			switch {
			case ranks[q] > ranks[i]:
				omega += share * v(diff, t)
				delta += share / c * w(diff, t)
			case ranks[q] < ranks[i]:
				omega -= share * v(-diff, t)
				delta += share / c * w(-diff, t)
			default:
				omega += share * vDraw(diff, t)
				delta += share / c * wDraw(diff, t)
			}
		}

		out[i] = make([]bayes.Belief, len(teams[i]))
		for j, m := range teams[i] {
			s := ti.sigmas[j]
			weight := s * s / ti.sigmaSq
			out[i][j] = bayes.Belief{
				Mu:    m.Mu + weight*omega,
				Sigma: s * math.Sqrt(math.Max(1-weight*delta, g.kappa)),
			}
			if math.IsNaN(out[i][j].Mu) || math.IsNaN(out[i][j].Sigma) {
				return nil, &rating.DegenerateStateError{Op: "rate", Reason: "non-finite posterior"}
			}
		}
	}
	return out, nil
}

func (g *Gaussian) spread(a, b []bayes.Belief) (diff, variance float64) {
	for _, m := range a {
		diff += m.Mu
		variance += m.Sigma * m.Sigma
	}
	for _, m := range b {
		diff -= m.Mu
		variance += m.Sigma * m.Sigma
	}
	return diff, float64(len(a)+len(b))*g.beta*g.beta + variance
}

// Win implements bayes.Engine: Φ(Δμ / √(nβ² + Σσ²)).
func (g *Gaussian) Win(a, b []bayes.Belief) float64 {
	diff, variance := g.spread(a, b)
	return distuv.UnitNormal.CDF(diff / math.Sqrt(variance))
}

// Quality implements bayes.Engine with the two-team draw probability
// relative to the draw probability of equally skilled teams.
func (g *Gaussian) Quality(a, b []bayes.Belief) float64 {
	diff, variance := g.spread(a, b)
	noise := float64(len(a)+len(b)) * g.beta * g.beta
	return math.Sqrt(noise/variance) * math.Exp(-diff*diff/(2*variance))
}

// v and w are the mean and variance corrections of a Gaussian truncated
// at t, for a win.
func v(x, t float64) float64 {
	xt := x - t
	den := distuv.UnitNormal.CDF(xt)
	if den < tailEpsilon {
		return -xt
	}
	return distuv.UnitNormal.Prob(xt) / den
}

func w(x, t float64) float64 {
	xt := x - t
	if distuv.UnitNormal.CDF(xt) < tailEpsilon {
		if x < 0 {
			return 1
		}
		return 0
	}
	vt := v(x, t)
	return vt * (vt + xt)
}

// vDraw and wDraw are the corrections of a Gaussian truncated to [-t, t].
func vDraw(x, t float64) float64 {
	xx := math.Abs(x)
	b := distuv.UnitNormal.CDF(t-xx) - distuv.UnitNormal.CDF(-t-xx)
	if b < drawEpsilon {
		if x < 0 {
			return -x - t
		}
		return -x + t
	}
	a := distuv.UnitNormal.Prob(-t-xx) - distuv.UnitNormal.Prob(t-xx)
	if x < 0 {
		a = -a
	}
	return a / b
}

func wDraw(x, t float64) float64 {
	xx := math.Abs(x)
	b := distuv.UnitNormal.CDF(t-xx) - distuv.UnitNormal.CDF(-t-xx)
	if b < drawEpsilon {
		return 1
	}
	vd := vDraw(x, t)
	return ((t-xx)*distuv.UnitNormal.Prob(t-xx)+(t+xx)*distuv.UnitNormal.Prob(-t-xx))/b + vd*vd
}
