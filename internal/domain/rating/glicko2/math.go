package glicko2

import (
	"math"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/metrics"
)

// Mu maps the rating of p to the internal scale.
func (g *Glicko2) Mu(p Rated) float64 {
	return g.memo.must(memoKey{fn: fnMu, player: p}, func() float64 {
		return (p.State().Rating - g.center) / g.scale
	})
}

// Phi maps the deviation of p to the internal scale.
func (g *Glicko2) Phi(p Rated) float64 {
	return g.memo.must(memoKey{fn: fnPhi, player: p}, func() float64 {
		return p.State().Deviation / g.scale
	})
}

// G weights an opponent by its uncertainty.
func (g *Glicko2) G(p Rated) float64 {
	return g.memo.must(memoKey{fn: fnG, player: p}, func() float64 {
		return weight(g.Phi(p))
	})
}

func weight(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// Expectation is the expected score of p against e.
func (g *Glicko2) Expectation(p, e Rated) float64 {
	return g.memo.must(memoKey{fn: fnExpect, player: p, enemy: e}, func() float64 {
		return 1 / (1 + math.Exp(-g.G(e)*(g.Mu(p)-g.Mu(e))))
	})
}

type game struct {
	enemy Rated
	score float64 // 0 loss, 0.5 draw, 1 win
}

// games lists the opponents of p in period with the score p obtained.
func (g *Glicko2) games(p Rated, period *rating.Batch) ([]game, error) {
	if period.Len() == 0 {
		return nil, &rating.DegenerateStateError{Op: "estimated variance", Reason: "no matches in period"}
	}
	out := make([]game, 0, period.Len())
	for _, m := range period.Matches() {
		enemy, err := m.Enemy(p)
		if err != nil {
			return nil, err
		}
		e, err := g.own(enemy)
		if err != nil {
			return nil, err
		}
		result, err := m.Result(p)
		if err != nil {
			return nil, err
		}
		out = append(out, game{enemy: e, score: float64(result+1) / 2})
	}
	return out, nil
}

// EstimatedVariance is v, the variance of the rating of p based only on the
// outcomes of period.
func (g *Glicko2) EstimatedVariance(p Rated, period *rating.Batch) (float64, error) {
	return g.memo.get(memoKey{fn: fnVariance, player: p, period: period}, func() (float64, error) {
		games, err := g.games(p, period)
		if err != nil {
			return 0, err
		}
		inv := 0.0
		for _, gm := range games {
			e := g.Expectation(p, gm.enemy)
			w := g.G(gm.enemy)
			inv += w * w * e * (1 - e)
		}
		if !(inv > 0) || math.IsInf(inv, 0) {
			return 0, &rating.DegenerateStateError{Op: "estimated variance", Reason: "expected outcomes are certain"}
		}
		return 1 / inv, nil
	})
}

// improvement is the sum of g(e)*(score-E) over the period.
func (g *Glicko2) improvement(p Rated, period *rating.Batch) (float64, error) {
	games, err := g.games(p, period)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, gm := range games {
		sum += g.G(gm.enemy) * (gm.score - g.Expectation(p, gm.enemy))
	}
	return sum, nil
}

// Delta is the estimated rating improvement of p over the period.
func (g *Glicko2) Delta(p Rated, period *rating.Batch) (float64, error) {
	return g.memo.get(memoKey{fn: fnDelta, player: p, period: period}, func() (float64, error) {
		v, err := g.EstimatedVariance(p, period)
		if err != nil {
			return 0, err
		}
		sum, err := g.improvement(p, period)
		if err != nil {
			return 0, err
		}
		return v * sum, nil
	})
}

// EstimateVolatility solves for the new volatility of p.
func (g *Glicko2) EstimateVolatility(p Rated, period *rating.Batch) (float64, error) {
	return g.memo.get(memoKey{fn: fnVolatility, player: p, period: period}, func() (float64, error) {
		v, err := g.EstimatedVariance(p, period)
		if err != nil {
			return 0, err
		}
		delta, err := g.Delta(p, period)
		if err != nil {
			return 0, err
		}
		return g.solveVolatility(p.State().Volatility, delta, g.Phi(p), v)
	})
}

// solveVolatility finds the root of
//
//	f(x) = e^x(Δ²-φ²-v-e^x) / 2(φ²+v+e^x)² - (x-ln σ²)/τ²
//
// with the Illinois variant of regula falsi and returns e^(x/2).
func (g *Glicko2) solveVolatility(sigma, delta, phi, v float64) (float64, error) {
	a := math.Log(sigma * sigma)
	d2, p2, tau2 := delta*delta, phi*phi, g.tau*g.tau
	f := func(x float64) float64 {
		ex := math.Exp(x)
		den := p2 + v + ex
		return ex*(d2-p2-v-ex)/(2*den*den) - (x-a)/tau2
	}

	A := a
	var B float64
	if d2 > p2+v {
		B = math.Log(d2 - p2 - v)
	} else {
		k := 1
		for f(a-float64(k)*g.tau) < 0 {
			k++
			if k > g.maxIterations {
				return 0, &rating.ConvergenceError{Op: "volatility bracket", Iterations: k}
			}
		}
		B = a - float64(k)*g.tau
	}

	fA, fB := f(A), f(B)
	iterations := 0
	for math.Abs(B-A) > g.epsilon {
		if iterations >= g.maxIterations {
			return 0, &rating.ConvergenceError{Op: "volatility solve", Iterations: iterations}
		}
		iterations++

		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	metrics.RecordVolatilityIterations(iterations)

	sigmaPrime := math.Exp(A / 2)
	if math.IsNaN(sigmaPrime) || math.IsInf(sigmaPrime, 0) {
		return 0, &rating.DegenerateStateError{Op: "volatility solve", Reason: "non-finite volatility"}
	}
	return sigmaPrime, nil
}

// next computes the post-period state of p without writing it.
func (g *Glicko2) next(p Rated, period *rating.Batch) (State, error) {
	v, err := g.EstimatedVariance(p, period)
	if err != nil {
		return State{}, err
	}
	sigma, err := g.EstimateVolatility(p, period)
	if err != nil {
		return State{}, err
	}
	sum, err := g.improvement(p, period)
	if err != nil {
		return State{}, err
	}

	phi := g.Phi(p)
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiPrime := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muPrime := g.Mu(p) + phiPrime*phiPrime*sum

	return State{
		Rating:     g.scale*muPrime + g.center,
		Deviation:  g.scale * phiPrime,
		Volatility: sigma,
	}, nil
}
