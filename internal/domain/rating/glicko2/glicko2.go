// Package glicko2 implements the Glicko-2 rating system with simultaneous
// period updates, team aggregation and a memoized volatility solve.
//
// Naming follows Glickman's paper: Mu and Phi are the rating and deviation
// on the internal scale, G weights an opponent by its uncertainty, v is the
// estimated variance and Delta the estimated improvement.
// See https://www.glicko.net/glicko/glicko2.pdf.
package glicko2

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/logger"
	"github.com/okian/ranked/pkg/metrics"
)

const (
	defaultCenter        = 1500
	defaultScale         = 173.7178
	defaultTau           = 0.6
	defaultEpsilon       = 1e-6
	defaultMaxIterations = 100
	deviationFactor      = 1.2
)

// Glicko2 is a period-based ranker. All competitors of a batch are updated
// from the same pre-period snapshot.
type Glicko2 struct {
	center            float64
	scale             float64
	tau               float64
	initialDeviation  float64
	initialVolatility float64
	epsilon           float64
	maxIterations     int
	workers           int

	epoch  rating.Epoch
	memo   *memo
	logger logger.Logger
}

var (
	_ rating.Ranker = (*Glicko2)(nil)
	_ rating.Ager   = (*Glicko2)(nil)
)

// New creates a Glicko2 ranker.
func New(opts ...Option) (*Glicko2, error) {
	g := &Glicko2{
		center:        defaultCenter,
		scale:         defaultScale,
		tau:           defaultTau,
		epsilon:       defaultEpsilon,
		maxIterations: defaultMaxIterations,
		workers:       1,
		memo:          newMemo(),
		logger:        logger.Nop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.initialDeviation == 0 {
		g.initialDeviation = g.scale * deviationFactor
	}
	if g.initialVolatility == 0 {
		g.initialVolatility = g.tau / 2
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Glicko2) validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"scale", g.scale},
		{"tau", g.tau},
		{"epsilon", g.epsilon},
		{"initial deviation", g.initialDeviation},
		{"initial volatility", g.initialVolatility},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return &rating.ConfigurationError{Field: p.field, Reason: "must be positive"}
		}
	}
	if math.IsNaN(g.center) || math.IsInf(g.center, 0) {
		return &rating.ConfigurationError{Field: "center", Reason: "must be finite"}
	}
	if g.maxIterations < 1 {
		return &rating.ConfigurationError{Field: "max iterations", Reason: "must be at least 1"}
	}
	if g.workers < 1 {
		return &rating.ConfigurationError{Field: "workers", Reason: "must be at least 1"}
	}
	return nil
}

// Name implements rating.Ranker.
func (g *Glicko2) Name() string { return "glicko2" }

// PlayerAt creates a player with an explicit state.
func (g *Glicko2) PlayerAt(r, deviation, volatility float64) *Player {
	return &Player{state: State{Rating: r, Deviation: deviation, Volatility: volatility}, epoch: &g.epoch}
}

// NewPlayer implements rating.Ranker: (center, initial deviation, initial volatility).
func (g *Glicko2) NewPlayer() rating.Subject {
	return g.PlayerAt(g.center, g.initialDeviation, g.initialVolatility)
}

// NewTeam implements rating.Ranker.
func (g *Glicko2) NewTeam(members ...rating.Subject) (rating.Subject, error) {
	if len(members) == 0 {
		return nil, &rating.DegenerateStateError{Op: "new team", Reason: "team has no members"}
	}
	t := &Team{members: make([]Rated, len(members)), epoch: &g.epoch}
	for i, m := range members {
		r, err := g.own(m)
		if err != nil {
			return nil, err
		}
		t.members[i] = r
	}
	return t, nil
}

func (g *Glicko2) own(s rating.Subject) (Rated, error) {
	r, ok := s.(Rated)
	if !ok || r.clock() != &g.epoch {
		return nil, fmt.Errorf("%w: %T", rating.ErrForeignSubject, s)
	}
	return r, nil
}

// Win is the probability that the first competitor beats the second, with
// both deviations folded into the weight.
func (g *Glicko2) Win(m *rating.Match) (float64, error) {
	if m.Len() != 2 {
		return 0, &rating.UnsupportedArityError{Op: "win", Arity: m.Len()}
	}
	p1, err := g.own(m.Entry(0).Subject)
	if err != nil {
		return 0, err
	}
	p2, err := g.own(m.Entry(1).Subject)
	if err != nil {
		return 0, err
	}
	phi1, phi2 := g.Phi(p1), g.Phi(p2)
	w := weight(math.Sqrt(phi1*phi1 + phi2*phi2))
	return 1 / (1 + math.Exp(-w*(g.Mu(p1)-g.Mu(p2)))), nil
}

// UpdateMatch implements rating.Ranker: every competitor of m is updated
// from the pre-match snapshot.
func (g *Glicko2) UpdateMatch(m *rating.Match) error {
	return g.UpdateBatch(rating.NewBatch(m))
}

// UpdateBatch implements rating.Ranker with a simultaneous update. Nothing is
// written unless every competitor's new state could be computed.
func (g *Glicko2) UpdateBatch(b *rating.Batch) error {
	start := time.Now()
	err := g.updateBatch(b)
	metrics.RecordUpdateLatency(g.Name(), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordRatingError(g.Name(), rating.Kind(err))
		g.logger.Debug(context.Background(), "glicko2 update failed", logger.Error(err))
		return err
	}
	metrics.RecordMatchRated(g.Name(), b.Len())
	metrics.RecordBatchRated(g.Name())
	return nil
}

func (g *Glicko2) updateBatch(b *rating.Batch) error {
	defer g.memo.clear()

	subjects := b.Subjects()
	rated := make([]Rated, len(subjects))
	periods := make([]*rating.Batch, len(subjects))
	for i, s := range subjects {
		r, err := g.own(s)
		if err != nil {
			return err
		}
		rated[i], periods[i] = r, b.PeriodOf(s)
	}

	next, err := g.compute(rated, periods)
	if err != nil {
		return err
	}

	for i, r := range rated {
		if err := r.apply(next[i]); err != nil {
			return fmt.Errorf("write back: %w", err)
		}
	}
	g.logger.Debug(context.Background(), "glicko2 period applied",
		logger.Int("matches", b.Len()), logger.Int("competitors", len(rated)))
	return nil
}

// compute evaluates every competitor's next state. With several workers the
// competitors are split into disjoint contiguous chunks; each chunk only
// reads shared state and writes its own slots of the result.
func (g *Glicko2) compute(rated []Rated, periods []*rating.Batch) ([]State, error) {
	next := make([]State, len(rated))
	errs := make([]error, len(rated))

	run := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			next[i], errs[i] = g.next(rated[i], periods[i])
		}
	}

	workers := min(g.workers, len(rated))
	if workers <= 1 {
		run(0, len(rated))
	} else {
		chunk := (len(rated) + workers - 1) / workers
		var wg sync.WaitGroup
		for lo := 0; lo < len(rated); lo += chunk {
			hi := min(lo+chunk, len(rated))
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(lo, hi)
			}()
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// UpdatePlayer rates p alone over period without touching its opponents.
// period must contain at least one match of p.
func (g *Glicko2) UpdatePlayer(p Rated, period *rating.Batch) error {
	defer g.memo.clear()
	if _, err := g.own(p); err != nil {
		return err
	}
	s, err := g.next(p, period)
	if err != nil {
		return err
	}
	return p.apply(s)
}

// Age grows the deviation of competitors that did not play in a period:
// phi' = sqrt(phi^2 + sigma^2). Rating and volatility are unchanged.
func (g *Glicko2) Age(subjects ...rating.Subject) error {
	defer g.memo.clear()

	rated := make([]Rated, len(subjects))
	next := make([]State, len(subjects))
	for i, s := range subjects {
		r, err := g.own(s)
		if err != nil {
			return err
		}
		st := r.State()
		phi := st.Deviation / g.scale
		st.Deviation = g.scale * math.Sqrt(phi*phi+st.Volatility*st.Volatility)
		if math.IsNaN(st.Deviation) || math.IsInf(st.Deviation, 0) {
			return &rating.DegenerateStateError{Op: "age", Reason: "non-finite deviation"}
		}
		rated[i], next[i] = r, st
	}

	for i, r := range rated {
		if err := r.apply(next[i]); err != nil {
			return fmt.Errorf("write back: %w", err)
		}
	}
	return nil
}

// Hits returns how often each memoized function was called since the last
// update.
func (g *Glicko2) Hits() map[string]int { return g.memo.hits() }

// Cached returns the number of memoized values since the last update.
func (g *Glicko2) Cached() int { return g.memo.len() }
