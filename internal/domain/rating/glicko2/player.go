package glicko2

import (
	"sync"

	"github.com/okian/ranked/internal/domain/rating"
)

// State is the Glicko2 triple on the rating scale.
type State struct {
	Rating     float64
	Deviation  float64
	Volatility float64
}

// Rated is a Glicko2 subject: a Player or a Team built by the same ranker.
type Rated interface {
	rating.Subject
	State() State
	apply(s State) error
	clock() *rating.Epoch
}

// Player holds one competitor's Glicko2 state.
type Player struct {
	state State
	epoch *rating.Epoch
}

func (p *Player) Skill() float64       { return p.state.Rating }
func (p *Player) Consistency() float64 { return p.state.Deviation }
func (p *Player) State() State         { return p.state }
func (p *Player) Rating() float64      { return p.state.Rating }
func (p *Player) Deviation() float64   { return p.state.Deviation }
func (p *Player) Volatility() float64  { return p.state.Volatility }
func (p *Player) clock() *rating.Epoch { return p.epoch }

// Interval is the 95% confidence range of the rating.
func (p *Player) Interval() (lo, hi float64) {
	eps := 2 * p.state.Deviation
	return p.state.Rating - eps, p.state.Rating + eps
}

func (p *Player) apply(s State) error {
	p.state = s
	p.epoch.Tick()
	return nil
}

// Team sums member ratings and combines deviations and volatilities as
// root sum of squares. Aggregates are cached until any rating of the owning
// ranker changes or Reset is called.
type Team struct {
	members []Rated
	epoch   *rating.Epoch

	mu     sync.Mutex
	cached State
	at     uint64
	valid  bool
}

func (t *Team) Skill() float64       { return t.State().Rating }
func (t *Team) Consistency() float64 { return t.State().Deviation }
func (t *Team) Rating() float64      { return t.State().Rating }
func (t *Team) Deviation() float64   { return t.State().Deviation }
func (t *Team) Volatility() float64  { return t.State().Volatility }
func (t *Team) clock() *rating.Epoch { return t.epoch }

// Members returns the team members.
func (t *Team) Members() []rating.Subject {
	out := make([]rating.Subject, len(t.members))
	for i, m := range t.members {
		out[i] = m
	}
	return out
}

// State returns the aggregated triple.
func (t *Team) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.epoch.Now()
	if t.valid && t.at == now {
		return t.cached
	}
	r, d, v := t.columns()
	t.cached = State{
		Rating:     rating.Sum.Of(r),
		Deviation:  rating.RootSumSquares.Of(d),
		Volatility: rating.RootSumSquares.Of(v),
	}
	t.at, t.valid = now, true
	return t.cached
}

// Reset drops the cached aggregate.
func (t *Team) Reset() {
	t.mu.Lock()
	t.valid = false
	t.mu.Unlock()
}

func (t *Team) columns() (r, d, v []float64) {
	r = make([]float64, len(t.members))
	d = make([]float64, len(t.members))
	v = make([]float64, len(t.members))
	for i, m := range t.members {
		s := m.State()
		r[i], d[i], v[i] = s.Rating, s.Deviation, s.Volatility
	}
	return r, d, v
}

// apply moves every component of the team to s, sharing each difference
// among members in proportion to their current contribution.
func (t *Team) apply(s State) error {
	total := t.State()
	r, d, v := t.columns()

	nr, err := rating.Sum.Redistribute(r, total.Rating, s.Rating)
	if err != nil {
		return err
	}
	nd, err := rating.RootSumSquares.Redistribute(d, total.Deviation, s.Deviation)
	if err != nil {
		return err
	}
	nv, err := rating.RootSumSquares.Redistribute(v, total.Volatility, s.Volatility)
	if err != nil {
		return err
	}

	for i, m := range t.members {
		if err := m.apply(State{Rating: nr[i], Deviation: nd[i], Volatility: nv[i]}); err != nil {
			return err
		}
	}
	t.Reset()
	return nil
}
