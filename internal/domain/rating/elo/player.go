package elo

import (
	"sync"

	"github.com/okian/ranked/internal/domain/rating"
)

// Rated is an Elo subject: a Player or a Team built by the same ranker.
type Rated interface {
	rating.Subject
	Mu() float64
	setMu(v float64) error
}

// Player holds a single Elo rating.
type Player struct {
	mu    float64
	epoch *rating.Epoch
}

func (p *Player) Skill() float64       { return p.mu }
func (p *Player) Consistency() float64 { return 0 }

// Mu returns the rating.
func (p *Player) Mu() float64 { return p.mu }

func (p *Player) setMu(v float64) error {
	p.mu = v
	p.epoch.Tick()
	return nil
}

// Team aggregates members additively. The sum is cached until any rating of
// the owning ranker changes or Reset is called.
type Team struct {
	members []Rated
	epoch   *rating.Epoch

	mu     sync.Mutex
	cached float64
	at     uint64
	valid  bool
}

func (t *Team) Skill() float64       { return t.Mu() }
func (t *Team) Consistency() float64 { return 0 }

// Members returns the team members.
func (t *Team) Members() []rating.Subject {
	out := make([]rating.Subject, len(t.members))
	for i, m := range t.members {
		out[i] = m
	}
	return out
}

// Mu returns the sum of member ratings.
func (t *Team) Mu() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.epoch.Now()
	if t.valid && t.at == now {
		return t.cached
	}
	values := make([]float64, len(t.members))
	for i, m := range t.members {
		values[i] = m.Mu()
	}
	t.cached, t.at, t.valid = rating.Sum.Of(values), now, true
	return t.cached
}

// Reset drops the cached aggregate.
func (t *Team) Reset() {
	t.mu.Lock()
	t.valid = false
	t.mu.Unlock()
}

func (t *Team) setMu(v float64) error {
	total := t.Mu()
	current := make([]float64, len(t.members))
	for i, m := range t.members {
		current[i] = m.Mu()
	}

	next, err := rating.Sum.Redistribute(current, total, v)
	if err != nil {
		return err
	}
	for i, m := range t.members {
		if err := m.setMu(next[i]); err != nil {
			return err
		}
	}
	t.Reset()
	return nil
}
