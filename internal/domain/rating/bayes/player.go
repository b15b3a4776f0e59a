package bayes

import (
	"math"

	"github.com/okian/ranked/internal/domain/rating"
)

// Player holds one competitor's belief.
type Player struct {
	belief Belief
	epoch  *rating.Epoch
}

func (p *Player) Skill() float64       { return p.belief.Mu }
func (p *Player) Consistency() float64 { return p.belief.Sigma }
func (p *Player) Belief() Belief       { return p.belief }

func (p *Player) set(b Belief) {
	p.belief = b
	p.epoch.Tick()
}

// Team is a flat list of players. Skill is the sum of means and
// consistency the combined standard deviation.
type Team struct {
	players []*Player
	epoch   *rating.Epoch
}

func (t *Team) Skill() float64 {
	total := 0.0
	for _, p := range t.players {
		total += p.belief.Mu
	}
	return total
}

func (t *Team) Consistency() float64 {
	total := 0.0
	for _, p := range t.players {
		total += p.belief.Sigma * p.belief.Sigma
	}
	return math.Sqrt(total)
}

// Members returns the players of the team.
func (t *Team) Members() []rating.Subject {
	out := make([]rating.Subject, len(t.players))
	for i, p := range t.players {
		out[i] = p
	}
	return out
}
