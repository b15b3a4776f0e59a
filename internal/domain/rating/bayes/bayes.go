// Package bayes adapts a Gaussian-belief rating engine to rating.Ranker.
//
// The adapter owns the subjects and the match translation: bare players
// become one-member teams, scores become dense ranks and the engine's
// posterior beliefs are written back to the players.
package bayes

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/logger"
	"github.com/okian/ranked/pkg/metrics"
)

// Belief is a Gaussian skill estimate.
type Belief struct {
	Mu    float64
	Sigma float64
}

// Engine performs the Bayesian inference. Teams are lists of member beliefs
// and ranks are dense with 0 for the best placement.
type Engine interface {
	Prior() Belief
	Rate(teams [][]Belief, ranks []int) ([][]Belief, error)
	Win(a, b []Belief) float64
	Quality(a, b []Belief) float64
}

// Bayes is a rating.Ranker backed by an Engine.
type Bayes struct {
	engine Engine
	epoch  rating.Epoch
	logger logger.Logger
}

var _ rating.Ranker = (*Bayes)(nil)

// Option applies a configuration option to the Bayes ranker.
type Option func(*Bayes)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bayes) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Bayes ranker over engine.
func New(engine Engine, opts ...Option) (*Bayes, error) {
	if engine == nil {
		return nil, &rating.ConfigurationError{Field: "engine", Reason: "must not be nil"}
	}
	b := &Bayes{engine: engine, logger: logger.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name implements rating.Ranker.
func (b *Bayes) Name() string { return "bayes" }

// PlayerAt creates a player with an explicit belief.
func (b *Bayes) PlayerAt(mu, sigma float64) *Player {
	return &Player{belief: Belief{Mu: mu, Sigma: sigma}, epoch: &b.epoch}
}

// NewPlayer implements rating.Ranker with the engine prior.
func (b *Bayes) NewPlayer() rating.Subject {
	prior := b.engine.Prior()
	return b.PlayerAt(prior.Mu, prior.Sigma)
}

// NewTeam implements rating.Ranker. Nested teams are flattened into their
// players.
func (b *Bayes) NewTeam(members ...rating.Subject) (rating.Subject, error) {
	if len(members) == 0 {
		return nil, &rating.DegenerateStateError{Op: "new team", Reason: "team has no members"}
	}
	t := &Team{epoch: &b.epoch}
	for _, m := range members {
		players, err := b.team(m)
		if err != nil {
			return nil, err
		}
		t.players = append(t.players, players...)
	}
	return t, nil
}

// team normalizes a competitor to its players.
func (b *Bayes) team(s rating.Subject) ([]*Player, error) {
	switch v := s.(type) {
	case *Player:
		if v.epoch == &b.epoch {
			return []*Player{v}, nil
		}
	case *Team:
		if v.epoch == &b.epoch {
			return v.players, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", rating.ErrForeignSubject, s)
}

func (b *Bayes) teams(m *rating.Match) ([][]*Player, [][]Belief, error) {
	teams := make([][]*Player, m.Len())
	beliefs := make([][]Belief, m.Len())
	for i := range m.Len() {
		players, err := b.team(m.Entry(i).Subject)
		if err != nil {
			return nil, nil, err
		}
		teams[i] = players
		beliefs[i] = make([]Belief, len(players))
		for j, p := range players {
			beliefs[i][j] = p.belief
		}
	}
	return teams, beliefs, nil
}

func (b *Bayes) pair(op string, m *rating.Match) ([]Belief, []Belief, error) {
	if m.Len() != 2 {
		return nil, nil, &rating.UnsupportedArityError{Op: op, Arity: m.Len()}
	}
	_, beliefs, err := b.teams(m)
	if err != nil {
		return nil, nil, err
	}
	return beliefs[0], beliefs[1], nil
}

// Win is the probability that the first team beats the second.
func (b *Bayes) Win(m *rating.Match) (float64, error) {
	t1, t2, err := b.pair("win", m)
	if err != nil {
		return 0, err
	}
	return b.engine.Win(t1, t2), nil
}

// Quality is the engine's draw quality of a two-team match, in (0, 1].
func (b *Bayes) Quality(m *rating.Match) (float64, error) {
	t1, t2, err := b.pair("quality", m)
	if err != nil {
		return 0, err
	}
	return b.engine.Quality(t1, t2), nil
}

// UpdateMatch implements rating.Ranker.
func (b *Bayes) UpdateMatch(m *rating.Match) error {
	start := time.Now()
	err := b.updateMatch(m)
	b.observe(start, 1, err)
	return err
}

func (b *Bayes) updateMatch(m *rating.Match) error {
	if m.Len() < 2 {
		return &rating.UnsupportedArityError{Op: "update", Arity: m.Len()}
	}
	teams, beliefs, err := b.teams(m)
	if err != nil {
		return err
	}

	posterior, err := b.engine.Rate(beliefs, m.Ranks())
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	if len(posterior) != len(teams) {
		return &rating.DegenerateStateError{Op: "update", Reason: "engine returned a different number of teams"}
	}
	for i, players := range teams {
		if len(posterior[i]) != len(players) {
			return &rating.DegenerateStateError{Op: "update", Reason: "engine returned a different team size"}
		}
	}

	for i, players := range teams {
		for j, p := range players {
			p.set(posterior[i][j])
		}
	}
	return nil
}

// UpdateBatch implements rating.Ranker as a sequential fold.
func (b *Bayes) UpdateBatch(batch *rating.Batch) error {
	if err := rating.FoldBatch(batch, b.UpdateMatch); err != nil {
		return err
	}
	metrics.RecordBatchRated(b.Name())
	return nil
}

func (b *Bayes) observe(start time.Time, n int, err error) {
	metrics.RecordUpdateLatency(b.Name(), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordRatingError(b.Name(), rating.Kind(err))
		b.logger.Debug(context.Background(), "bayes update failed", logger.Error(err))
		return
	}
	metrics.RecordMatchRated(b.Name(), n)
}
