// Package elo implements the Elo family of online rankers: a generic Elo
// with a configurable distribution and the chess variant.
package elo

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/logger"
	"github.com/okian/ranked/pkg/metrics"
)

const (
	defaultVolatility = 1
	defaultAlpha      = 1

	chessK          = 32
	chessVolatility = 400
	chessInitial    = 1500
)

// Elo is a pairwise online ranker. A batch is rated one match at a time, in order.
type Elo struct {
	name    string
	vol     float64
	alpha   float64
	k       float64 // fixed K when positive, otherwise alpha*vol*sqrt(pi)
	initial float64
	dist    Distribution
	win     func(s1, s2 float64) float64

	epoch  rating.Epoch
	logger logger.Logger
}

var _ rating.Ranker = (*Elo)(nil)

// New creates a generic Elo ranker: Win = CDF((s1-s2)/sqrt(2*vol)).
func New(opts ...Option) (*Elo, error) {
	e := &Elo{
		name:   "elo",
		vol:    defaultVolatility,
		alpha:  defaultAlpha,
		dist:   distuv.UnitNormal,
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	e.win = func(s1, s2 float64) float64 {
		return e.dist.CDF((s1 - s2) / math.Sqrt(2*e.vol))
	}
	return e, nil
}

// NewChess creates the chess variant: K = 32, Win = 1/(1+10^((s2-s1)/400)),
// players start at 1500.
func NewChess(opts ...Option) (*Elo, error) {
	e, err := New(append([]Option{
		WithK(chessK),
		WithVolatility(chessVolatility),
		WithInitialRating(chessInitial),
	}, opts...)...)
	if err != nil {
		return nil, err
	}
	e.name = "chess_elo"
	e.win = func(s1, s2 float64) float64 {
		return 1 / (1 + math.Pow(10, (s2-s1)/e.vol))
	}
	return e, nil
}

func (e *Elo) validate() error {
	switch {
	case !(e.vol > 0):
		return &rating.ConfigurationError{Field: "volatility", Reason: "must be positive"}
	case e.k == 0 && !(e.alpha > 0):
		return &rating.ConfigurationError{Field: "alpha", Reason: "must be positive"}
	case e.k < 0:
		return &rating.ConfigurationError{Field: "k", Reason: "must not be negative"}
	case e.dist == nil:
		return &rating.ConfigurationError{Field: "distribution", Reason: "must be set"}
	}
	return nil
}

// Name implements rating.Ranker.
func (e *Elo) Name() string { return e.name }

// K returns the update step size.
func (e *Elo) K() float64 {
	if e.k > 0 {
		return e.k
	}
	return e.alpha * e.vol * math.Sqrt(math.Pi)
}

// PlayerAt creates a player with an explicit rating.
func (e *Elo) PlayerAt(mu float64) *Player {
	return &Player{mu: mu, epoch: &e.epoch}
}

// NewPlayer implements rating.Ranker.
func (e *Elo) NewPlayer() rating.Subject {
	return e.PlayerAt(e.initial)
}

// NewTeam implements rating.Ranker. Members must be players or teams of this ranker.
func (e *Elo) NewTeam(members ...rating.Subject) (rating.Subject, error) {
	if len(members) == 0 {
		return nil, &rating.DegenerateStateError{Op: "new team", Reason: "team has no members"}
	}
	t := &Team{members: make([]Rated, len(members)), epoch: &e.epoch}
	for i, m := range members {
		r, err := e.own(m)
		if err != nil {
			return nil, err
		}
		t.members[i] = r
	}
	return t, nil
}

func (e *Elo) own(s rating.Subject) (Rated, error) {
	switch v := s.(type) {
	case *Player:
		if v.epoch == &e.epoch {
			return v, nil
		}
	case *Team:
		if v.epoch == &e.epoch {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", rating.ErrForeignSubject, s)
}

// Win implements rating.Ranker.
func (e *Elo) Win(m *rating.Match) (float64, error) {
	if m.Len() != 2 {
		return 0, &rating.UnsupportedArityError{Op: "win", Arity: m.Len()}
	}
	return e.win(m.Entry(0).Subject.Skill(), m.Entry(1).Subject.Skill()), nil
}

// UpdateMatch implements rating.Ranker.
func (e *Elo) UpdateMatch(m *rating.Match) error {
	start := time.Now()
	err := e.updateMatch(m)
	e.observe(1, start, err)
	return err
}

func (e *Elo) updateMatch(m *rating.Match) error {
	if m.Len() != 2 {
		return &rating.UnsupportedArityError{Op: "update", Arity: m.Len()}
	}
	p1, err := e.own(m.Entry(0).Subject)
	if err != nil {
		return err
	}
	p2, err := e.own(m.Entry(1).Subject)
	if err != nil {
		return err
	}

	result, err := m.Result(p1)
	if err != nil {
		return err
	}
	expected, err := e.Win(m)
	if err != nil {
		return err
	}

	delta := e.K() * (float64(result+1)/2 - expected)
	mu1, mu2 := p1.Mu(), p2.Mu()
	if err := p1.setMu(mu1 + delta); err != nil {
		return err
	}
	return p2.setMu(mu2 - delta)
}

// UpdateBatch implements rating.Ranker by folding UpdateMatch over b.
func (e *Elo) UpdateBatch(b *rating.Batch) error {
	start := time.Now()
	err := rating.FoldBatch(b, e.updateMatch)
	e.observe(b.Len(), start, err)
	if err == nil {
		metrics.RecordBatchRated(e.name)
	}
	return err
}

func (e *Elo) observe(n int, start time.Time, err error) {
	metrics.RecordUpdateLatency(e.name, time.Since(start).Seconds())
	if err != nil {
		metrics.RecordRatingError(e.name, rating.Kind(err))
		e.logger.Debug(context.Background(), "elo update failed", logger.String("ranker", e.name), logger.Error(err))
		return
	}
	metrics.RecordMatchRated(e.name, n)
}
