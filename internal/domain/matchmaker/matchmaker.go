// Package matchmaker groups a pool into teams of similar estimated skill.
//
// Competitors are sorted by skill and cut into brackets of one match each.
// Inside a bracket the order is shuffled before players are dealt to teams
// round-robin, so neighbours in skill do not always end up together.
package matchmaker

import (
	"context"
	"math/rand"
	"sort"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/logger"
	"github.com/okian/ranked/pkg/metrics"
)

// Pool is an indexed, read-only view of the competitors.
type Pool interface {
	Len() int
	Skill(i int) float64
}

// Subjects adapts rated subjects to a Pool.
type Subjects []rating.Subject

func (s Subjects) Len() int            { return len(s) }
func (s Subjects) Skill(i int) float64 { return s[i].Skill() }

// Team lists pool indices.
type Team []int

// Match lists the teams of one game.
type Match []Team

// ReplaySink persists assignments. Failures never stop matchmaking.
type ReplaySink interface {
	Save(ctx context.Context, matches []Match) error
}

// Matchmaker produces matches from a pool. It never reorders the pool.
type Matchmaker struct {
	pool    Pool
	nTeam   int
	perTeam int
	rng     *rand.Rand
	sink    ReplaySink
	logger  logger.Logger
}

// New creates a matchmaker of nTeam teams with nPlayersPerTeam each.
func New(pool Pool, nTeam, nPlayersPerTeam int, opts ...Option) (*Matchmaker, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if nTeam < 1 || nPlayersPerTeam < 1 {
		return nil, ErrInvalidShape
	}

	m := &Matchmaker{
		pool:    pool,
		nTeam:   nTeam,
		perTeam: nPlayersPerTeam,
		rng:     rand.New(rand.NewSource(1)),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// WindowSize is the number of competitors in one match.
func (m *Matchmaker) WindowSize() int { return m.nTeam * m.perTeam }

// Matches runs one matchmaking pass over the current skills. Competitors
// that do not fill a whole window are left out of this pass.
func (m *Matchmaker) Matches() []Match {
	return m.MatchesContext(context.Background())
}

// MatchesContext is Matches with a context for the replay sink.
func (m *Matchmaker) MatchesContext(ctx context.Context) []Match {
	n := m.pool.Len()
	window := m.WindowSize()

	order := make([]int, n)
	skills := make([]float64, n)
	for i := range order {
		order[i] = i
		skills[i] = m.pool.Skill(i)
	}
	sort.SliceStable(order, func(a, b int) bool { return skills[order[a]] < skills[order[b]] })

	count := n / window
	out := make([]Match, count)
	for i := range count {
		bracket := append([]int(nil), order[i*window:(i+1)*window]...)
		m.rng.Shuffle(len(bracket), func(a, b int) { bracket[a], bracket[b] = bracket[b], bracket[a] })

		match := make(Match, m.nTeam)
		for t := range match {
			match[t] = make(Team, 0, m.perTeam)
		}
		for pos, idx := range bracket {
			match[pos%m.nTeam] = append(match[pos%m.nTeam], idx)
		}
		out[i] = match
	}

	dropped := n - count*window
	metrics.RecordMatchmakerPass(count, dropped)
	m.logger.Debug(ctx, "matchmaking pass",
		logger.Int("pool", n), logger.Int("matches", count), logger.Int("dropped", dropped))

	if m.sink != nil && count > 0 {
		if err := m.sink.Save(ctx, out); err != nil {
			metrics.RecordReplayError()
			m.logger.Warn(ctx, "replay sink failed", logger.Error(err))
		}
	}
	return out
}
