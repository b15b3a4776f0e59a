package simulation

import (
	"encoding/csv"
	"fmt"
	"iter"
	"math/rand"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/ranked/internal/domain/matchmaker"
	"github.com/okian/ranked/internal/domain/rating"
)

// Matchup produces the batches a simulation is driven by.
type Matchup interface {
	// Matches yields one batch at a time. A batch is only built once the
	// previous one was consumed, so it sees the updated estimates.
	Matches() iter.Seq2[*rating.Batch, error]
	// Pool returns the estimates in pool order.
	Pool() []rating.Subject
	// Save writes a snapshot of the matchup to path.
	Save(path string) error
}

// Synthetic is a Matchup over a generated pool. Every batch is one
// matchmaking pass over the current estimates and every match is scored by
// summing the sampled performances of each team.
type Synthetic struct {
	ranker      rating.Ranker
	truth       TruthConfig
	nTeam       int
	perTeam     int
	matches     int
	rng         *rand.Rand
	sink        matchmaker.ReplaySink
	competitors []*Competitor
}

var _ Matchup = (*Synthetic)(nil)

// SyntheticOption applies a configuration option to a Synthetic matchup.
type SyntheticOption func(*Synthetic)

// WithTruth sets the hidden skill model.
func WithTruth(t TruthConfig) SyntheticOption {
	return func(s *Synthetic) { s.truth = t }
}

// WithTeams sets the number of teams per match.
func WithTeams(n int) SyntheticOption {
	return func(s *Synthetic) { s.nTeam = n }
}

// WithPlayersPerTeam sets the team size.
func WithPlayersPerTeam(n int) SyntheticOption {
	return func(s *Synthetic) { s.perTeam = n }
}

// WithMatches sets the number of batches Matches yields.
func WithMatches(n int) SyntheticOption {
	return func(s *Synthetic) { s.matches = n }
}

// WithSeed makes the pool, the matchmaking and the games reproducible.
func WithSeed(seed int64) SyntheticOption {
	return func(s *Synthetic) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithReplaySink records every matchmaking pass.
func WithReplaySink(sink matchmaker.ReplaySink) SyntheticOption {
	return func(s *Synthetic) { s.sink = sink }
}

// NewSynthetic generates nPlayers competitors rated by ranker.
func NewSynthetic(ranker rating.Ranker, nPlayers int, opts ...SyntheticOption) (*Synthetic, error) {
	s := &Synthetic{
		ranker:  ranker,
		truth:   DefaultTruth(),
		nTeam:   2,
		perTeam: 5,
		matches: 100,
		rng:     rand.New(rand.NewSource(42)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if ranker == nil {
		return nil, &rating.ConfigurationError{Field: "ranker", Reason: "must not be nil"}
	}
	if err := s.truth.Validate(); err != nil {
		return nil, err
	}
	if s.nTeam < 1 || s.perTeam < 1 {
		return nil, matchmaker.ErrInvalidShape
	}

	for range nPlayers {
		skill := s.truth.SkillMean + s.rng.NormFloat64()*s.truth.SkillVolatility
		consistency := s.truth.ConsistencyLower + s.rng.Float64()*(s.truth.ConsistencyUpper-s.truth.ConsistencyLower)
		if _, err := s.AddCompetitor(skill, consistency); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddCompetitor adds a newcomer with a known truth and a fresh estimate.
func (s *Synthetic) AddCompetitor(skill, consistency float64) (*Competitor, error) {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return nil, fmt.Errorf("competitor id: %w", err)
	}
	c := &Competitor{
		ID:          id,
		Index:       len(s.competitors),
		Skill:       skill,
		Consistency: consistency,
		Estimate:    s.ranker.NewPlayer(),
		randomness:  s.truth.GameRandomness,
	}
	s.competitors = append(s.competitors, c)
	return c, nil
}

// SetMatches changes how many batches the next Matches call yields.
func (s *Synthetic) SetMatches(n int) { s.matches = n }

// Competitors returns the pool in index order.
func (s *Synthetic) Competitors() []*Competitor {
	return append([]*Competitor(nil), s.competitors...)
}

// Pool implements Matchup.
func (s *Synthetic) Pool() []rating.Subject {
	out := make([]rating.Subject, len(s.competitors))
	for i, c := range s.competitors {
		out[i] = c.Estimate
	}
	return out
}

// Matches implements Matchup.
func (s *Synthetic) Matches() iter.Seq2[*rating.Batch, error] {
	return func(yield func(*rating.Batch, error) bool) {
		for range s.matches {
			b, err := s.pass()
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

func (s *Synthetic) pass() (*rating.Batch, error) {
	mm, err := matchmaker.New(matchmaker.Subjects(s.Pool()), s.nTeam, s.perTeam,
		matchmaker.WithRand(s.rng), matchmaker.WithReplaySink(s.sink))
	if err != nil {
		return nil, err
	}

	assignments := mm.Matches()
	matches := make([]*rating.Match, len(assignments))
	for i, assignment := range assignments {
		entries := make([]rating.Entry, len(assignment))
		for t, team := range assignment {
			members := make([]rating.Subject, len(team))
			score := 0.0
			for j, idx := range team {
				c := s.competitors[idx]
				members[j] = c.Estimate
				score += c.Performance(s.rng)
			}
			subject, err := s.ranker.NewTeam(members...)
			if err != nil {
				return nil, fmt.Errorf("team %d of match %d: %w", t, i, err)
			}
			entries[t] = rating.Score(subject, score)
		}
		matches[i] = rating.NewMatch(entries...)
	}
	return rating.NewBatch(matches...), nil
}

// Save implements Matchup with a CSV of truth against estimate.
func (s *Synthetic) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matchup file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"pid", "id", "skill", "consistency", "estimate", "estimate_consistency"}); err != nil {
		return err
	}
	for _, c := range s.competitors {
		row := []string{
			strconv.Itoa(c.Index),
			c.ID.String(),
			formatFloat(c.Skill),
			formatFloat(c.Consistency),
			formatFloat(c.Estimate.Skill()),
			formatFloat(c.Estimate.Consistency()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
