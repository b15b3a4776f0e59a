package simulation

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/ranked/internal/domain/rating"
)

// TruthConfig describes the hidden skill model of a synthetic pool.
type TruthConfig struct {
	// SkillMean and SkillVolatility shape the skill distribution of the pool.
	SkillMean       float64
	SkillVolatility float64

	// Consistency of a competitor is drawn uniformly from this range; it is
	// the spread of its form from one game to the next.
	ConsistencyLower float64
	ConsistencyUpper float64

	// GameRandomness is the noise every game adds on top of form.
	GameRandomness float64
}

// DefaultTruth returns a pool centred on 1500 whose skills mostly fall in
// [1000, 2000].
func DefaultTruth() TruthConfig {
	return TruthConfig{
		SkillMean:        1500,
		SkillVolatility:  500.0 / 3,
		ConsistencyLower: 32,
		ConsistencyUpper: 64,
		GameRandomness:   16,
	}
}

// Validate checks the model is usable.
func (t TruthConfig) Validate() error {
	switch {
	case t.SkillVolatility < 0:
		return fmt.Errorf("%w: skill volatility must not be negative", ErrInvalidTruth)
	case t.ConsistencyLower < 0 || t.ConsistencyUpper < t.ConsistencyLower:
		return fmt.Errorf("%w: consistency range [%g, %g]", ErrInvalidTruth, t.ConsistencyLower, t.ConsistencyUpper)
	case t.GameRandomness < 0:
		return fmt.Errorf("%w: game randomness must not be negative", ErrInvalidTruth)
	}
	return nil
}

// Competitor pairs a hidden truth with the ranker's estimate.
type Competitor struct {
	ID          uuid.UUID
	Index       int
	Skill       float64
	Consistency float64
	Estimate    rating.Subject

	randomness float64
}

// Performance samples one game: N(N(skill, consistency), randomness).
func (c *Competitor) Performance(rng *rand.Rand) float64 {
	form := c.Skill + rng.NormFloat64()*c.Consistency
	return form + rng.NormFloat64()*c.randomness
}
