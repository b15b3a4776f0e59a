package rating

import (
	"fmt"
)

// Ranker estimates skills from match outcomes. Subjects passed to a ranker
// must have been created by that same ranker.
type Ranker interface {
	// Name identifies the algorithm in logs and metrics.
	Name() string

	// NewPlayer creates a player at the ranker's default state.
	NewPlayer() Subject

	// NewTeam groups members into a team; members may be teams themselves.
	NewTeam(members ...Subject) (Subject, error)

	// Win returns the probability that the first competitor beats the second.
	Win(m *Match) (float64, error)

	// UpdateMatch applies one match.
	UpdateMatch(m *Match) error

	// UpdateBatch applies one rating period.
	UpdateBatch(b *Batch) error
}

// Ager is implemented by rankers that grow uncertainty for idle competitors.
type Ager interface {
	Age(subjects ...Subject) error
}

// Outcome is either a *Match or a *Batch.
type Outcome interface {
	matches() []*Match
}

// Update dispatches o to UpdateMatch or UpdateBatch.
func Update(r Ranker, o Outcome) error {
	switch v := o.(type) {
	case *Match:
		return r.UpdateMatch(v)
	case *Batch:
		return r.UpdateBatch(v)
	default:
		return fmt.Errorf("update: unexpected outcome %T", o)
	}
}

// FoldBatch applies update to every match of b in order. It is the batch
// semantics of online rankers.
func FoldBatch(b *Batch, update func(*Match) error) error {
	for i, m := range b.list {
		if err := update(m); err != nil {
			return fmt.Errorf("match %d: %w", i, err)
		}
	}
	return nil
}
