// Package rating defines the vocabulary every rating algorithm operates on:
// subjects (players and teams), matches, batches and the Ranker contract.
package rating

import (
	"sync/atomic"
)

// Subject is anything a ranker can rate. Players and teams are both subjects;
// a team implements the capability by aggregating its members.
type Subject interface {
	// Skill is the point estimate of latent strength.
	Skill() float64
	// Consistency is the uncertainty of Skill, 0 when not modelled.
	Consistency() float64
}

// Composite is a subject made of other subjects.
type Composite interface {
	Subject
	Members() []Subject
}

// Leaves flattens s into its non-composite members, depth first.
func Leaves(s Subject) []Subject {
	c, ok := s.(Composite)
	if !ok {
		return []Subject{s}
	}
	var out []Subject
	for _, m := range c.Members() {
		out = append(out, Leaves(m)...)
	}
	return out
}

// contains reports whether needle is s or, transitively, one of its members.
func contains(s, needle Subject) bool {
	if s == needle {
		return true
	}
	c, ok := s.(Composite)
	if !ok {
		return false
	}
	for _, m := range c.Members() {
		if contains(m, needle) {
			return true
		}
	}
	return false
}

// Epoch counts rating writes for one ranker. Aggregates cache the epoch they
// were computed at and are stale once it moves.
type Epoch struct {
	n atomic.Uint64
}

// Tick records a write.
func (e *Epoch) Tick() { e.n.Add(1) }

// Now returns the current write count.
func (e *Epoch) Now() uint64 { return e.n.Load() }
