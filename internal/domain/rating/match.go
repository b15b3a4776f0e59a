package rating

import (
	"sort"
)

// Entry is one line of a match leaderboard.
type Entry struct {
	Subject Subject
	Score   float64
}

// Score pairs a subject with its score in a match.
func Score(s Subject, score float64) Entry {
	return Entry{Subject: s, Score: score}
}

// Match is an ordered leaderboard of competitors. A higher score is a better
// placement and equal scores are a draw.
type Match struct {
	entries []Entry
}

// NewMatch builds a match from its entries. The slice is copied.
func NewMatch(entries ...Entry) *Match {
	return &Match{entries: append([]Entry(nil), entries...)}
}

// Len returns the number of competitors.
func (m *Match) Len() int { return len(m.entries) }

// Entry returns the i-th leaderboard entry.
func (m *Match) Entry(i int) Entry { return m.entries[i] }

// Leaderboard returns a copy of the entries in insertion order.
func (m *Match) Leaderboard() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Subjects returns the competitors in insertion order.
func (m *Match) Subjects() []Subject {
	out := make([]Subject, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Subject
	}
	return out
}

// Contains reports whether s competes directly or as a member of a team.
func (m *Match) Contains(s Subject) bool {
	for _, e := range m.entries {
		if contains(e.Subject, s) {
			return true
		}
	}
	return false
}

func (m *Match) index(s Subject) int {
	for i, e := range m.entries {
		if e.Subject == s {
			return i
		}
	}
	return -1
}

// Enemy returns the other competitor of a two-competitor match.
func (m *Match) Enemy(s Subject) (Subject, error) {
	if len(m.entries) != 2 {
		return nil, &UnsupportedArityError{Op: "enemy", Arity: len(m.entries)}
	}
	switch m.index(s) {
	case 0:
		return m.entries[1].Subject, nil
	case 1:
		return m.entries[0].Subject, nil
	default:
		return nil, ErrNotInMatch
	}
}

// Result returns +1, 0 or -1 when s won, drew or lost a two-competitor match.
// Only the order of the scores matters, never their magnitude.
func (m *Match) Result(s Subject) (int, error) {
	if len(m.entries) != 2 {
		return 0, &UnsupportedArityError{Op: "result", Arity: len(m.entries)}
	}
	i := m.index(s)
	if i < 0 {
		return 0, ErrNotInMatch
	}
	mine, theirs := m.entries[i].Score, m.entries[1-i].Score
	switch {
	case mine > theirs:
		return 1, nil
	case mine < theirs:
		return -1, nil
	default:
		return 0, nil
	}
}

// Ranks returns the dense placement of every competitor, by insertion index.
// Rank 0 is the best; equal scores share a rank.
func (m *Match) Ranks() []int {
	order := make([]int, len(m.entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.entries[order[a]].Score > m.entries[order[b]].Score
	})

	ranks := make([]int, len(m.entries))
	rank := 0
	for pos, idx := range order {
		if pos > 0 && m.entries[idx].Score < m.entries[order[pos-1]].Score {
			rank++
		}
		ranks[idx] = rank
	}
	return ranks
}

func (m *Match) matches() []*Match { return []*Match{m} }
