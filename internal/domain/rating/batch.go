package rating

// Batch is an ordered, finite sequence of matches rated as one period.
type Batch struct {
	list []*Match
}

// NewBatch builds a batch. The slice is copied.
func NewBatch(matches ...*Match) *Batch {
	return &Batch{list: append([]*Match(nil), matches...)}
}

// Len returns the number of matches.
func (b *Batch) Len() int { return len(b.list) }

// Matches returns the matches in order.
func (b *Batch) Matches() []*Match {
	return append([]*Match(nil), b.list...)
}

// Subjects returns every direct competitor in order of first appearance.
func (b *Batch) Subjects() []Subject {
	seen := make(map[Subject]struct{})
	var out []Subject
	for _, m := range b.list {
		for _, e := range m.entries {
			if _, ok := seen[e.Subject]; ok {
				continue
			}
			seen[e.Subject] = struct{}{}
			out = append(out, e.Subject)
		}
	}
	return out
}

// PeriodOf restricts the batch to the matches s competes in directly.
func (b *Batch) PeriodOf(s Subject) *Batch {
	period := &Batch{}
	for _, m := range b.list {
		if m.index(s) >= 0 {
			period.list = append(period.list, m)
		}
	}
	return period
}

func (b *Batch) matches() []*Match { return b.list }
