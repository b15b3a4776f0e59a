package glicko2

import (
	"sync"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/metrics"
)

// Memoized function names.
const (
	fnMu         = "mu"
	fnPhi        = "phi"
	fnG          = "g"
	fnExpect     = "expectation"
	fnVariance   = "estimated_variance"
	fnDelta      = "delta"
	fnVolatility = "estimate_volatility"
)

// memoKey identifies one pure call structurally: the function, the subject
// handles it reads and the period it is restricted to.
type memoKey struct {
	fn     string
	player Rated
	enemy  Rated
	period *rating.Batch
}

// memo caches pure results for one ranker until the next rating write.
type memo struct {
	mu     sync.Mutex
	values map[memoKey]float64
	calls  map[memoKey]int
}

func newMemo() *memo {
	return &memo{
		values: make(map[memoKey]float64),
		calls:  make(map[memoKey]int),
	}
}

// get returns the cached value for key or computes and stores it. The lock
// is not held while computing since computations recurse into the memo.
func (m *memo) get(key memoKey, compute func() (float64, error)) (float64, error) {
	m.mu.Lock()
	m.calls[key]++
	v, ok := m.values[key]
	m.mu.Unlock()

	metrics.RecordMemoCall(key.fn, ok)
	if ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.values[key] = v
	m.mu.Unlock()
	return v, nil
}

func (m *memo) must(key memoKey, compute func() float64) float64 {
	v, _ := m.get(key, func() (float64, error) { return compute(), nil })
	return v
}

func (m *memo) clear() {
	m.mu.Lock()
	m.values = make(map[memoKey]float64)
	m.calls = make(map[memoKey]int)
	m.mu.Unlock()
}

func (m *memo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// hits totals calls per function name.
func (m *memo) hits() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for k, n := range m.calls {
		out[k.fn] += n
	}
	return out
}
