// Package simulation drives a ranker with synthetic matches and measures
// how well its estimates predict the outcomes.
//
// The matchmaker and the ranker work both with and against each other:
// good estimates give fair matches, and fair matches are harder to
// predict. A working setup therefore lands strictly between 0.5 and 1 on
// ranker precision.
package simulation

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/pkg/logger"
	"github.com/okian/ranked/pkg/metrics"
)

const progressEvery = 100

// Report holds the benchmark results.
type Report struct {
	// RankerPrecision is how often the estimated order of the teams matched
	// the played order. Higher is better.
	RankerPrecision float64
	// MatchmakerDiff is the mean absolute distance of a team's estimate from
	// its match average. Lower is better.
	MatchmakerDiff float64
	// MatchmakerTeamBias is the mean distance of each team slot's average
	// estimate from the grand mean. Should tend to 0.
	MatchmakerTeamBias float64
	// Matches is the number of matches measured.
	Matches int
}

// Metrics returns the report keyed by metric name.
func (r Report) Metrics() map[string]float64 {
	return map[string]float64{
		metrics.BenchmarkRankerPrecision:    r.RankerPrecision,
		metrics.BenchmarkMatchmakerDiff:     r.MatchmakerDiff,
		metrics.BenchmarkMatchmakerTeamBias: r.MatchmakerTeamBias,
	}
}

// Simulation runs a ranker against a matchup.
type Simulation struct {
	ranker      rating.Ranker
	matchup     Matchup
	ageInactive bool
	recordFrom  int
	logger      logger.Logger
}

// Option applies a configuration option to the Simulation.
type Option func(*Simulation)

// WithAgeInactive ages pool members that sat out a batch, when the ranker
// supports it.
func WithAgeInactive() Option {
	return func(s *Simulation) { s.ageInactive = true }
}

// WithRecordFrom only records competitors with an index of at least pid.
func WithRecordFrom(pid int) Option {
	return func(s *Simulation) { s.recordFrom = pid }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Simulation.
func New(ranker rating.Ranker, matchup Matchup, opts ...Option) (*Simulation, error) {
	if ranker == nil {
		return nil, &rating.ConfigurationError{Field: "ranker", Reason: "must not be nil"}
	}
	if matchup == nil {
		return nil, &rating.ConfigurationError{Field: "matchup", Reason: "must not be nil"}
	}
	s := &Simulation{ranker: ranker, matchup: matchup, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Simulate feeds every batch of the matchup to the ranker. When sink is not
// nil the estimate of every competitor is recorded before the first batch
// and after each one.
func (s *Simulation) Simulate(ctx context.Context, sink io.Writer) error {
	rec := newRecorder(sink, s.ranker.Name(), s.recordFrom)
	if err := rec.header(); err != nil {
		return fmt.Errorf("write evolution header: %w", err)
	}
	if err := rec.save(0, s.matchup.Pool()); err != nil {
		return fmt.Errorf("record evolution: %w", err)
	}

	n := 0
	for batch, err := range s.matchup.Matches() {
		if err != nil {
			return fmt.Errorf("batch %d: %w", n, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rating.Update(s.ranker, batch); err != nil {
			return fmt.Errorf("batch %d: %w", n, err)
		}
		if s.ageInactive {
			if err := s.age(batch); err != nil {
				return fmt.Errorf("age after batch %d: %w", n, err)
			}
		}

		n++
		if err := rec.save(n, s.matchup.Pool()); err != nil {
			return fmt.Errorf("record evolution: %w", err)
		}
		metrics.RecordSimulatedBatch("simulate")
		if n%progressEvery == 0 {
			s.logger.Info(ctx, "simulated batches", logger.Int("batches", n))
		}
	}

	s.logger.Info(ctx, "simulation done", logger.String("ranker", s.ranker.Name()), logger.Int("batches", n))
	return rec.flush()
}

// age grows the uncertainty of every pool member that did not play batch.
func (s *Simulation) age(batch *rating.Batch) error {
	ager, ok := s.ranker.(rating.Ager)
	if !ok {
		return nil
	}
	played := make(map[rating.Subject]struct{})
	for _, subject := range batch.Subjects() {
		for _, leaf := range rating.Leaves(subject) {
			played[leaf] = struct{}{}
		}
	}
	var idle []rating.Subject
	for _, p := range s.matchup.Pool() {
		if _, ok := played[p]; !ok {
			idle = append(idle, p)
		}
	}
	if len(idle) == 0 {
		return nil
	}
	return ager.Age(idle...)
}

// Benchmark measures the current estimates on fresh batches without
// updating them.
func (s *Simulation) Benchmark(ctx context.Context) (Report, error) {
	var (
		hits, compared, matches int
		diff                    float64
		slots                   []float64
	)

	for batch, err := range s.matchup.Matches() {
		if err != nil {
			return Report{}, err
		}
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}

		for _, m := range batch.Matches() {
			entries := m.Leaderboard()
			skills := make([]float64, len(entries))
			avg := 0.0
			for i, e := range entries {
				skills[i] = e.Subject.Skill()
				if i >= len(slots) {
					slots = append(slots, 0)
				}
				slots[i] += skills[i]
				avg += skills[i]
			}
			avg /= float64(len(entries))

			spread := 0.0
			for _, sk := range skills {
				spread += math.Abs(sk - avg)
			}
			diff += spread / float64(len(entries))
			matches++

			estimated := order(len(entries), func(i int) float64 { return skills[i] })
			played := order(len(entries), func(i int) float64 { return entries[i].Score })
			for k := range estimated {
				if estimated[k] == played[k] {
					hits++
				}
				compared++
			}
		}
		metrics.RecordSimulatedBatch("benchmark")
	}

	if matches == 0 {
		return Report{}, ErrNoMatches
	}

	report := Report{
		RankerPrecision:    float64(hits) / float64(compared),
		MatchmakerDiff:     diff / float64(matches),
		MatchmakerTeamBias: teamBias(slots, matches),
		Matches:            matches,
	}
	for name, value := range report.Metrics() {
		if err := metrics.SetBenchmarkScore(s.ranker.Name(), name, value); err != nil {
			return Report{}, err
		}
	}
	s.logger.Info(ctx, "benchmark done",
		logger.String("ranker", s.ranker.Name()),
		logger.Float64(metrics.BenchmarkRankerPrecision, report.RankerPrecision),
		logger.Float64(metrics.BenchmarkMatchmakerDiff, report.MatchmakerDiff),
		logger.Float64(metrics.BenchmarkMatchmakerTeamBias, report.MatchmakerTeamBias),
	)
	return report, nil
}

// order returns the indices 0..n-1 sorted ascending by value, ties kept in
// index order.
func order(n int, value func(int) float64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return value(idx[a]) < value(idx[b]) })
	return idx
}

func teamBias(slots []float64, matches int) float64 {
	if len(slots) == 0 {
		return 0
	}
	grand := 0.0
	for i := range slots {
		slots[i] /= float64(matches)
		grand += slots[i]
	}
	grand /= float64(len(slots))

	bias := 0.0
	for _, v := range slots {
		bias += math.Abs(v - grand)
	}
	return bias / float64(len(slots))
}
