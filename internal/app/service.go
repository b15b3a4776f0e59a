// Package service turns a Config into a ranker, a synthetic matchup and a
// simulation, and runs the bootstrap and benchmark phases.
package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/okian/ranked/internal/config"
	"github.com/okian/ranked/internal/domain/matchmaker"
	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/internal/domain/simulation"
	"github.com/okian/ranked/pkg/logger"
)

// Service runs one configured ranker through a simulation.
type Service struct {
	mu sync.Mutex

	cfg    *config.Config
	ranker rating.Ranker

	// State
	running bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRanker overrides the ranker cfg.Ranker would select.
func WithRanker(r rating.Ranker) Option {
	return func(s *Service) {
		if r != nil {
			s.ranker = r
		}
	}
}

// New constructs a Service. Unless WithRanker is given, the ranker is
// built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	s := &Service{
		cfg:    cfg,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ranker == nil {
		r, err := NewRanker(cfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.ranker = r
	}
	return s, nil
}

// Ranker returns the ranker the service drives.
func (s *Service) Ranker() rating.Ranker { return s.ranker }

// Run builds a fresh pool, bootstraps the ranker on cfg.BootstrapMatches
// passes and benchmarks it on cfg.BenchmarkMatches more. Output files named
// in the config are written along the way.
func (s *Service) Run(ctx context.Context) (simulation.Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return simulation.Report{}, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	cfg := s.cfg
	start := time.Now()
	s.logger.Info(ctx, "starting simulation",
		logger.String("ranker", s.ranker.Name()),
		logger.Int("players", cfg.Players),
		logger.Int("teams", cfg.Teams),
		logger.Int("playersPerTeam", cfg.PlayersPerTeam),
		logger.Int("bootstrap", cfg.BootstrapMatches),
		logger.Int("benchmark", cfg.BenchmarkMatches),
	)

	synOpts := []simulation.SyntheticOption{
		simulation.WithTruth(simulation.TruthConfig{
			SkillMean:        cfg.SkillMean,
			SkillVolatility:  cfg.SkillVolatility,
			ConsistencyLower: cfg.ConsistencyLower,
			ConsistencyUpper: cfg.ConsistencyUpper,
			GameRandomness:   cfg.GameRandomness,
		}),
		simulation.WithTeams(cfg.Teams),
		simulation.WithPlayersPerTeam(cfg.PlayersPerTeam),
		simulation.WithMatches(cfg.BootstrapMatches),
		simulation.WithSeed(cfg.Seed),
	}
	if cfg.ReplayFile != "" {
		f, err := os.Create(cfg.ReplayFile)
		if err != nil {
			return simulation.Report{}, fmt.Errorf("open replay file: %w", err)
		}
		defer func() { _ = f.Close() }()
		synOpts = append(synOpts, simulation.WithReplaySink(matchmaker.NewCSVSink(f)))
	}

	matchup, err := simulation.NewSynthetic(s.ranker, cfg.Players, synOpts...)
	if err != nil {
		return simulation.Report{}, fmt.Errorf("build matchup: %w", err)
	}

	simOpts := []simulation.Option{simulation.WithLogger(s.logger.Named("simulation"))}
	if cfg.AgeInactive {
		simOpts = append(simOpts, simulation.WithAgeInactive())
	}
	sim, err := simulation.New(s.ranker, matchup, simOpts...)
	if err != nil {
		return simulation.Report{}, err
	}

	if err := s.bootstrap(ctx, sim); err != nil {
		return simulation.Report{}, err
	}

	matchup.SetMatches(cfg.BenchmarkMatches)
	report, err := sim.Benchmark(ctx)
	if err != nil {
		return simulation.Report{}, fmt.Errorf("benchmark: %w", err)
	}

	if cfg.MatchupFile != "" {
		if err := matchup.Save(cfg.MatchupFile); err != nil {
			return simulation.Report{}, fmt.Errorf("save matchup: %w", err)
		}
	}

	s.logger.Info(ctx, "simulation finished",
		logger.String("ranker", s.ranker.Name()),
		logger.Int("matches", report.Matches),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (s *Service) bootstrap(ctx context.Context, sim *simulation.Simulation) error {
	if s.cfg.EvolutionFile == "" {
		if err := sim.Simulate(ctx, nil); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		return nil
	}

	f, err := os.Create(s.cfg.EvolutionFile)
	if err != nil {
		return fmt.Errorf("open evolution file: %w", err)
	}
	if err := sim.Simulate(ctx, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("bootstrap: %w", err)
	}
	return f.Close()
}
