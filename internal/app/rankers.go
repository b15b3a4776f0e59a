package service

import (
	"fmt"
	"sort"

	"github.com/okian/ranked/internal/config"
	"github.com/okian/ranked/internal/domain/belief"
	"github.com/okian/ranked/internal/domain/rating"
	"github.com/okian/ranked/internal/domain/rating/bayes"
	"github.com/okian/ranked/internal/domain/rating/elo"
	"github.com/okian/ranked/internal/domain/rating/glicko2"
	"github.com/okian/ranked/pkg/logger"
)

// Factory builds a ranker from configuration.
type Factory func(cfg *config.Config, log logger.Logger) (rating.Ranker, error)

var factories = map[string]Factory{ //nolint:gochecknoglobals // static registry
	"elo":       newElo,
	"chess_elo": newChessElo,
	"glicko2":   newGlicko2,
	"bayes":     newBayes,
}

// Rankers lists the registered ranker names in sorted order.
func Rankers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRanker builds the ranker named by cfg.Ranker.
func NewRanker(cfg *config.Config, log logger.Logger) (rating.Ranker, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if log == nil {
		log = logger.Nop()
	}
	factory, ok := factories[cfg.Ranker]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownRanker, cfg.Ranker, Rankers())
	}
	r, err := factory(cfg, log.Named(cfg.Ranker))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", cfg.Ranker, err)
	}
	return r, nil
}

func newElo(cfg *config.Config, log logger.Logger) (rating.Ranker, error) {
	dist, err := elo.DistributionByName(cfg.Distribution)
	if err != nil {
		return nil, err
	}
	return elo.New(
		elo.WithVolatility(cfg.EloVolatility),
		elo.WithAlpha(cfg.EloAlpha),
		elo.WithDistribution(dist),
		elo.WithInitialRating(cfg.Center),
		elo.WithLogger(log),
	)
}

func newChessElo(_ *config.Config, log logger.Logger) (rating.Ranker, error) {
	return elo.NewChess(elo.WithLogger(log))
}

func newGlicko2(cfg *config.Config, log logger.Logger) (rating.Ranker, error) {
	return glicko2.New(
		glicko2.WithCenter(cfg.Center),
		glicko2.WithScale(cfg.Scale),
		glicko2.WithTau(cfg.Tau),
		glicko2.WithInitialDeviation(cfg.InitialDeviation),
		glicko2.WithInitialVolatility(cfg.InitialVolatility),
		glicko2.WithWorkers(cfg.Workers),
		glicko2.WithLogger(log),
	)
}

func newBayes(cfg *config.Config, log logger.Logger) (rating.Ranker, error) {
	engine, err := belief.New(
		belief.WithMu(cfg.Center),
		belief.WithSigma(cfg.BayesSigma),
		belief.WithBeta(cfg.BayesBeta),
		belief.WithDrawProbability(cfg.DrawProbability),
	)
	if err != nil {
		return nil, err
	}
	return bayes.New(engine, bayes.WithLogger(log))
}
