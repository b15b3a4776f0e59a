package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RANKED_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if RANKED_CONFIG is set
//  3. env (prefix RANKED_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvPrefix+"CONFIG"))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file layer.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RANKED_BOOTSTRAP_MATCHES -> bootstrap_matches (flat keys, underscores kept)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// pairwiseRankers only rate head-to-head matches.
var pairwiseRankers = map[string]bool{ //nolint:gochecknoglobals // static lookup
	"elo":       true,
	"chess_elo": true,
	"glicko2":   true,
}

// Validate rejects configurations no ranker or simulation could run with.
func (c *Config) Validate() error {
	switch {
	case c.Ranker == "":
		return fmt.Errorf("%w: ranker must not be empty", ErrInvalidConfig)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive", ErrInvalidConfig)
	case c.Tau <= 0:
		return fmt.Errorf("%w: tau must be positive", ErrInvalidConfig)
	case c.DrawProbability < 0 || c.DrawProbability >= 1:
		return fmt.Errorf("%w: draw_probability must be in [0, 1)", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.Teams < 2:
		return fmt.Errorf("%w: a match needs at least 2 teams", ErrInvalidConfig)
	case c.Teams != 2 && pairwiseRankers[c.Ranker]:
		return fmt.Errorf("%w: ranker %s rates exactly 2 teams, got %d", ErrInvalidConfig, c.Ranker, c.Teams)
	case c.PlayersPerTeam < 1:
		return fmt.Errorf("%w: players_per_team must be at least 1", ErrInvalidConfig)
	case c.Players < 0 || c.BootstrapMatches < 0 || c.BenchmarkMatches < 0:
		return fmt.Errorf("%w: players and match counts must not be negative", ErrInvalidConfig)
	case c.ConsistencyLower < 0 || c.ConsistencyUpper < c.ConsistencyLower:
		return fmt.Errorf("%w: consistency bounds must satisfy 0 <= lower <= upper", ErrInvalidConfig)
	}
	return nil
}
