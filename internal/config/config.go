// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - The rating core never reads Config; the app layer turns it into
//   constructor options.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// MetricsAddr exposes /metrics while a run is in progress, e.g. ":9090".
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Ranker selects the rating algorithm: elo, chess_elo, glicko2, bayes.
	Ranker string `koanf:"ranker"`

	// Center, Scale and Tau parameterize Glicko2 and the Bayesian prior.
	Center float64 `koanf:"center"`
	Scale  float64 `koanf:"scale"`
	Tau    float64 `koanf:"tau"`

	// InitialDeviation and InitialVolatility override new-player defaults
	// (scale*1.2 and tau/2) when positive.
	InitialDeviation  float64 `koanf:"initial_deviation"`
	InitialVolatility float64 `koanf:"initial_volatility"`

	// Distribution picks the Elo CDF: normal or logistic.
	Distribution string `koanf:"distribution"`

	// EloVolatility and EloAlpha shape the Elo K-factor (alpha*vol*sqrt(pi)).
	EloVolatility float64 `koanf:"elo_volatility"`
	EloAlpha      float64 `koanf:"elo_alpha"`

	// DrawProbability, BayesSigma and BayesBeta configure the belief engine.
	// Zero sigma/beta fall back to center/3 and sigma/2.
	DrawProbability float64 `koanf:"draw_probability"`
	BayesSigma      float64 `koanf:"bayes_sigma"`
	BayesBeta       float64 `koanf:"bayes_beta"`

	// Workers parallelizes the Glicko2 compute phase.
	Workers int `koanf:"workers"`

	// Players, Teams and PlayersPerTeam shape the simulated pool.
	Players        int `koanf:"players"`
	Teams          int `koanf:"teams"`
	PlayersPerTeam int `koanf:"players_per_team"`

	// BootstrapMatches and BenchmarkMatches count matchmaking passes.
	BootstrapMatches int `koanf:"bootstrap_matches"`
	BenchmarkMatches int `koanf:"benchmark_matches"`

	// Seed makes simulations reproducible.
	Seed int64 `koanf:"seed"`

	// Truth model of the synthetic pool.
	SkillMean        float64 `koanf:"skill_mean"`
	SkillVolatility  float64 `koanf:"skill_volatility"`
	ConsistencyLower float64 `koanf:"consistency_lower"`
	ConsistencyUpper float64 `koanf:"consistency_upper"`
	GameRandomness   float64 `koanf:"game_randomness"`

	// EvolutionFile receives the bootstrap trajectory CSV; empty disables it.
	EvolutionFile string `koanf:"evolution_file"`

	// MatchupFile receives a truth-vs-estimate snapshot after the run.
	MatchupFile string `koanf:"matchup_file"`

	// ReplayFile receives every matchmaking pass as CSV rows.
	ReplayFile string `koanf:"replay_file"`

	// AgeInactive inflates the deviation of players left out of a pass.
	AgeInactive bool `koanf:"age_inactive"`
}

// New creates a Config with defaults. The context is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Ranker:           "glicko2",
		Center:           1500,
		Scale:            173.7178,
		Tau:              0.6,
		Distribution:     "normal",
		EloVolatility:    1,
		EloAlpha:         1,
		DrawProbability:  0.1,
		Workers:          1,
		Players:          100,
		Teams:            2,
		PlayersPerTeam:   5,
		BootstrapMatches: 100,
		BenchmarkMatches: 100,
		Seed:             42,
		SkillMean:        1500,
		SkillVolatility:  500.0 / 3,
		ConsistencyLower: 32,
		ConsistencyUpper: 64,
		GameRandomness:   16,
	}
}
