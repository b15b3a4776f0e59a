package cli

import (
	"fmt"
	"sort"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	service "github.com/okian/ranked/internal/app"
	"github.com/okian/ranked/internal/config"
	"github.com/okian/ranked/internal/domain/simulation"
	"github.com/okian/ranked/pkg/logger"
)

// ranked simulate
func Simulate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Bootstrap a ranker on a synthetic pool and benchmark it",
		Long: heredoc.Doc(`simulate generates a pool of competitors with hidden skills,
			lets the matchmaker build matches from the current estimates and
			feeds the outcomes to the selected ranker.

			The bootstrap phase updates the ratings. The benchmark phase then
			plays more matches without updating and reports:

			  ranker_precision      how often the estimated order was right
			  matchmaker_diff       mean distance of a team from its match average
			  matchmaker_team_bias  mean bias of a team slot, should tend to 0`),
		Example: heredoc.Doc(`
			$ ranked simulate --ranker glicko2 --players 200 --seed 7
			$ ranked simulate --ranker bayes --evolution evolution.csv`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithJSON(cfg.LogJSON)); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(ctx, "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}

			if cfg.MetricsAddr != "" {
				stop := serveMetrics(ctx, cfg.MetricsAddr, logger.Named("metrics"))
				defer stop()
			}

			svc, err := service.New(cfg, service.WithLogger(logger.Named("service")))
			if err != nil {
				return err
			}
			report, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			return printReport(cmd, svc.Ranker().Name(), report)
		},
	}

	f := cmd.Flags()
	f.String("ranker", "", "Rating algorithm (see `ranked rankers`)")
	f.Int("players", 0, "Pool size")
	f.Int("teams", 0, "Teams per match")
	f.Int("players-per-team", 0, "Players per team")
	f.Int("bootstrap", 0, "Matchmaking passes that update ratings")
	f.Int("benchmark", 0, "Matchmaking passes that are only measured")
	f.Int64("seed", 0, "Random seed")
	f.Int("workers", 0, "Glicko2 compute workers")
	f.Bool("age-inactive", false, "Age players that sit out a pass")
	f.String("evolution", "", "Write the bootstrap trajectory CSV to this file")
	f.String("matchup", "", "Write the final truth vs estimate CSV to this file")
	f.String("replay", "", "Write every matchmaking pass as CSV to this file")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	return cmd
}

// loadConfig layers flags over the loaded configuration. Only flags the
// user set take effect.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(ctx, path)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, err
	}

	var ferr error
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		if ferr != nil {
			return
		}
		ferr = applyFlag(cmd, cfg, fl.Name)
	})
	if ferr != nil {
		return nil, ferr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlag(cmd *cobra.Command, cfg *config.Config, name string) error {
	f := cmd.Flags()
	var err error
	switch name {
	case "log-level":
		cfg.LogLevel, err = f.GetString(name)
	case "ranker":
		cfg.Ranker, err = f.GetString(name)
	case "players":
		cfg.Players, err = f.GetInt(name)
	case "teams":
		cfg.Teams, err = f.GetInt(name)
	case "players-per-team":
		cfg.PlayersPerTeam, err = f.GetInt(name)
	case "bootstrap":
		cfg.BootstrapMatches, err = f.GetInt(name)
	case "benchmark":
		cfg.BenchmarkMatches, err = f.GetInt(name)
	case "seed":
		cfg.Seed, err = f.GetInt64(name)
	case "workers":
		cfg.Workers, err = f.GetInt(name)
	case "age-inactive":
		cfg.AgeInactive, err = f.GetBool(name)
	case "evolution":
		cfg.EvolutionFile, err = f.GetString(name)
	case "matchup":
		cfg.MatchupFile, err = f.GetString(name)
	case "replay":
		cfg.ReplayFile, err = f.GetString(name)
	case "metrics-addr":
		cfg.MetricsAddr, err = f.GetString(name)
	}
	return err
}

func printReport(cmd *cobra.Command, ranker string, report simulation.Report) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "ranker\t%s\nmatches\t%d\n", ranker, report.Matches); err != nil {
		return err
	}
	values := report.Metrics()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s\t%.6f\n", name, values[name]); err != nil {
			return err
		}
	}
	return nil
}
