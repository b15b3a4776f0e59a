// Package cli holds the ranked command tree.
package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	service "github.com/okian/ranked/internal/app"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "v0.0.0-dev" //nolint:gochecknoglobals // build stamp

// Root returns the ranked command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "ranked",
		Short: "Rate competitors and benchmark rating algorithms",
		Long: heredoc.Doc(`ranked rates players and teams with Elo, chess Elo,
			Glicko2 or a Gaussian belief model, and measures how well each
			one predicts the outcome of simulated matches.

			Configuration is layered: defaults, then the YAML file given by
			--config or RANKED_CONFIG, then RANKED_* environment variables,
			then command line flags.`),

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("config", "", "YAML configuration file")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(Simulate())
	root.AddCommand(Rankers())
	root.AddCommand(VersionCmd())

	return root
}

// Rankers lists the rating algorithms the simulate command accepts.
func Rankers() *cobra.Command {
	return &cobra.Command{
		Use:   "rankers",
		Short: "List the available rating algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range service.Rankers() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// VersionCmd prints the build version.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the ranked version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}
