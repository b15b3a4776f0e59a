package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/ranked/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Ranker, convey.ShouldEqual, "glicko2")
				convey.So(cfg.Tau, convey.ShouldEqual, 0.6)
				convey.So(cfg.BootstrapMatches, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKED_RANKER", "chess_elo")
			_ = os.Setenv("RANKED_TAU", "0.2")
			_ = os.Setenv("RANKED_PLAYERS", "40")
			_ = os.Setenv("RANKED_AGE_INACTIVE", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Ranker, convey.ShouldEqual, "chess_elo")
				convey.So(cfg.Tau, convey.ShouldEqual, 0.2)
				convey.So(cfg.Players, convey.ShouldEqual, 40)
				convey.So(cfg.AgeInactive, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
ranker: bayes
players: 60
seed: 7
draw_probability: 0.05
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKED_CONFIG", tmpFile)
			_ = os.Setenv("RANKED_PLAYERS", "80") // overrides the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Ranker, convey.ShouldEqual, "bayes")       // From file
				convey.So(cfg.Players, convey.ShouldEqual, 80)           // Overridden by env
				convey.So(cfg.Seed, convey.ShouldEqual, 7)               // From file
				convey.So(cfg.DrawProbability, convey.ShouldEqual, 0.05) // From file
				convey.So(cfg.Teams, convey.ShouldEqual, 2)              // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RANKED_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty ranker", func() {
			_ = os.Setenv("RANKED_RANKER", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ranker must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKED_PLAYERS", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"RANKED_CONFIG",
		"RANKED_RANKER",
		"RANKED_TAU",
		"RANKED_PLAYERS",
		"RANKED_AGE_INACTIVE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "ranked-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
