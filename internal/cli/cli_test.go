package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/ranked/internal/app"
	"github.com/okian/ranked/internal/config"
	"github.com/okian/ranked/pkg/metrics"
)

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

var small = []string{
	"--players", "20",
	"--teams", "2",
	"--players-per-team", "2",
	"--bootstrap", "5",
	"--benchmark", "5",
	"--seed", "3",
}

func TestRootCommands(t *testing.T) {
	Convey("Given the ranked command", t, func() {
		Convey("When rankers is run", func() {
			out, _, err := execute("rankers")

			Convey("Then every ranker is printed on its own line", func() {
				So(err, ShouldBeNil)
				So(strings.Fields(out), ShouldResemble, service.Rankers())
			})
		})

		Convey("When version is run", func() {
			out, _, err := execute("version")

			Convey("Then the build version is printed", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out), ShouldEqual, Version)
			})
		})

		Convey("When an unknown command is run", func() {
			_, _, err := execute("rate")

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown command")
			})
		})

		Convey("When a command is misspelled", func() {
			_, _, err := execute("simulat")

			Convey("Then it fails instead of printing help", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown command")
			})
		})

		Convey("When a pairwise ranker is asked for three teams", func() {
			_, _, err := execute("simulate", "--ranker", "glicko2", "--teams", "3")

			Convey("Then the configuration is rejected before any match", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestSimulateCommand(t *testing.T) {
	Convey("Given the simulate command", t, func() {
		_ = os.Unsetenv(config.EnvPrefix + "CONFIG")

		Convey("When it runs a small elo simulation", func() {
			out, logs, err := execute(append([]string{"simulate", "--ranker", "elo"}, small...)...)

			Convey("Then the report is printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "ranker\telo\n")
				So(out, ShouldContainSubstring, "matches\t25\n")
				So(out, ShouldContainSubstring, metrics.BenchmarkRankerPrecision+"\t")
				So(out, ShouldContainSubstring, metrics.BenchmarkMatchmakerTeamBias+"\t")
				So(logs, ShouldContainSubstring, "simulation finished")
			})
		})

		Convey("When a config file selects the ranker", func() {
			path := filepath.Join(t.TempDir(), "ranked.yaml")
			So(os.WriteFile(path, []byte("ranker: chess_elo\nlog_level: warn\n"), 0o600), ShouldBeNil)

			out, logs, err := execute(append([]string{"simulate", "--config", path}, small...)...)

			Convey("Then the file is honoured below the flags", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "ranker\tchess_elo\n")
				So(logs, ShouldNotContainSubstring, "simulation finished")
			})
		})

		Convey("When output files are requested", func() {
			dir := t.TempDir()
			evolution := filepath.Join(dir, "evolution.csv")
			replay := filepath.Join(dir, "replay.csv")

			_, _, err := execute(append([]string{
				"simulate", "--ranker", "bayes",
				"--evolution", evolution,
				"--replay", replay,
			}, small...)...)

			Convey("Then they are written", func() {
				So(err, ShouldBeNil)
				_, err := os.Stat(evolution)
				So(err, ShouldBeNil)
				_, err = os.Stat(replay)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the ranker is unknown", func() {
			_, _, err := execute(append([]string{"simulate", "--ranker", "trueskill"}, small...)...)

			Convey("Then it fails with the registry error", func() {
				So(errors.Is(err, service.ErrUnknownRanker), ShouldBeTrue)
			})
		})

		Convey("When a flag breaks the configuration", func() {
			_, _, err := execute("simulate", "--teams", "0")

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestMetricsHandler(t *testing.T) {
	Convey("Given the metrics handler", t, func() {
		metrics.RecordBatchRated("elo")
		updateSystemMetrics()
		srv := httptest.NewServer(metricsHandler())
		defer srv.Close()

		Convey("When /metrics is scraped", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			var body bytes.Buffer
			_, err = body.ReadFrom(resp.Body)
			So(err, ShouldBeNil)

			Convey("Then the custom registry is exposed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body.String(), ShouldContainSubstring, "ranked_engine_batches_rated_total")
				So(body.String(), ShouldContainSubstring, "ranked_system_goroutine_count")
			})
		})
	})
}
