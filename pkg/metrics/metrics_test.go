package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				manager.matchesRated.WithLabelValues("elo").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "ranked")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When rating activity is recorded", func() {
			before := testutil.ToFloat64(globalManager.matchesRated.WithLabelValues("glicko2"))
			RecordMatchRated("glicko2", 3)
			RecordBatchRated("glicko2")
			RecordUpdateLatency("glicko2", 0.001)
			RecordRatingError("glicko2", "degenerate_state")
			RecordVolatilityIterations(6)
			RecordMemoCall("g", true)
			RecordMemoCall("g", false)

			Convey("Then the counters move", func() {
				after := testutil.ToFloat64(globalManager.matchesRated.WithLabelValues("glicko2"))
				So(after-before, ShouldEqual, 3.0)
				So(testutil.ToFloat64(globalManager.memoCalls.WithLabelValues("g", "hit")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When matchmaking and simulation are recorded", func() {
			So(func() {
				RecordMatchmakerPass(10, 3)
				RecordReplayError()
				RecordSimulatedBatch("simulate")
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When a benchmark score is published", func() {
			err := SetBenchmarkScore("elo", BenchmarkRankerPrecision, 0.61)

			Convey("Then the gauge holds it", func() {
				So(err, ShouldBeNil)
				So(testutil.ToFloat64(globalManager.benchmarkScore.WithLabelValues("elo", BenchmarkRankerPrecision)), ShouldEqual, 0.61)
			})
		})

		Convey("When an unknown benchmark metric is published", func() {
			err := SetBenchmarkScore("elo", "accuracy", 1)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrUnknownMetric), ShouldBeTrue)
			})
		})

		Convey("When the registry is requested", func() {
			Convey("Then it is the custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
