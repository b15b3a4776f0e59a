package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Benchmark metric names accepted by SetBenchmarkScore.
const (
	BenchmarkRankerPrecision    = "ranker_precision"
	BenchmarkMatchmakerDiff     = "matchmaker_diff"
	BenchmarkMatchmakerTeamBias = "matchmaker_team_bias"
)

// Manager owns every Prometheus collector exported by the engine.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Rating engine
	matchesRated        *prometheus.CounterVec
	batchesRated        *prometheus.CounterVec
	updateLatency       *prometheus.HistogramVec
	ratingErrors        *prometheus.CounterVec
	volatilityIteration prometheus.Histogram
	memoCalls           *prometheus.CounterVec

	// Matchmaker
	matchmakerMatches      prometheus.Counter
	matchmakerDropped      prometheus.Counter
	matchmakerReplayErrors prometheus.Counter

	// Simulation
	simulatedBatches *prometheus.CounterVec
	benchmarkScore   *prometheus.GaugeVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ranked",
		histogramBuckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchesRated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "matches_rated_total",
		Help:        "Matches folded into ratings",
		ConstLabels: m.constLabels,
	}, []string{"ranker"})

	m.batchesRated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "batches_rated_total",
		Help:        "Rating periods processed",
		ConstLabels: m.constLabels,
	}, []string{"ranker"})

	m.updateLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "update_latency_seconds",
		Help:        "Time spent applying one match or batch",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"ranker"})

	m.ratingErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "errors_total",
		Help:        "Rating operations that failed, by error kind",
		ConstLabels: m.constLabels,
	}, []string{"ranker", "kind"})

	m.volatilityIteration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "volatility_iterations",
		Help:        "Illinois iterations needed per volatility solve",
		Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		ConstLabels: m.constLabels,
	})

	m.memoCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "engine",
		Name:        "memo_calls_total",
		Help:        "Memoized Glicko2 function calls, by function and cache outcome",
		ConstLabels: m.constLabels,
	}, []string{"fn", "outcome"})

	m.matchmakerMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "matchmaker",
		Name:        "matches_total",
		Help:        "Matches proposed by the matchmaker",
		ConstLabels: m.constLabels,
	})

	m.matchmakerDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "matchmaker",
		Name:        "dropped_total",
		Help:        "Pool members left out of a matchmaking pass",
		ConstLabels: m.constLabels,
	})

	m.matchmakerReplayErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "matchmaker",
		Name:        "replay_errors_total",
		Help:        "Replay sink failures",
		ConstLabels: m.constLabels,
	})

	m.simulatedBatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "simulation",
		Name:        "batches_total",
		Help:        "Simulated batches, by phase",
		ConstLabels: m.constLabels,
	}, []string{"phase"})

	m.benchmarkScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "benchmark",
		Name:        "score",
		Help:        "Latest benchmark result per ranker and metric",
		ConstLabels: m.constLabels,
	}, []string{"ranker", "metric"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Heap memory in use",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordMatchRated counts n matches rated by ranker.
func RecordMatchRated(ranker string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesRated.WithLabelValues(ranker).Add(float64(n))
}

// RecordBatchRated counts one processed rating period.
func RecordBatchRated(ranker string) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchesRated.WithLabelValues(ranker).Inc()
}

// RecordUpdateLatency records the duration of one update call in seconds.
func RecordUpdateLatency(ranker string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.updateLatency.WithLabelValues(ranker).Observe(seconds)
}

// RecordRatingError counts a failed rating operation.
func RecordRatingError(ranker, kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.ratingErrors.WithLabelValues(ranker, kind).Inc()
}

// RecordVolatilityIterations records the iterations of one volatility solve.
func RecordVolatilityIterations(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.volatilityIteration.Observe(float64(n))
}

// RecordMemoCall counts a memoized call; hit reports whether it was cached.
func RecordMemoCall(fn string, hit bool) {
	if !globalManager.enabled {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	globalManager.memoCalls.WithLabelValues(fn, outcome).Inc()
}

// RecordMatchmakerPass records one matchmaking pass.
func RecordMatchmakerPass(matches, dropped int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchmakerMatches.Add(float64(matches))
	globalManager.matchmakerDropped.Add(float64(dropped))
}

// RecordReplayError counts a replay sink failure.
func RecordReplayError() {
	if !globalManager.enabled {
		return
	}
	globalManager.matchmakerReplayErrors.Inc()
}

// RecordSimulatedBatch counts a simulated batch for phase (simulate, benchmark).
func RecordSimulatedBatch(phase string) {
	if !globalManager.enabled {
		return
	}
	globalManager.simulatedBatches.WithLabelValues(phase).Inc()
}

// SetBenchmarkScore publishes a benchmark result.
func SetBenchmarkScore(ranker, metric string, value float64) error {
	switch metric {
	case BenchmarkRankerPrecision, BenchmarkMatchmakerDiff, BenchmarkMatchmakerTeamBias:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if !globalManager.enabled {
		return nil
	}
	globalManager.benchmarkScore.WithLabelValues(ranker, metric).Set(value)
	return nil
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
