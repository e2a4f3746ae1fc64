// Package metrics provides the centralized Prometheus metrics registry for
// the accumulator engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "builds_total",
		Help:      "Total number of accumulator build runs",
	})
	CandidatesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "candidates_generated_total",
		Help:      "Total number of candidate combinations enumerated",
	})
	CandidatesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "candidates_rejected_total",
		Help:      "Total number of candidate combinations rejected, by reason",
	}, []string{"reason"})
	AccumulatorsEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "accumulators_emitted_total",
		Help:      "Total number of accumulators emitted by build runs",
	})
	OddsFetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "odds_fetches_total",
		Help:      "Total number of odds fetches from the market-data source",
	})
	OddsFetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "acca_engine",
		Name:      "odds_fetch_errors_total",
		Help:      "Total number of failed odds fetches",
	})
)

// Gauge metrics
var (
	FilteredPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "acca_engine",
		Name:      "filtered_pool_size",
		Help:      "Size of the selection pool after the probability pre-filter",
	})
	StoredSelections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "acca_engine",
		Name:      "stored_selections",
		Help:      "Number of selections currently held in storage",
	})
	HistoricalTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "acca_engine",
		Name:      "historical_teams",
		Help:      "Number of teams in the historical stats snapshot",
	})
)

// Histogram metrics
var (
	BuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "acca_engine",
		Name:      "build_duration_seconds",
		Help:      "Duration of accumulator build runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	OddsFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "acca_engine",
		Name:      "odds_fetch_duration_seconds",
		Help:      "Duration of odds fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BuildsTotal)
		registry.MustRegister(CandidatesGeneratedTotal)
		registry.MustRegister(CandidatesRejectedTotal)
		registry.MustRegister(AccumulatorsEmittedTotal)
		registry.MustRegister(OddsFetchesTotal)
		registry.MustRegister(OddsFetchErrorsTotal)

		registry.MustRegister(FilteredPoolSize)
		registry.MustRegister(StoredSelections)
		registry.MustRegister(HistoricalTeams)

		registry.MustRegister(BuildDuration)
		registry.MustRegister(OddsFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBuild records a completed build run.
func RecordBuild(durationSeconds float64, emitted int) {
	BuildsTotal.Inc()
	BuildDuration.Observe(durationSeconds)
	AccumulatorsEmittedTotal.Add(float64(emitted))
}

// RecordCandidate records an enumerated candidate combination.
func RecordCandidate() {
	CandidatesGeneratedTotal.Inc()
}

// RecordRejection records a rejected candidate with the filter that caught it.
func RecordRejection(reason string) {
	CandidatesRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordOddsFetch records an odds fetch attempt.
func RecordOddsFetch(durationSeconds float64, err error) {
	OddsFetchesTotal.Inc()
	OddsFetchDuration.Observe(durationSeconds)
	if err != nil {
		OddsFetchErrorsTotal.Inc()
	}
}
