// Package metrics provides centralized Prometheus metrics registry for the scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arbstream"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of completed scans",
	})
	ScansSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_skipped_total",
		Help:      "Total number of scan triggers coalesced into an in-flight scan",
	})
	OpportunitiesDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_detected_total",
		Help:      "Total number of arbitrage candidates detected",
	})
	OpportunitiesDiscardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_discarded_total",
		Help:      "Total number of candidates dropped before publication by reason",
	}, []string{"reason"})
	SinkFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_failures_total",
		Help:      "Total number of snapshot sink failures by sink",
	}, []string{"sink"})
)

// Gauge metrics
var (
	PublishedOpportunities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "published_opportunities",
		Help:      "Number of opportunities in the current snapshot",
	})
	BestMarginPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "best_margin_percent",
		Help:      "Highest margin in the current snapshot",
	})
	ScanInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_in_progress",
		Help:      "1 while a scan is running",
	})
	CanonicalEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "canonical_events",
		Help:      "Number of canonical events built by the last scan",
	})
)

// Histogram metrics
var (
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Duration of full scans in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ScansTotal)
		registry.MustRegister(ScansSkippedTotal)
		registry.MustRegister(OpportunitiesDetectedTotal)
		registry.MustRegister(OpportunitiesDiscardedTotal)
		registry.MustRegister(SinkFailuresTotal)

		registry.MustRegister(PublishedOpportunities)
		registry.MustRegister(BestMarginPercent)
		registry.MustRegister(ScanInProgress)
		registry.MustRegister(CanonicalEvents)

		registry.MustRegister(ScanDuration)

		// Source metrics
		registry.MustRegister(SourceFetchesTotal)
		registry.MustRegister(SourceFailuresTotal)
		registry.MustRegister(SourceFetchDuration)
		registry.MustRegister(SourceRequestsRemaining)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Execution metrics
		registry.MustRegister(BetsPlacedTotal)
		registry.MustRegister(BetsFailedTotal)
		registry.MustRegister(BetPlacementLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordScan records a completed scan.
func RecordScan(durationSeconds float64, published int, bestMargin float64) {
	ScansTotal.Inc()
	ScanDuration.Observe(durationSeconds)
	PublishedOpportunities.Set(float64(published))
	BestMarginPercent.Set(bestMargin)
}

// RecordScanSkipped records a trigger that found a scan already in flight.
func RecordScanSkipped() {
	ScansSkippedTotal.Inc()
}

// SetScanInProgress updates the in-progress gauge.
func SetScanInProgress(running bool) {
	if running {
		ScanInProgress.Set(1)
		return
	}
	ScanInProgress.Set(0)
}

// RecordCanonicalEvents records how many canonical events a scan produced.
func RecordCanonicalEvents(count int) {
	CanonicalEvents.Set(float64(count))
}

// RecordOpportunityDetected records an arbitrage candidate.
func RecordOpportunityDetected() {
	OpportunitiesDetectedTotal.Inc()
}

// RecordOpportunityDiscarded records a candidate dropped before publication.
// reason should be one of: "stake_rounding", "below_min_margin"
func RecordOpportunityDiscarded(reason string) {
	OpportunitiesDiscardedTotal.WithLabelValues(reason).Inc()
}

// RecordSinkFailure records a failed snapshot sink delivery.
func RecordSinkFailure(sink string) {
	SinkFailuresTotal.WithLabelValues(sink).Inc()
}
