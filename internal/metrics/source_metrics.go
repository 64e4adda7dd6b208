// Package metrics defines odds source metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Source counter vectors
var (
	SourceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetches_total",
		Help:      "Total number of source fetches by source and status",
	}, []string{"source", "status"})

	SourceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Total number of source failures by source and error code",
	}, []string{"source", "code"})

	CircuitBreakerTripsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of HTTP circuit breaker trips by source",
	}, []string{"source"})
)

// Source histogram vectors
var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_fetch_duration_seconds",
		Help:      "Duration of a full source fetch in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// Source gauge vectors
var (
	SourceRequestsRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_requests_remaining",
		Help:      "Remaining API quota reported by the source",
	}, []string{"source"})
)

// RecordSourceFetch records a completed source fetch.
// status should be one of: "success", "failure"
func RecordSourceFetch(source, status string, durationSeconds float64) {
	SourceFetchesTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceFailure records a source failure by error code.
func RecordSourceFailure(source, code string) {
	SourceFailuresTotal.WithLabelValues(source, code).Inc()
}

// RecordCircuitBreakerTrip records an HTTP circuit breaker opening.
func RecordCircuitBreakerTrip(source string) {
	CircuitBreakerTripsTotal.WithLabelValues(source).Inc()
}

// UpdateRequestsRemaining updates the reported API quota for a source.
func UpdateRequestsRemaining(source string, remaining float64) {
	SourceRequestsRemaining.WithLabelValues(source).Set(remaining)
}
