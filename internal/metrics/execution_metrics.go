// Package metrics defines bet execution metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BetsPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_placed_total",
		Help:      "Total number of legs placed by bookmaker",
	}, []string{"bookmaker"})

	BetsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_failed_total",
		Help:      "Total number of legs rejected by bookmaker",
	}, []string{"bookmaker"})

	BetPlacementLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bet_placement_latency_seconds",
		Help:      "Latency of bet placement operations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// RecordBetPlaced records an accepted leg.
func RecordBetPlaced(bookmaker string, durationSeconds float64) {
	BetsPlacedTotal.WithLabelValues(bookmaker).Inc()
	BetPlacementLatency.Observe(durationSeconds)
}

// RecordBetFailed records a rejected leg.
func RecordBetFailed(bookmaker string) {
	BetsFailedTotal.WithLabelValues(bookmaker).Inc()
}
