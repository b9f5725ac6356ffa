// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	placeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_place_total",
			Help: "Total wager placements by result and currency mode",
		},
		[]string{"result", "mode"},
	)

	placeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wager_place_duration_ms",
			Help:    "Wager placement duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result", "mode"},
	)

	settlementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_settlements_total",
			Help: "Total wager settlements by outcome and currency mode",
		},
		[]string{"outcome", "mode"},
	)

	resolverRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_runs_total",
			Help: "Total reconciliation runs",
		},
	)

	resolverWagers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_wagers_total",
			Help: "Pending wagers examined per disposition",
		},
		[]string{"disposition"},
	)

	resolverDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolver_run_duration_seconds",
			Help:    "Reconciliation run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// RecordPlacement records one placement attempt.
// result should be "success" or "fail".
func RecordPlacement(result, mode string, started time.Time) {
	if result != "success" {
		result = "fail"
	}
	placeTotal.WithLabelValues(result, mode).Inc()
	placeDuration.WithLabelValues(result, mode).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordSettlement records one terminal wager transition.
func RecordSettlement(outcome, mode string) {
	settlementTotal.WithLabelValues(outcome, mode).Inc()
}

// RecordResolverRun records the summary of one reconciliation run.
func RecordResolverRun(resolved, skipped, errored int, started time.Time) {
	resolverRuns.Inc()
	resolverWagers.WithLabelValues("resolved").Add(float64(resolved))
	resolverWagers.WithLabelValues("skipped").Add(float64(skipped))
	resolverWagers.WithLabelValues("errored").Add(float64(errored))
	resolverDuration.Observe(time.Since(started).Seconds())
}
