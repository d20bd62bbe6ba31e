package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripnest_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripnest_booking_transitions_total",
		Help: "Booking state transitions by target status and outcome",
	}, []string{"to", "outcome"})

	StatsRecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripnest_stats_recompute_total",
		Help: "Statistics recomputations by outcome",
	}, []string{"outcome"})

	StatsRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripnest_stats_recompute_duration_seconds",
		Help:    "Statistics recomputation duration",
		Buckets: prometheus.DefBuckets,
	})

	StatsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripnest_stats_cache_total",
		Help: "Statistics cache lookups by result",
	}, []string{"result"})

	ReconciliationRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripnest_reconciliation_runs_total",
		Help: "Total statistics reconciliation runs",
	})

	ReconciliationFixesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripnest_reconciliation_fixes_total",
		Help: "Total stale statistics entries recomputed by reconciliation",
	})
)
