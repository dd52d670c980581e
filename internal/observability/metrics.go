package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cstatsentry_sync_runs_total",
		Help: "Completed per-user sync runs by terminal status.",
	}, []string{"status"})

	SyncSourceRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cstatsentry_sync_source_runs_total",
		Help: "Per-provider sync attempts by provider and status.",
	}, []string{"source", "status"})

	MatchesIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cstatsentry_matches_ingested_total",
		Help: "New match rows written, by source.",
	}, []string{"source"})

	SyncDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cstatsentry_sync_duration_seconds",
		Help:    "Wall time of a full per-user sync.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
