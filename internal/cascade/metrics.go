package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthpick_cascade_runs_total",
		Help: "Ranking cycles by terminal source (remote, remote_fallback, fallback, empty)",
	}, []string{"source"})

	minimumFillTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthpick_cascade_minimum_fill_total",
		Help: "Cycles that needed the minimum-fill pass to reach the result floor",
	})

	oracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthpick_oracle_latency_seconds",
		Help:    "Remote ranking call latency",
		Buckets: prometheus.DefBuckets,
	})

	staleCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthpick_cascade_stale_cycles_total",
		Help: "Completed cycles superseded by a newer cycle before delivery",
	})
)
