// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alttext",
		Name:      "requests_total",
		Help:      "Generation requests by authentication mode and response status.",
	}, []string{"mode", "status"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alttext",
		Name:      "cache_lookups_total",
		Help:      "Caption cache lookups by tier and result.",
	}, []string{"tier", "result"})

	RateLimitFailOpen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alttext",
		Name:      "ratelimit_fail_open_total",
		Help:      "Quota checks that could not reach the store and allowed the request.",
	})

	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alttext",
		Name:      "quota_rejections_total",
		Help:      "Session requests rejected because the daily quota was used up.",
	})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "alttext",
		Name:      "generation_duration_seconds",
		Help:      "Latency of captioning backend calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"variant", "outcome"})

	CachePurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alttext",
		Name:      "cache_purged_rows_total",
		Help:      "Expired caption cache rows deleted by the purge task.",
	})
)
