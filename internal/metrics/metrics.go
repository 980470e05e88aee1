// Package metrics holds the Prometheus collectors exported by shovo.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shovo",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1, 3, 10},
	}, []string{"method", "route"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "cache_hits_total",
		Help:      "Enrichment cache hits by table.",
	}, []string{"table"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "cache_misses_total",
		Help:      "Enrichment cache misses (absent or expired) by table.",
	}, []string{"table"})

	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "source_requests_total",
		Help:      "Outbound metadata requests by upstream and result.",
	}, []string{"upstream", "status"})

	SourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "source_errors_total",
		Help:      "Metadata fetch failures absorbed as empty enrichment, by part.",
	}, []string{"part"})

	RefreshStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "refresh_started_total",
		Help:      "Room refreshes started.",
	})

	RefreshRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "refresh_rejected_total",
		Help:      "Room refreshes rejected because one was already running.",
	})

	RefreshItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shovo",
		Name:      "refresh_items_total",
		Help:      "Items processed by room refreshes.",
	})

	RefreshActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shovo",
		Name:      "refresh_active",
		Help:      "Room refreshes currently running.",
	})
)

// Register adds every collector to reg. It panics on duplicate registration.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		SourceRequestsTotal,
		SourceErrorsTotal,
		RefreshStartedTotal,
		RefreshRejectedTotal,
		RefreshItemsTotal,
		RefreshActive,
	)
}
