package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "backend_requests_total",
		Help:      "Total requests to the backend API by operation and status code.",
	}, []string{"op", "status"})

	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tracker",
		Name:      "backend_request_duration_seconds",
		Help:      "Backend API request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"op"})

	BrowseFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "browse_fetches_total",
		Help:      "Browse page fetches by outcome (success, error, stale, aborted).",
	}, []string{"outcome"})

	BrowseSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "browse_suppressed_total",
		Help:      "Debounced browse queries suppressed by the minimum search length gate.",
	})

	BrowseSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tracker",
		Name:      "browse_sessions_active",
		Help:      "Number of open browse sessions.",
	})

	GenreCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "genre_cache_hits_total",
		Help:      "Genre list requests served from the local cache.",
	})

	GenreCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "genre_cache_misses_total",
		Help:      "Genre list requests that had to go to the backend.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		BackendRequestsTotal,
		BackendRequestDuration,
		BrowseFetchesTotal,
		BrowseSuppressedTotal,
		BrowseSessionsActive,
		GenreCacheHitsTotal,
		GenreCacheMissesTotal,
	)
}
