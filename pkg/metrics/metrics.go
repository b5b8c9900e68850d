package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gateway metrics
	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Backend request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	GatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Backend request errors",
		},
		[]string{"operation"},
	)

	// Refresh metrics
	RefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketview_refresh_total",
			Help: "Total view refreshes issued",
		})
	StaleDropCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketview_stale_responses_dropped_total",
			Help: "Responses discarded because a newer refresh superseded them",
		})

	// Favorites metrics
	FavoriteToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorites_toggles_total",
			Help: "Favorite toggle attempts",
		},
		[]string{"action", "status"},
	)
	FavoriteRollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "favorites_rollbacks_total",
			Help: "Optimistic updates reverted after a failed sync",
		})

	// Cache metrics
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotecache_hits_total",
			Help: "Company cache hits",
		},
		[]string{"kind"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotecache_misses_total",
			Help: "Company cache misses",
		},
		[]string{"kind"},
	)
	CacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotecache_errors_total",
			Help: "Company cache errors",
		},
		[]string{"operation"},
	)
)

func init() {
	// MustRegister panics if registration fails (e.g. duplicate)
	prometheus.MustRegister(
		GatewayRequestDuration, GatewayErrors,
		RefreshCounter, StaleDropCounter,
		FavoriteToggles, FavoriteRollbacks,
		CacheHits, CacheMisses, CacheErrors,
	)
}

// Handler serves the registered collectors for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
