package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crypto_advisor"

var (
	// CacheLookups counts TTL cache reads by cache name and result (hit|miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "TTL cache lookups by cache and result.",
	}, []string{"cache", "result"})

	// ProviderFallbacks counts degraded results served per dashboard section.
	ProviderFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fallbacks_total",
		Help:      "Fallback payloads returned by providers.",
	}, []string{"section", "reason"})

	// UpstreamRequests counts outbound HTTP attempts by service and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Outbound requests to third-party backends.",
	}, []string{"service", "outcome"})

	DashboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dashboard_build_seconds",
		Help:      "Time spent composing a dashboard payload.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
