package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gateway-specific counters and histograms. Unlike this package's HTTP
// middleware metrics, which register themselves in init, these are
// package-level vars registered explicitly by RegisterGatewayMetrics.
var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "requests_total",
			Help:      "Total gateway requests by tenant and classification.",
		},
		[]string{"tenant", "classification"},
	)

	RequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "request_errors_total",
			Help:      "Total gateway request errors by tenant and classification.",
		},
		[]string{"tenant", "classification"},
	)

	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchgate",
			Name:      "request_duration_seconds",
			Help:      "Gateway request latency by classification.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"classification"},
	)

	ClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "classification_total",
			Help:      "Classifier decisions by resulting type.",
		},
		[]string{"type"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "cache_hits_total",
			Help:      "Cache hits by tier.",
		},
		[]string{"tier"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "cache_misses_total",
			Help:      "Cache misses, recorded once per lookup at the tier that reported the final miss.",
		},
		[]string{"tier"},
	)

	CacheStaleServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "cache_stale_served_total",
			Help:      "L1 entries returned past their TTL because no fresh copy was found in L1 or L2.",
		},
	)

	CacheFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "cache_faults_total",
			Help:      "L2 cache faults; always swallowed, never surfaced to the caller.",
		},
	)

	DispatchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "dispatch_fallback_total",
			Help:      "Dispatcher fallbacks by kind: stale-cache, degraded-plan, or empty.",
		},
		[]string{"kind"},
	)

	CacheL1Size = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "searchgate",
			Name:      "cache_l1_entries",
			Help:      "Current L1 cache entry count.",
		},
	)
)

var gatewayMetricsRegistered bool

// RegisterGatewayMetrics registers the gateway's Prometheus collectors.
// Idempotent; called once from main.
func RegisterGatewayMetrics() {
	if gatewayMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		RequestsTotal,
		RequestErrorsTotal,
		RequestLatency,
		ClassificationTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheStaleServedTotal,
		CacheFaultsTotal,
		DispatchFallbackTotal,
		CacheL1Size,
	)
	gatewayMetricsRegistered = true
}
