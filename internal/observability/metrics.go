package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	lifecycleOpsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		lifecycleOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_lifecycle_operations_total",
			Help: "Lifecycle operations by name and outcome.",
		}, []string{"operation", "outcome"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, lifecycleOpsTotal)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// LifecycleOperations counts register/update/archive/restore/purge outcomes.
func LifecycleOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return lifecycleOpsTotal
}
