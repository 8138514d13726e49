package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OptimizeDuration records end-to-end optimization run durations
	OptimizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimize_run_duration_seconds", Help: "Optimization run duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}},
	)
	// OptimizeRuns counts optimization runs by outcome
	OptimizeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_runs_total", Help: "Optimization runs by outcome."},
		[]string{"outcome"},
	)
	// DegradedSegments counts straight-line fallback segments in stitched routes
	DegradedSegments = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimize_degraded_segments_total", Help: "Route segments that fell back to a direct connection."},
	)
	// SkippedGeometries counts road features dropped during graph construction
	SkippedGeometries = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimize_skipped_geometries_total", Help: "Road features skipped as malformed."},
	)
	// HousesAssigned tracks demand points per run
	HousesAssigned = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimize_houses_per_run", Help: "Demand points handled per run.", Buckets: prometheus.ExponentialBuckets(10, 4, 8)},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OptimizeDuration)
		Registry.MustRegister(OptimizeRuns)
		Registry.MustRegister(DegradedSegments)
		Registry.MustRegister(SkippedGeometries)
		Registry.MustRegister(HousesAssigned)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
