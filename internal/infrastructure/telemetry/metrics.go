package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "stocksync"

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can run without a registry.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	ordersIngested  *prometheus.CounterVec
	ordersDuplicate *prometheus.CounterVec
	linesUnresolved *prometheus.CounterVec
	pushTotal       *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	runDuration     prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics creates a registry with the engine metrics and the Go runtime collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		ordersIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_ingested_total",
			Help:      "Orders applied to the ledger.",
		}, []string{"platform"}),
		ordersDuplicate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_duplicate_total",
			Help:      "Orders skipped because they were already applied.",
		}, []string{"platform"}),
		linesUnresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lines_unresolved_total",
			Help:      "Order lines whose external SKU maps to no item.",
		}, []string{"platform"}),
		pushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "push_total",
			Help:      "Stock pushes by platform and outcome.",
		}, []string{"platform", "outcome"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "adapter_request_duration_seconds",
			Help:      "Duration of marketplace API operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform", "operation"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of full reconciliation runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	registry.MustRegister(
		m.ordersIngested,
		m.ordersDuplicate,
		m.linesUnresolved,
		m.pushTotal,
		m.adapterDuration,
		m.runDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// OrderIngested counts an order applied to the ledger
func (m *Metrics) OrderIngested(platform string) {
	if m == nil {
		return
	}
	m.ordersIngested.WithLabelValues(platform).Inc()
}

// OrderDuplicate counts an order skipped by dedup
func (m *Metrics) OrderDuplicate(platform string) {
	if m == nil {
		return
	}
	m.ordersDuplicate.WithLabelValues(platform).Inc()
}

// LineUnresolved counts an order line with an unknown external SKU
func (m *Metrics) LineUnresolved(platform string) {
	if m == nil {
		return
	}
	m.linesUnresolved.WithLabelValues(platform).Inc()
}

// PushOutcome counts a per-platform push result (success, skipped, failed)
func (m *Metrics) PushOutcome(platform, outcome string) {
	if m == nil {
		return
	}
	m.pushTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveAdapterRequest records how long a marketplace operation took
func (m *Metrics) ObserveAdapterRequest(platform, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.adapterDuration.WithLabelValues(platform, operation).Observe(d.Seconds())
}

// ObserveRun records the duration of a full reconciliation run
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// GinMiddleware records request counts and latency per route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
