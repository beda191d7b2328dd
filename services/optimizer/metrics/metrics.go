package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace    = "apdex_optimizer"
	statusOK     = "ok"
	statusFailed = "failed"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

type metricsHandler struct {
	registry       *prometheus.Registry
	cycles         *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	lastRows       prometheus.Gauge
	queries        *prometheus.CounterVec
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewMetricsHandler creates the Prometheus collectors on a dedicated registry
func NewMetricsHandler() *metricsHandler {
	m := &metricsHandler{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fetch_cycles_total",
			Help:      "Count of finished fetch cycles by outcome",
		}, []string{"status"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fetch_cycle_duration_seconds",
			Help:      "Duration of the fetch cycles by outcome",
			Buckets:   histogramBuckets,
		}, []string{"status"}),
		lastRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "published_rows",
			Help:      "Number of application rows in the last published snapshot",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nerdgraph",
			Name:      "queries_total",
			Help:      "Count of host API queries by kind and outcome",
		}, []string{"kind", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(m.cycles, m.cycleDuration, m.lastRows, m.queries, m.requestTotal, m.requestLatency)

	return m
}

// ObserveCycle records a finished fetch cycle
func (m *metricsHandler) ObserveCycle(status string, duration time.Duration, numRows int) {
	m.cycles.WithLabelValues(status).Inc()
	m.cycleDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == statusOK {
		m.lastRows.Set(float64(numRows))
	}
}

// ObserveQuery records a host API query outcome
func (m *metricsHandler) ObserveQuery(kind string, err error) {
	status := statusOK
	if err != nil {
		status = statusFailed
	}
	m.queries.WithLabelValues(kind, status).Inc()
}

// ObserveRequest records a served HTTP request
func (m *metricsHandler) ObserveRequest(method string, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

// HTTPHandler returns the Prometheus exposition handler
func (m *metricsHandler) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (m *metricsHandler) IsInterfaceNil() bool {
	return m == nil
}
