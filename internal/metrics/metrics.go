package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the rest of the app reports into
type Recorder interface {
	ObserveAPICall(endpoint, method string, status int, duration time.Duration)
	StoreOperation(operation, status string)
	CacheLookup(cache string, hit bool)
	SetActiveSessions(n int)
	HTTPRequest(route string, status int, duration time.Duration)
	RateLimited()
	SuspiciousRequest()
}

type PrometheusMetrics struct {
	registry        *prometheus.Registry
	apiCalls        *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	storeOperations *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	rateLimitHits   prometheus.Counter
	suspicious      prometheus.Counter
}

// New registers the wallet collectors on a fresh registry so tests and
// multiple servers never collide on the global one.
func New() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		apiCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_api_requests_total",
				Help: "Requests sent to the remote wallet API",
			},
			[]string{"endpoint", "method", "code"},
		),
		apiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_api_request_duration_milliseconds",
				Help:    "Remote wallet API latency in milliseconds",
				Buckets: prometheus.ExponentialBuckets(5, 2, 12),
			},
			[]string{"endpoint"},
		),
		storeOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_store_operations_total",
				Help: "Store operations by terminal status",
			},
			[]string{"operation", "status"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_cache_lookups_total",
				Help: "Cache lookups by result",
			},
			[]string{"cache", "result"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_active_sessions",
				Help: "Logged-in sessions currently held",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_http_requests_total",
				Help: "Inbound HTTP requests",
			},
			[]string{"route", "code"},
		),
		httpDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallet_http_request_duration_milliseconds",
				Help:    "Inbound HTTP request duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		rateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_rate_limit_hits_total",
				Help: "Requests rejected by the inbound rate limiter",
			},
		),
		suspicious: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_http_suspicious_requests_total",
				Help: "Inbound requests matching a known probe pattern",
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer gives tests access to collected families
func (m *PrometheusMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *PrometheusMetrics) ObserveAPICall(endpoint, method string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiCalls.WithLabelValues(endpoint, method, code).Inc()
	m.apiDuration.WithLabelValues(endpoint).Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusMetrics) StoreOperation(operation, status string) {
	m.storeOperations.WithLabelValues(operation, status).Inc()
}

func (m *PrometheusMetrics) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *PrometheusMetrics) HTTPRequest(route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusMetrics) RateLimited() {
	m.rateLimitHits.Inc()
}

func (m *PrometheusMetrics) SuspiciousRequest() {
	m.suspicious.Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) ObserveAPICall(string, string, int, time.Duration) {}
func (Nop) StoreOperation(string, string)                     {}
func (Nop) CacheLookup(string, bool)                          {}
func (Nop) SetActiveSessions(int)                             {}
func (Nop) HTTPRequest(string, int, time.Duration)            {}
func (Nop) RateLimited()                                      {}
func (Nop) SuspiciousRequest()                                {}
