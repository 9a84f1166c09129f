package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
type MetricsService struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	runTotal        *prometheus.CounterVec
	runPlaced       prometheus.Histogram
	runFillRatio    prometheus.Gauge
}

// NewMetricsService registers all collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_cache_hits_total",
		Help: "Timetable view cache hits.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_cache_misses_total",
		Help: "Timetable view cache misses.",
	})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_runs_total",
		Help: "Timetable generation runs by final status.",
	}, []string{"status"})

	runPlaced := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_placed_sessions",
		Help:    "Sessions placed per generation run.",
		Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
	})

	runFillRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "generation_fill_ratio",
		Help: "Placed over requested sessions for the latest run.",
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheHits, cacheMisses,
		runTotal, runPlaced, runFillRatio,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		runTotal:        runTotal,
		runPlaced:       runPlaced,
		runFillRatio:    runFillRatio,
	}
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheOperation counts a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveRun records the outcome of one generation run.
func (m *MetricsService) ObserveRun(status string, placed, requested int) {
	m.runTotal.WithLabelValues(status).Inc()
	m.runPlaced.Observe(float64(placed))
	if requested > 0 {
		m.runFillRatio.Set(float64(placed) / float64(requested))
	} else {
		m.runFillRatio.Set(0)
	}
}
