// Package metrics provides Prometheus instrumentation for the solver
// service, adapted from the teacher's MetricsService: a registry of
// HTTP, solve-pipeline and cache collectors behind one small façade.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates every Prometheus collector the service exposes.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	solveDuration  *prometheus.HistogramVec
	solveTotal     *prometheus.CounterVec
	solveCandidates prometheus.Histogram

	cacheEntries  prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheWrite    prometheus.Histogram
}

// New registers every collector against a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_solve_duration_seconds",
		Help:    "Duration of solve() calls in seconds, by status",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"status"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_solve_total",
		Help: "Total number of solve() calls, by status",
	}, []string{"status"})

	solveCandidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_candidates_generated",
		Help:    "Number of candidate timetables produced per solve() call",
		Buckets: prometheus.LinearBuckets(1, 2, 10),
	})

	cacheEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_cache_entries",
		Help: "Total cached timetable entries across all sessions",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_cache_hits_total",
		Help: "Total cache hits against the Redis fast path",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_cache_misses_total",
		Help: "Total cache misses falling back to Postgres",
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_cache_write_seconds",
		Help:    "Latency of cache store operations",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry.MustRegister(
		requestDuration, requestTotal,
		solveDuration, solveTotal, solveCandidates,
		cacheEntries, cacheHits, cacheMisses, cacheWrite,
		goroutines,
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		solveCandidates: solveCandidates,
		cacheEntries:    cacheEntries,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheWrite:      cacheWrite,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one finished HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := http.StatusText(status)
	if label == "" {
		label = "unknown"
	}
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// ObserveSolve records one finished solve() call.
func (m *Metrics) ObserveSolve(status string, duration time.Duration, candidateCount int) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.solveTotal.WithLabelValues(status).Inc()
	m.solveCandidates.Observe(float64(candidateCount))
}

// SetCacheEntries updates the cache-entries gauge from a Stats snapshot.
func (m *Metrics) SetCacheEntries(total int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(total))
}

// RecordCacheLookup records a fast-path hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks store() latency.
func (m *Metrics) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
