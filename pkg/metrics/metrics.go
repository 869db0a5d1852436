// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	LessonRequestsTotal  *prometheus.CounterVec
	RetrievalLatency     *prometheus.HistogramVec
	RetrievalChunks      prometheus.Histogram
	ExpansionPassesTotal prometheus.Counter
	FallbackLessonsTotal *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	ChunksIngestedTotal  *prometheus.CounterVec
	EmbeddingsTotal      *prometheus.CounterVec
	EmbedLatency         prometheus.Histogram
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		LessonRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_requests_total",
				Help: "Total lesson generation requests by subject and outcome (full, fallback, invalid, error).",
			},
			[]string{"subject", "outcome"},
		),
		RetrievalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retrieval_latency_seconds",
				Help:    "Curriculum store retrieval latency in seconds by pass (raw, expanded, filter).",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"pass"},
		),
		RetrievalChunks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "retrieval_chunks_returned",
				Help:    "Number of chunks returned per retrieval.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
		ExpansionPassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keyword_expansion_passes_total",
				Help: "Total retrievals that needed the keyword-expanded second pass.",
			},
		),
		FallbackLessonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fallback_lessons_total",
				Help: "Total degraded generic lessons served by reason (empty_results, store_unavailable).",
			},
			[]string{"reason"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lesson_cache_hits_total",
				Help: "Total number of lesson cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lesson_cache_misses_total",
				Help: "Total number of lesson cache misses.",
			},
		),
		ChunksIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curriculum_chunks_ingested_total",
				Help: "Total curriculum chunks ingested by subject.",
			},
			[]string{"subject"},
		),
		EmbeddingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chunk_embeddings_total",
				Help: "Total chunk embeddings computed by status.",
			},
			[]string{"status"},
		),
		EmbedLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chunk_embed_latency_seconds",
				Help:    "Latency of computing and storing a chunk embedding.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.LessonRequestsTotal,
		m.RetrievalLatency,
		m.RetrievalChunks,
		m.ExpansionPassesTotal,
		m.FallbackLessonsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ChunksIngestedTotal,
		m.EmbeddingsTotal,
		m.EmbedLatency,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
