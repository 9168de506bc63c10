// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	StopwordCacheHits    prometheus.Counter
	StopwordCacheMisses  prometheus.Counter
	StopwordLoadsTotal   *prometheus.CounterVec
	StopwordLoadDuration prometheus.Histogram
	StopwordsLoaded      *prometheus.GaugeVec

	FacetAggregationsTotal   *prometheus.CounterVec
	FacetAggregationDuration *prometheus.HistogramVec
	FacetDistinctTerms       prometheus.Histogram
	FacetUndecodablePayloads prometheus.Counter
	FacetCacheHits           prometheus.Counter
	FacetCacheMisses         prometheus.Counter

	AnalyticsEventsPublished prometheus.Counter
	AnalyticsPublishFailures prometheus.Counter
	CircuitBreakerState      *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
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
		StopwordCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stopword_cache_hits_total",
				Help: "Stopper resolutions served from the registry cache.",
			},
		),
		StopwordCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stopword_cache_misses_total",
				Help: "Stopper resolutions that had to load a stopword file.",
			},
		),
		StopwordLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stopword_loads_total",
				Help: "Stopword file loads by status (ok, unsupported).",
			},
			[]string{"status"},
		),
		StopwordLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stopword_load_duration_seconds",
				Help:    "Time spent reading and parsing one stopword file.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		StopwordsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stopwords_loaded",
				Help: "Number of stop words held for each cached language.",
			},
			[]string{"language"},
		),
		FacetAggregationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_aggregations_total",
				Help: "Term frequency aggregations by variant (all, top).",
			},
			[]string{"variant"},
		),
		FacetAggregationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facet_aggregation_duration_seconds",
				Help:    "Term frequency aggregation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"variant"},
		),
		FacetDistinctTerms: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "facet_distinct_terms",
				Help:    "Distinct terms produced per aggregation.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		FacetUndecodablePayloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_undecodable_payloads_total",
				Help: "Match payloads that decoded to no terms because they were malformed.",
			},
		),
		FacetCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_cache_hits_total",
				Help: "Facet results served from Redis.",
			},
		),
		FacetCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_cache_misses_total",
				Help: "Facet results computed because Redis had no entry.",
			},
		),
		AnalyticsEventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_published_total",
				Help: "Analytics events written to Kafka.",
			},
		),
		AnalyticsPublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_publish_failures_total",
				Help: "Analytics batches that failed after all retries or were refused by an open circuit.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state by name (0 closed, 1 open, 2 half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.StopwordCacheHits,
		m.StopwordCacheMisses,
		m.StopwordLoadsTotal,
		m.StopwordLoadDuration,
		m.StopwordsLoaded,
		m.FacetAggregationsTotal,
		m.FacetAggregationDuration,
		m.FacetDistinctTerms,
		m.FacetUndecodablePayloads,
		m.FacetCacheHits,
		m.FacetCacheMisses,
		m.AnalyticsEventsPublished,
		m.AnalyticsPublishFailures,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
