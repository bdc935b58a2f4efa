package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/tradejournal/internal/contracts"
)

const namespace = "tradejournal"

// Metrics holds the API collectors on a private registry
// ⭐ SSOT: Prometheus 지표 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	reports         *prometheus.CounterVec
	reportCache     *prometheus.CounterVec
	patternMatches  *prometheus.CounterVec
	emotionalScore  prometheus.Histogram
	positionRejects prometheus.Counter
}

// New registers every collector (plus Go/process collectors) on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template and status",
		}, []string{"method", "route", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Analytics reports computed, by source",
		}, []string{"source"}),
		reportCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),
		patternMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_matches_total",
			Help:      "Trades matched per pattern type in computed reports",
		}, []string{"pattern"}),
		emotionalScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "emotional_overall_score",
			Help:      "Overall emotional score of computed reports",
			Buckets:   []float64{20, 40, 60, 80, 100},
		}),
		positionRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_size_rejected_total",
			Help:      "Position size requests rejected for a zero stop distance",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry (tests)
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Recording methods are no-ops on a nil *Metrics (metrics disabled)

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request
func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

// CacheLookup counts a report cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

// ObserveReport records a freshly computed report
func (m *Metrics) ObserveReport(source string, r *contracts.Report) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(source).Inc()
	m.emotionalScore.Observe(r.EmotionalState.Overall)
	for _, p := range r.Patterns {
		m.patternMatches.WithLabelValues(string(p.Type)).Add(float64(p.Occurrences))
	}
}

// PositionRejected counts a zero-stop-distance rejection
func (m *Metrics) PositionRejected() {
	if m != nil {
		m.positionRejects.Inc()
	}
}
