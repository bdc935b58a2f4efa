package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/internal/contracts"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/health", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/health", 200, 5*time.Millisecond)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.RateLimited()
	m.PositionRejected()
	m.ObserveReport("api", &contracts.Report{
		EmotionalState: contracts.EmotionalState{Overall: 72},
		Patterns: []contracts.DetectedPattern{
			{Type: contracts.PatternFOMO, Occurrences: 3},
		},
	})

	body := scrape(t, m)

	for _, line := range []string{
		`tradejournal_http_requests_total{method="GET",route="/health",status="200"} 2`,
		`tradejournal_report_cache_total{result="hit"} 1`,
		`tradejournal_report_cache_total{result="miss"} 2`,
		`tradejournal_http_rate_limited_total 1`,
		`tradejournal_position_size_rejected_total 1`,
		`tradejournal_pattern_matches_total{pattern="fomo"} 3`,
		`tradejournal_reports_total{source="api"} 1`,
	} {
		assert.Contains(t, body, line)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RateLimited()

	assert.Contains(t, scrape(t, a), "tradejournal_http_rate_limited_total 1")
	assert.Contains(t, scrape(t, b), "tradejournal_http_rate_limited_total 0")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.RateLimited()
		m.CacheLookup(true)
		m.ObserveReport("api", &contracts.Report{})
		m.PositionRejected()
	})
}
