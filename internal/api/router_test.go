package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/api/handlers"
	"github.com/wonny/tradejournal/internal/api/metrics"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/normalizer"
	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/internal/report"
	"github.com/wonny/tradejournal/internal/risk"
	"github.com/wonny/tradejournal/internal/snapshot"
	"github.com/wonny/tradejournal/pkg/config"
	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

const revengePayload = `[
	{"id": "A", "entry_time": "2026-03-03T10:00:00-05:00", "pnl": -500, "quantity": 1},
	{"id": "B", "entry_time": "2026-03-03T10:15:00-05:00", "pnl": -800, "quantity": 2}
]`

type testEnv struct {
	handler http.Handler
	store   *journal.MemoryStore
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, limiter Limiter) *testEnv {
	t.Helper()
	log := logger.Nop()

	reporter, err := report.New(analyticsconfig.Default(), log)
	require.NoError(t, err)
	rc, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	store := journal.NewMemoryStore()
	cache := redis.NewCache(rc, "test")
	hub := notify.NewHub(rc, log)
	m := metrics.New()

	sim := risk.DefaultRuinSimulationConfig()
	sim.Paths, sim.TradesPerPath, sim.Seed, sim.MinSamples = 200, 50, 7, 2

	deps := Dependencies{
		Analytics: handlers.NewAnalyticsHandler(reporter, store, cache,
			snapshot.NewService(reporter, store, cache, hub, log), m,
			handlers.AnalyticsOptions{DefaultRiskPct: 1, Simulation: sim}, log),
		Risk:        handlers.NewRiskHandler(m, log),
		Events:      handlers.NewEventsHandler(hub, log),
		Metrics:     m,
		Limiter:     limiter,
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      log,
	}
	return &testEnv{handler: NewRouter(deps), store: store, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) seed(t *testing.T, userID string) {
	t.Helper()
	rows, err := normalizer.SplitArray([]byte(revengePayload))
	require.NoError(t, err)
	_, err = e.store.InsertTrades(context.Background(), userID, rows)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "GET", "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()

	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestAnalyze_Array(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "POST", "/api/analytics", revengePayload)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, 2.0, body["tradeCount"])
	assert.Equal(t, false, body["cached"])

	patterns := body["patterns"].([]interface{})
	first := patterns[0].(map[string]interface{})
	assert.Equal(t, "revenge_trading", first["type"])
	assert.Equal(t, []interface{}{"B"}, first["affectedTradeIds"])
	assert.Equal(t, -800.0, first["totalCost"])

	riskMetrics := body["riskMetrics"].(map[string]interface{})
	assert.Equal(t, 2.0, riskMetrics["maxConsecutiveLosses"])
}

func TestAnalyze_ObjectWithOptions(t *testing.T) {
	env := newTestEnv(t, nil)
	payload := `{"asOf": "2026-03-03", "accountSize": 10000, "riskPerTradePct": 2, "trades": ` + revengePayload + `}`

	rec := env.do(t, "POST", "/api/analytics?simulate=true", payload)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	riskMetrics := body["riskMetrics"].(map[string]interface{})
	assert.InDelta(t, 13.0, riskMetrics["maxDrawdownPct"].(float64), 1e-9)
	assert.Contains(t, body, "simulation")
	assert.NotContains(t, body, "simulationError")
}

func TestAnalyze_BadPayload(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"object without trades", `{"rows": []}`},
		{"bad asOf", `{"asOf": "03/03/2026", "trades": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/analytics", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUserAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "u1")

	rec := env.do(t, "GET", "/api/users/u1/analytics?accountSize=10000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2.0, decode(t, rec)["tradeCount"])

	rec = env.do(t, "GET", "/api/users/ghost/analytics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "GET", "/api/users/u1/analytics?riskPct=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotThenPatternsAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "u1")

	rec := env.do(t, "POST", "/api/users/u1/snapshots?asOf=2026-03-03", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "u1", decode(t, rec)["userId"])

	rec = env.do(t, "GET", "/api/users/u1/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["patterns"])

	rec = env.do(t, "GET", "/api/users/u1/emotional/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["snapshots"], 1)

	rec = env.do(t, "GET", "/api/users/u1/emotional/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/api/users/ghost/snapshots", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyCollectionsAreArrays(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "GET", "/api/users/nobody/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"patterns":[]`)

	rec = env.do(t, "GET", "/api/users/nobody/emotional/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"snapshots":[]`)
}

func TestPositionSize(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "POST", "/api/risk/position-size",
		`{"accountSize": 10000, "riskPerTradePct": 1, "entryPrice": 50, "stopPrice": 47}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 33.33, decode(t, rec)["positionSize"])

	rec = env.do(t, "POST", "/api/risk/position-size",
		`{"accountSize": 10000, "riskPerTradePct": 1, "entryPrice": 50, "stopPrice": 50}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, "POST", "/api/risk/position-size", `{"accountSize": 0, "riskPerTradePct": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "GET", "/health", "")

	rec := env.do(t, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradejournal_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, newLocalLimiter(1, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, "POST", "/api/risk/position-size",
			`{"accountSize": 10000, "riskPerTradePct": 1, "entryPrice": 50, "stopPrice": 47}`).Code)
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	// /health는 제한 대상 아님
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/health", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest("OPTIONS", "/api/analytics", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientKey(req))
}
