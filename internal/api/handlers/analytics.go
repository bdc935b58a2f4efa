package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"

	"github.com/wonny/tradejournal/internal/api/metrics"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/normalizer"
	"github.com/wonny/tradejournal/internal/report"
	"github.com/wonny/tradejournal/internal/risk"
	"github.com/wonny/tradejournal/internal/snapshot"
	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

// MaxTradePayloadBytes caps POST /api/analytics bodies
const MaxTradePayloadBytes = 10 << 20

// AnalyticsOptions holds invocation defaults
type AnalyticsOptions struct {
	DefaultAccountSize float64
	DefaultRiskPct     float64
	CacheTTL           time.Duration
	Simulation         risk.RuinSimulationConfig
}

// AnalyticsResponse is a report plus the optional Monte Carlo cross-check
type AnalyticsResponse struct {
	*contracts.Report
	Cached          bool                 `json:"cached"`
	Simulation      *risk.RuinSimulation `json:"simulation,omitempty"`
	SimulationError string               `json:"simulationError,omitempty"`
}

// AnalyticsHandler handles analytics API endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalyticsHandler struct {
	reporter  *report.Reporter
	store     journal.Store
	cache     *redis.Cache
	snapshots *snapshot.Service
	metrics   *metrics.Metrics
	opts      AnalyticsOptions
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	reporter *report.Reporter,
	store journal.Store,
	cache *redis.Cache,
	snapshots *snapshot.Service,
	m *metrics.Metrics,
	opts AnalyticsOptions,
	log *logger.Logger,
) *AnalyticsHandler {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = redis.TTLMedium
	}
	return &AnalyticsHandler{
		reporter:  reporter,
		store:     store,
		cache:     cache,
		snapshots: snapshots,
		metrics:   m,
		opts:      opts,
		logger:    log.Component("api.analytics"),
	}
}

// Analyze computes a report from trades in the request body
// POST /api/analytics
func (h *AnalyticsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxTradePayloadBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) > MaxTradePayloadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "Trade payload too large")
		return
	}

	rows, err := normalizer.SplitArray(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := report.Request{Options: contracts.RiskOptions{
		AccountSize:     h.opts.DefaultAccountSize,
		RiskPerTradePct: h.opts.DefaultRiskPct,
	}}
	if root := gjson.ParseBytes(body); root.IsObject() {
		if req.AsOf, err = parseAsOf(root.Get("asOf").String(), h.reporter.Calendar().Location); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'asOf' (expected RFC3339 or YYYY-MM-DD)")
			return
		}
		if v := root.Get("accountSize"); v.Exists() {
			req.Options.AccountSize = v.Float()
		}
		if v := root.Get("riskPerTradePct"); v.Exists() {
			req.Options.RiskPerTradePct = v.Float()
		}
		req.Options.EntryPrice = root.Get("entryPrice").Float()
		req.Options.StopPrice = root.Get("stopPrice").Float()
	}

	trades := h.reporter.Normalize(rows)
	rep, err := h.reporter.AnalyzeTrades(r.Context(), trades, req)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Analysis canceled")
		return
	}
	h.observe("request", rep)

	resp := AnalyticsResponse{Report: rep}
	if wantSimulation(r) {
		h.simulate(r, trades, req.Options, &resp)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetUserAnalytics returns the (cached) report of a stored journal
// GET /api/users/{userID}/analytics?asOf=&accountSize=&riskPct=&simulate=
func (h *AnalyticsHandler) GetUserAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["userID"]
	query := r.URL.Query()

	req := report.Request{}
	var err error
	if req.AsOf, err = parseAsOf(query.Get("asOf"), h.reporter.Calendar().Location); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'asOf' (expected RFC3339 or YYYY-MM-DD)")
		return
	}
	if req.Options.AccountSize, err = parseFloat(query.Get("accountSize"), h.opts.DefaultAccountSize); err != nil || req.Options.AccountSize < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'accountSize'")
		return
	}
	if req.Options.RiskPerTradePct, err = parseFloat(query.Get("riskPct"), h.opts.DefaultRiskPct); err != nil || req.Options.RiskPerTradePct < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'riskPct'")
		return
	}

	simulate := wantSimulation(r)
	key := h.cacheKey(userID, req)

	var cached contracts.Report
	if h.cache != nil && !simulate {
		hit, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			h.logger.WithError(err).Warn("Report cache read failed")
		}
		h.metrics.CacheLookup(hit)
		if hit {
			respondJSON(w, http.StatusOK, AnalyticsResponse{Report: &cached, Cached: true})
			return
		}
	}

	raw, err := h.store.GetRawTrades(ctx, userID)
	if errors.Is(err, journal.ErrUserNotFound) {
		respondError(w, http.StatusNotFound, "User has no trades")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load trades")
		respondError(w, http.StatusInternalServerError, "Failed to load trades")
		return
	}

	trades := h.reporter.Normalize(raw)
	rep, err := h.reporter.AnalyzeTrades(ctx, trades, req)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Analysis canceled")
		return
	}
	h.observe("journal", rep)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, rep, h.opts.CacheTTL); err != nil {
			h.logger.WithError(err).Warn("Report cache write failed")
		}
	}

	resp := AnalyticsResponse{Report: rep}
	if simulate {
		h.simulate(r, trades, req.Options, &resp)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPatterns returns the persisted, merged detections of a user
// GET /api/users/{userID}/patterns
func (h *AnalyticsHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	patterns, err := h.store.GetPatterns(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to get patterns")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve patterns")
		return
	}
	if patterns == nil {
		patterns = []contracts.DetectedPattern{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":   userID,
		"patterns": patterns,
	})
}

// CreateSnapshot analyzes and persists a user's journal now
// POST /api/users/{userID}/snapshots?asOf=
func (h *AnalyticsHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	asOf, err := parseAsOf(r.URL.Query().Get("asOf"), h.reporter.Calendar().Location)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'asOf' (expected RFC3339 or YYYY-MM-DD)")
		return
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	result, err := h.snapshots.Take(r.Context(), userID, asOf)
	if errors.Is(err, journal.ErrUserNotFound) {
		respondError(w, http.StatusNotFound, "User has no trades")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Snapshot failed")
		respondError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetEmotionalHistory returns persisted emotional snapshots, newest first
// GET /api/users/{userID}/emotional/history?limit=
func (h *AnalyticsHandler) GetEmotionalHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 365 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (0-365)")
			return
		}
		limit = n
	}

	history, err := h.store.GetEmotionalHistory(r.Context(), userID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to get emotional history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve emotional history")
		return
	}
	if history == nil {
		history = []journal.Snapshot{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":    userID,
		"snapshots": history,
	})
}

func (h *AnalyticsHandler) cacheKey(userID string, req report.Request) string {
	day := "latest"
	if !req.AsOf.IsZero() {
		day = h.reporter.Calendar().DayKey(req.AsOf)
	}
	// 계좌 옵션이 다르면 다른 리포트
	day = fmt.Sprintf("%s@%g/%g", day, req.Options.AccountSize, req.Options.RiskPerTradePct)
	return redis.ReportKey(userID, day, h.reporter.ConfigHash())
}

func (h *AnalyticsHandler) observe(source string, rep *contracts.Report) {
	h.metrics.ObserveReport(source, rep)
}

func (h *AnalyticsHandler) simulate(r *http.Request, trades []contracts.AnalyzableTrade, opts contracts.RiskOptions, resp *AnalyticsResponse) {
	cfg := h.opts.Simulation
	if opts.RiskPerTradePct > 0 {
		cfg.RiskPerTradePct = opts.RiskPerTradePct
	}

	sim, err := risk.NewRuinSimulator(cfg).Simulate(r.Context(), trades)
	if err != nil {
		resp.SimulationError = err.Error()
		return
	}
	resp.Simulation = sim
}

func wantSimulation(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("simulate"))
	return v
}
