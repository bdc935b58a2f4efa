package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/wonny/tradejournal/internal/api/metrics"
	"github.com/wonny/tradejournal/internal/risk"
	"github.com/wonny/tradejournal/pkg/logger"
)

// RiskHandler serves stateless risk calculators
type RiskHandler struct {
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(m *metrics.Metrics, log *logger.Logger) *RiskHandler {
	return &RiskHandler{metrics: m, logger: log.Component("api.risk")}
}

// PositionSizeRequest is the position sizing input
type PositionSizeRequest struct {
	AccountSize     float64 `json:"accountSize"`
	RiskPerTradePct float64 `json:"riskPerTradePct"`
	EntryPrice      float64 `json:"entryPrice"`
	StopPrice       float64 `json:"stopPrice"`
}

// PositionSizeResponse is the sized position
type PositionSizeResponse struct {
	PositionSize float64 `json:"positionSize"` // 2자리 내림
	RiskAmount   float64 `json:"riskAmount"`
	StopDistance float64 `json:"stopDistance"`
}

// PositionSize computes units = account × risk% / |entry − stop|
// POST /api/risk/position-size
func (h *RiskHandler) PositionSize(w http.ResponseWriter, r *http.Request) {
	var req PositionSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountSize <= 0 || req.RiskPerTradePct <= 0 || req.RiskPerTradePct > 100 {
		respondError(w, http.StatusBadRequest, "accountSize must be > 0 and riskPerTradePct in (0, 100]")
		return
	}

	size, err := risk.PositionSize(req.AccountSize, req.RiskPerTradePct, req.EntryPrice, req.StopPrice)
	if errors.Is(err, risk.ErrZeroStopDistance) {
		h.metrics.PositionRejected()
		respondError(w, http.StatusUnprocessableEntity, "Entry and stop prices must differ")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PositionSizeResponse{
		PositionSize: math.Floor(size*100) / 100,
		RiskAmount:   req.AccountSize * req.RiskPerTradePct / 100,
		StopDistance: math.Abs(req.EntryPrice - req.StopPrice),
	})
}
