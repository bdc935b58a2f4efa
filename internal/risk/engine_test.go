package risk

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/contracts"
)

var day0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func tradeOn(day int, pnl float64) contracts.AnalyzableTrade {
	entry := day0.AddDate(0, 0, day)
	return contracts.AnalyzableTrade{
		ID:        entry.Format("20060102"),
		EntryTime: entry,
		ExitTime:  entry,
		PnL:       pnl,
		Size:      1,
	}
}

func newTestEngine() *Engine {
	return NewEngine(analyticsconfig.Default().Risk, time.UTC)
}

func TestEngine_Empty(t *testing.T) {
	m := newTestEngine().Calculate(nil, contracts.RiskOptions{AccountSize: 10000, RiskPerTradePct: 1})
	assert.Equal(t, contracts.RiskMetrics{}, m)
}

func TestEngine_Calculate(t *testing.T) {
	trades := []contracts.AnalyzableTrade{tradeOn(0, 100), tradeOn(1, -400), tradeOn(2, 150)}

	m := newTestEngine().Calculate(trades, contracts.RiskOptions{})

	assert.Equal(t, 400.0, m.MaxDrawdown)
	assert.InDelta(t, 400.0, m.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, -150.0, m.NetProfit, 1e-9)
	assert.InDelta(t, -0.375, m.RecoveryFactor, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
	assert.InDelta(t, 125.0, m.AvgWin, 1e-9)
	assert.InDelta(t, 400.0, m.AvgLoss, 1e-9)
	assert.InDelta(t, 2.0/3.0-(1.0/3.0)/(125.0/400.0), m.KellyFraction, 1e-9)
	assert.InDelta(t, 0.625, m.ProfitFactor, 1e-9)
	assert.InDelta(t, -50/math.Sqrt(92500), m.SharpeRatio, 1e-9)
	assert.InDelta(t, -350.0, m.VaR95, 1e-9)
	assert.InDelta(t, -150*365.0/2/400, m.CalmarRatio, 1e-9)
	assert.Equal(t, 100.0, m.RiskOfRuinPct, "negative edge")
	assert.Equal(t, 1, m.MaxConsecutiveWins)
	assert.Equal(t, 1, m.MaxConsecutiveLosses)
	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 3, m.TradingDays)
}

func TestEngine_AccountSize(t *testing.T) {
	trades := []contracts.AnalyzableTrade{tradeOn(0, 100), tradeOn(1, -400), tradeOn(2, 150)}

	m := newTestEngine().Calculate(trades, contracts.RiskOptions{AccountSize: 10000})
	assert.InDelta(t, 4.0, m.MaxDrawdownPct, 1e-9)
}

func TestEngine_DailyBuckets(t *testing.T) {
	a := tradeOn(0, 100)
	b := tradeOn(0, -30)
	b.EntryTime = b.EntryTime.Add(2 * time.Hour)
	c := tradeOn(1, 50)

	m := newTestEngine().Calculate([]contracts.AnalyzableTrade{a, b, c}, contracts.RiskOptions{})
	assert.Equal(t, 2, m.TradingDays)
	assert.Equal(t, []float64{70, 50}, DailyReturns([]contracts.AnalyzableTrade{a, b, c}, time.UTC))
}

func TestEngine_RecommendedPositionSize(t *testing.T) {
	trades := []contracts.AnalyzableTrade{tradeOn(0, 100), tradeOn(1, -50)}
	e := newTestEngine()

	m := e.Calculate(trades, contracts.RiskOptions{AccountSize: 10000, RiskPerTradePct: 1, EntryPrice: 50, StopPrice: 48})
	assert.InDelta(t, 50.0, m.RecommendedPositionSize, 1e-9)

	m = e.Calculate(trades, contracts.RiskOptions{AccountSize: 10000, RiskPerTradePct: 1, EntryPrice: 50, StopPrice: 50})
	assert.Zero(t, m.RecommendedPositionSize, "zero stop distance")

	// 최근 거래 가격으로 대체
	trades[1].EntryPrice, trades[1].StopPrice = 20, 19
	m = e.Calculate(trades, contracts.RiskOptions{AccountSize: 10000})
	assert.InDelta(t, 100.0, m.RecommendedPositionSize, 1e-9, "default 1% risk")
}

func TestEngine_ZeroDenominators(t *testing.T) {
	// 모든 거래 동일 수익: stdev 0, 손실 0, 낙폭 0
	trades := []contracts.AnalyzableTrade{tradeOn(0, 10), tradeOn(1, 10), tradeOn(2, 10)}

	m := newTestEngine().Calculate(trades, contracts.RiskOptions{AccountSize: 1000, RiskPerTradePct: 1})

	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
	assert.Zero(t, m.CalmarRatio)
	assert.Zero(t, m.KellyFraction)
	assert.Zero(t, m.RecoveryFactor)
	assert.Zero(t, m.RecommendedPositionSize)
	assert.Zero(t, m.RiskOfRuinPct)
	assert.Zero(t, m.ProfitFactor)

	// 합계 오버플로: 모든 필드는 유한값으로 JSON 인코딩 가능해야 함
	m = newTestEngine().Calculate([]contracts.AnalyzableTrade{tradeOn(0, 1e308), tradeOn(1, 1e308)}, contracts.RiskOptions{})
	assert.Equal(t, math.MaxFloat64, m.NetProfit)
	_, err := json.Marshal(m)
	assert.NoError(t, err)

	huge := []contracts.AnalyzableTrade{tradeOn(0, 1e308), tradeOn(1, -1e308), tradeOn(2, -1e308)}
	m = newTestEngine().Calculate(huge, contracts.RiskOptions{AccountSize: 1e-300, RiskPerTradePct: 1})

	assert.Equal(t, -1e308, m.NetProfit)
	assert.Equal(t, math.MaxFloat64, m.MaxDrawdown)
	assert.Equal(t, math.MaxFloat64, m.MaxDrawdownPct)
	for name, v := range map[string]float64{
		"avgWin": m.AvgWin, "avgLoss": m.AvgLoss, "sharpe": m.SharpeRatio, "calmar": m.CalmarRatio,
		"recovery": m.RecoveryFactor, "var95": m.VaR95, "profitFactor": m.ProfitFactor,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", name, v)
	}
	_, err = json.Marshal(m)
	assert.NoError(t, err)
}
