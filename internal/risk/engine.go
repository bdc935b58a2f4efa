package risk

import (
	"math"
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/contracts"
)

// Engine computes RiskMetrics from a normalized trade sequence
// ⭐ SSOT: 리스크 지표 계산은 여기서만 (모든 분모 0 → 0)
type Engine struct {
	cfg      analyticsconfig.Risk
	location *time.Location
}

var _ contracts.RiskCalculator = (*Engine)(nil)

// NewEngine creates a risk engine; loc buckets daily returns (nil = UTC)
func NewEngine(cfg analyticsconfig.Risk, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{cfg: cfg, location: loc}
}

// Calculate returns zero-valued metrics for an empty list
func (e *Engine) Calculate(trades []contracts.AnalyzableTrade, opts contracts.RiskOptions) contracts.RiskMetrics {
	if len(trades) == 0 {
		return contracts.RiskMetrics{}
	}

	riskPct := opts.RiskPerTradePct
	if riskPct <= 0 {
		riskPct = e.cfg.DefaultRiskPerTradePct
	}

	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
	}

	s := summarize(pnls)
	dd := MaxDrawdown(pnls, opts.AccountSize)
	daily := DailyReturns(trades, e.location)
	sortino, capped := SortinoRatio(daily, e.cfg.SortinoCap)
	wins, losses := ConsecutiveStreaks(pnls)

	m := contracts.RiskMetrics{
		MaxDrawdown:    dd.Amount,
		MaxDrawdownPct: dd.Pct,

		SharpeRatio:   SharpeRatio(daily),
		SortinoRatio:  sortino,
		SortinoCapped: capped,
		CalmarRatio:   CalmarRatio(s.net, spanDays(trades), dd.Amount, e.cfg.DaysPerYear),

		KellyFraction:  KellyFraction(s.winRate, s.avgWin, s.avgLoss),
		RecoveryFactor: RecoveryFactor(s.net, dd.Amount),

		MaxConsecutiveWins:   wins,
		MaxConsecutiveLosses: losses,

		VaR95:                   ValueAtRisk(daily, e.cfg.VaRPercentile),
		RiskOfRuinPct:           RiskOfRuin(s.winRate, s.avgWin, s.avgLoss, riskPct),
		RecommendedPositionSize: recommendedSize(trades, opts, riskPct),

		TotalTrades:  len(trades),
		TradingDays:  len(daily),
		NetProfit:    s.net,
		WinRate:      s.winRate,
		AvgWin:       s.avgWin,
		AvgLoss:      s.avgLoss,
		ProfitFactor: safeDiv(s.grossWin, s.grossLoss),
	}
	finalize(&m)
	return m
}

// finalize keeps every field finite even when P&L sums overflow
func finalize(m *contracts.RiskMetrics) {
	for _, f := range []*float64{
		&m.MaxDrawdown, &m.MaxDrawdownPct,
		&m.SharpeRatio, &m.SortinoRatio, &m.CalmarRatio,
		&m.KellyFraction, &m.RecoveryFactor,
		&m.VaR95, &m.RiskOfRuinPct, &m.RecommendedPositionSize,
		&m.NetProfit, &m.WinRate, &m.AvgWin, &m.AvgLoss, &m.ProfitFactor,
	} {
		*f = bounded(*f)
	}
}

type pnlSummary struct {
	net       float64
	grossWin  float64
	grossLoss float64 // 양수
	winRate   float64 // wins / 전체 거래
	avgWin    float64
	avgLoss   float64 // 양수
}

func summarize(pnls []float64) pnlSummary {
	var s pnlSummary
	var wins, losses int
	for _, p := range pnls {
		s.net += p
		switch {
		case p > 0:
			wins++
			s.grossWin += p
		case p < 0:
			losses++
			s.grossLoss -= p
		}
	}
	s.winRate = safeDiv(float64(wins), float64(len(pnls)))
	s.avgWin = safeDiv(s.grossWin, float64(wins))
	s.avgLoss = safeDiv(s.grossLoss, float64(losses))
	return s
}

// spanDays runs from the first entry to the latest exit
func spanDays(trades []contracts.AnalyzableTrade) float64 {
	start := trades[0].EntryTime
	end := start
	for _, t := range trades {
		if t.ExitTime.After(end) {
			end = t.ExitTime
		}
		if t.EntryTime.After(end) {
			end = t.EntryTime
		}
	}
	return end.Sub(start).Hours() / 24
}

// recommendedSize uses the explicit prices, else the latest trade that has both
func recommendedSize(trades []contracts.AnalyzableTrade, opts contracts.RiskOptions, riskPct float64) float64 {
	entry, stop := opts.EntryPrice, opts.StopPrice
	if entry == 0 || stop == 0 {
		entry, stop = 0, 0
		for i := len(trades) - 1; i >= 0; i-- {
			if trades[i].EntryPrice != 0 && trades[i].StopPrice != 0 {
				entry, stop = trades[i].EntryPrice, trades[i].StopPrice
				break
			}
		}
	}
	if entry == 0 || stop == 0 {
		return 0
	}

	size, err := PositionSize(opts.AccountSize, riskPct, entry, stop)
	if err != nil {
		return 0
	}
	return math.Floor(size*100) / 100
}
