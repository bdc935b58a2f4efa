package risk

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/wonny/tradejournal/internal/contracts"
)

// ErrZeroStopDistance is returned when entry and stop prices coincide
var ErrZeroStopDistance = errors.New("entry and stop price are equal")

// PositionSizeRejected is the sentinel PositionSize returns with ErrZeroStopDistance
const PositionSizeRejected = -1.0

// =============================================================================
// Drawdown
// =============================================================================

// Drawdown is the worst peak-to-trough decline of cumulative P&L
type Drawdown struct {
	Amount float64 // 절대 금액
	Pct    float64 // 계좌 대비, 계좌 없으면 측정 시점 고점 대비
}

// MaxDrawdown walks cumulative P&L in order. The peak starts at 0 (flat equity).
// Pct is Amount / accountSize when accountSize > 0, else Amount / peak at the
// point of the maximum; a non-positive peak reports Pct 0.
func MaxDrawdown(pnls []float64, accountSize float64) Drawdown {
	var cum, peak float64
	var dd Drawdown
	var peakAtMax float64

	for _, p := range pnls {
		cum += p
		if cum > peak {
			peak = cum
		}
		if d := peak - cum; d > dd.Amount {
			dd.Amount = d
			peakAtMax = peak
		}
	}

	if accountSize > 0 {
		dd.Pct = dd.Amount / accountSize * 100
	} else if peakAtMax > 0 {
		dd.Pct = dd.Amount / peakAtMax * 100
	}
	return dd
}

// =============================================================================
// Daily returns & ratios
// =============================================================================

// DailyReturns sums P&L per calendar day of entry (loc), in day order
func DailyReturns(trades []contracts.AnalyzableTrade, loc *time.Location) []float64 {
	if loc == nil {
		loc = time.UTC
	}

	sums := make(map[string]float64)
	for _, t := range trades {
		sums[t.EntryTime.In(loc).Format("2006-01-02")] += t.PnL
	}

	days := make([]string, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = sums[d]
	}
	return out
}

// SharpeRatio = mean / stdev of daily returns (not annualized); 0 when stdev is 0
func SharpeRatio(daily []float64) float64 {
	return safeDiv(Mean(daily), StdDev(daily))
}

// SortinoRatio = mean of daily returns / stdev of the negative ones.
// 0 when there is no downside deviation, which includes a single losing day
// (sample stdev of one value) and identical losing days. Values above ceiling
// are reported as ceiling with capped = true.
func SortinoRatio(daily []float64, ceiling float64) (ratio float64, capped bool) {
	var downside []float64
	for _, r := range daily {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	ratio = safeDiv(Mean(daily), StdDev(downside))
	if ceiling > 0 && ratio > ceiling {
		return ceiling, true
	}
	return ratio, false
}

// CalmarRatio = annualized net profit / max drawdown
func CalmarRatio(netProfit, spanDays, maxDrawdown, daysPerYear float64) float64 {
	if maxDrawdown == 0 || daysPerYear <= 0 {
		return 0
	}
	years := math.Max(spanDays, 1) / daysPerYear
	return safeDiv(netProfit/years, maxDrawdown)
}

// RecoveryFactor = net profit / max drawdown (absolute)
func RecoveryFactor(netProfit, maxDrawdown float64) float64 {
	return safeDiv(netProfit, maxDrawdown)
}

// =============================================================================
// Sizing
// =============================================================================

// KellyFraction = winRate - (1 - winRate) / (avgWin / avgLoss).
// avgLoss is a positive magnitude; 0 when either average is 0. May be negative.
func KellyFraction(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss == 0 || avgWin == 0 {
		return 0
	}
	payoff := avgWin / avgLoss
	return winRate - (1-winRate)/payoff
}

// PositionSize = (accountSize × riskPct%) / |entry - stop|.
// Returns PositionSizeRejected and ErrZeroStopDistance when the distance is 0.
func PositionSize(accountSize, riskPct, entryPrice, stopPrice float64) (float64, error) {
	dist := math.Abs(entryPrice - stopPrice)
	if dist == 0 {
		return PositionSizeRejected, ErrZeroStopDistance
	}
	if accountSize <= 0 || riskPct <= 0 {
		return 0, nil
	}
	return safeDiv(accountSize*riskPct/100, dist), nil
}

// =============================================================================
// Streaks & tail risk
// =============================================================================

// ConsecutiveStreaks returns the longest win and loss runs. A 0 P&L trade ends both.
func ConsecutiveStreaks(pnls []float64) (maxWins, maxLosses int) {
	var wins, losses int
	for _, p := range pnls {
		switch {
		case p > 0:
			wins++
			losses = 0
		case p < 0:
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}
		if wins > maxWins {
			maxWins = wins
		}
		if losses > maxLosses {
			maxLosses = losses
		}
	}
	return maxWins, maxLosses
}

// ValueAtRisk returns the p-th percentile (e.g. 5 for VaR95) of daily returns.
// Sign is kept: a more negative value is a larger loss bound.
func ValueAtRisk(daily []float64, p float64) float64 {
	return Percentile(sortedCopy(daily), p)
}

// RiskOfRuin is the classical gambler's-ruin approximation for fixed-fraction betting,
// in percent:
//
//	A    = p·b − q          (edge per unit risked, b = avgWin/avgLoss)
//	N    = 100 / riskPct    (account size in units of risk per trade)
//	ruin = ((1 − A) / (1 + A))^N
//
// A ≤ 0 is certain ruin (100), A ≥ 1 is 0. Account size cancels out because the
// bet is a fixed fraction of it. Ruin never decreases when riskPct grows or the
// win rate drops.
func RiskOfRuin(winRate, avgWin, avgLoss, riskPct float64) float64 {
	if riskPct <= 0 {
		return 0
	}
	if avgLoss == 0 {
		// 손실 없는 기록은 파산 불가
		return 0
	}

	payoff := avgWin / avgLoss
	edge := winRate*payoff - (1 - winRate)
	switch {
	case edge <= 0:
		return 100
	case edge >= 1:
		return 0
	}

	units := 100 / riskPct
	ruin := math.Pow((1-edge)/(1+edge), units) * 100
	if math.IsNaN(ruin) {
		return 0
	}
	return math.Min(100, math.Max(0, ruin))
}
