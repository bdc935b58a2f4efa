package emotional

import "github.com/wonny/tradejournal/internal/contracts"

// RiskRewardSource supplies the average risk-reward ratio of a trade window.
// Raw journal rows rarely carry it, so the source is pluggable.
type RiskRewardSource interface {
	AverageRiskReward(trades []contracts.AnalyzableTrade) float64
}

// ConstantRiskReward reports the same ratio for every window
type ConstantRiskReward float64

// AverageRiskReward implements RiskRewardSource
func (c ConstantRiskReward) AverageRiskReward([]contracts.AnalyzableTrade) float64 {
	return float64(c)
}

// TradeRiskReward averages the planned ratio recorded on each trade.
// Trades without one are skipped; Fallback is used when none has it.
type TradeRiskReward struct {
	Fallback float64
}

// AverageRiskReward implements RiskRewardSource
func (s TradeRiskReward) AverageRiskReward(trades []contracts.AnalyzableTrade) float64 {
	var sum float64
	var n int
	for _, t := range trades {
		if t.RiskReward > 0 {
			sum += t.RiskReward
			n++
		}
	}
	if n == 0 {
		return s.Fallback
	}
	return sum / float64(n)
}
