package contracts

import "time"

// Report is the aggregated analytics response consumed by presentation code
type Report struct {
	AsOf           time.Time         `json:"asOf"`
	TradeCount     int               `json:"tradeCount"`
	EmotionalState EmotionalState    `json:"emotionalState"`
	Patterns       []DetectedPattern `json:"patterns"`
	RiskMetrics    RiskMetrics       `json:"riskMetrics"`
	ConfigHash     string            `json:"configHash,omitempty"`
}

// TotalPatternCost sums the cost of every detected pattern
func (r *Report) TotalPatternCost() float64 {
	var total float64
	for _, p := range r.Patterns {
		total += p.TotalCost.InexactFloat64()
	}
	return total
}

// Pattern looks up one detected pattern by type
func (r *Report) Pattern(t PatternType) (DetectedPattern, bool) {
	for _, p := range r.Patterns {
		if p.Type == t {
			return p, true
		}
	}
	return DetectedPattern{}, false
}
