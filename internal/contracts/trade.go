package contracts

import "time"

// AnalyzableTrade is the canonical, engine-internal trade record
// ⭐ SSOT: 분석 엔진의 입력 거래 타입 (Normalizer만 생성)
type AnalyzableTrade struct {
	ID        string    `json:"id"`
	EntryTime time.Time `json:"entryTime"`
	ExitTime  time.Time `json:"exitTime"`
	// HasExit is false when the source row had no exit and ExitTime was defaulted to EntryTime
	HasExit bool `json:"hasExit"`

	PnL  float64 `json:"pnl"`  // 수수료 차감 후 순손익
	Size float64 `json:"size"` // >= 0

	StrategyType     string   `json:"strategyType,omitempty"`
	Tags             TagSet   `json:"tags"`
	EmotionalTags    TagSet   `json:"emotionalTags"`
	UnclassifiedTags []string `json:"unclassifiedTags,omitempty"`

	// Optional execution details (0 = unknown)
	EntryPrice float64 `json:"entryPrice,omitempty"`
	ExitPrice  float64 `json:"exitPrice,omitempty"`
	StopPrice  float64 `json:"stopPrice,omitempty"`
	RiskReward float64 `json:"riskReward,omitempty"`
}

// IsWin reports a strictly positive result
func (t AnalyzableTrade) IsWin() bool { return t.PnL > 0 }

// IsLoss reports a strictly negative result
func (t AnalyzableTrade) IsLoss() bool { return t.PnL < 0 }

// HoldingTime returns exit - entry (0 for trades without a real exit)
func (t AnalyzableTrade) HoldingTime() time.Duration {
	if !t.HasExit || t.ExitTime.Before(t.EntryTime) {
		return 0
	}
	return t.ExitTime.Sub(t.EntryTime)
}

// Has checks both the process and the emotional tag sets
func (t AnalyzableTrade) Has(tag Tag) bool {
	return t.Tags.Has(tag) || t.EmotionalTags.Has(tag)
}

// HasAny checks both tag sets against a category predicate
func (t AnalyzableTrade) HasAny(pred func(Tag) bool) bool {
	return t.Tags.Any(pred) || t.EmotionalTags.Any(pred)
}
