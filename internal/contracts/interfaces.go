package contracts

import "time"

// EmotionalCalculator scores trading psychology
// ⭐ SSOT: 감정 점수 계산 인터페이스
type EmotionalCalculator interface {
	Calculate(trades []AnalyzableTrade, asOf time.Time) EmotionalState
}

// PatternDetector finds behavioral mistake-patterns
// ⭐ SSOT: 행동 패턴 탐지 인터페이스
type PatternDetector interface {
	Detect(trades []AnalyzableTrade) []DetectedPattern
}

// RiskCalculator computes quantitative risk metrics
// ⭐ SSOT: 리스크 지표 계산 인터페이스
type RiskCalculator interface {
	Calculate(trades []AnalyzableTrade, opts RiskOptions) RiskMetrics
}

// RiskOptions carries the caller-supplied account parameters
type RiskOptions struct {
	AccountSize     float64 `json:"accountSize"`     // 0 = 미지정 (고점 대비 낙폭)
	RiskPerTradePct float64 `json:"riskPerTradePct"` // 예: 1.0 = 1%
	EntryPrice      float64 `json:"entryPrice,omitempty"`
	StopPrice       float64 `json:"stopPrice,omitempty"`
}
