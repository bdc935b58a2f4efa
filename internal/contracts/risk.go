package contracts

// RiskMetrics is the flat quantitative risk record
// ⭐ SSOT: 모든 필드는 유한값 (NaN/Inf 금지, 분모 0이면 0)
type RiskMetrics struct {
	MaxDrawdown    float64 `json:"maxDrawdown"`    // 절대 금액
	MaxDrawdownPct float64 `json:"maxDrawdownPct"` // 계좌 대비 (계좌 없으면 고점 대비)

	SharpeRatio   float64 `json:"sharpeRatio"`
	SortinoRatio  float64 `json:"sortinoRatio"`
	SortinoCapped bool    `json:"sortinoCapped"` // true = "10+"로 표시
	CalmarRatio   float64 `json:"calmarRatio"`

	KellyFraction  float64 `json:"kellyFraction"`
	RecoveryFactor float64 `json:"recoveryFactor"`

	MaxConsecutiveWins   int `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int `json:"maxConsecutiveLosses"`

	VaR95                   float64 `json:"var95"`
	RiskOfRuinPct           float64 `json:"riskOfRuinPct"`
	RecommendedPositionSize float64 `json:"recommendedPositionSize"`

	// Supporting statistics
	TotalTrades  int     `json:"totalTrades"`
	TradingDays  int     `json:"tradingDays"`
	NetProfit    float64 `json:"netProfit"`
	WinRate      float64 `json:"winRate"` // [0,1]
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"` // 양수 크기
	ProfitFactor float64 `json:"profitFactor"`
}
