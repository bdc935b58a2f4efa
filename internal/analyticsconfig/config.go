package analyticsconfig

// Config는 분석 엔진의 모든 임계값 설정
// ⭐ SSOT: 매직 넘버 대신 이 구조체에서만 임계값을 읽음
// Default()의 값이 기준 동작 (검증된 최적값이 아님)
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Emotional Emotional `yaml:"emotional" json:"emotional"`
	Patterns  Patterns  `yaml:"patterns" json:"patterns"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	Market    Market    `yaml:"market" json:"market"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Emotional 감정 점수 임계값
type Emotional struct {
	QuickTradeMinutes   int     `yaml:"quick_trade_minutes" json:"quick_trade_minutes"`     // 손실 후 재진입 판정 창
	MaxTradesPerDay     int     `yaml:"max_trades_per_day" json:"max_trades_per_day"`       // 초과 일수당 감점
	OvertradingPenalty  float64 `yaml:"overtrading_penalty" json:"overtrading_penalty"`     // 일당 감점
	LongHoldMinutes     int     `yaml:"long_hold_minutes" json:"long_hold_minutes"`         // 평균 보유 보너스 기준
	LongHoldBonus       float64 `yaml:"long_hold_bonus" json:"long_hold_bonus"`             // 인내 보너스
	OversizeMultiplier  float64 `yaml:"oversize_multiplier" json:"oversize_multiplier"`     // 평균 대비 과대 포지션
	LargeSizeMultiplier float64 `yaml:"large_size_multiplier" json:"large_size_multiplier"` // 탐욕 판정
	SmallSizeMultiplier float64 `yaml:"small_size_multiplier" json:"small_size_multiplier"` // 공포 판정
	QuickProfitMinutes  int     `yaml:"quick_profit_minutes" json:"quick_profit_minutes"`   // 조기 익절 판정
	MinRiskReward       float64 `yaml:"min_risk_reward" json:"min_risk_reward"`
	DefaultRiskReward   float64 `yaml:"default_risk_reward" json:"default_risk_reward"` // 외부 값 없을 때
	SizeCVLimit         float64 `yaml:"size_cv_limit" json:"size_cv_limit"`
	RecentTrades        int     `yaml:"recent_trades" json:"recent_trades"`
	ConfidenceShift     float64 `yaml:"confidence_shift" json:"confidence_shift"` // 최근 승률 편차 (pt)
	MinWinStreak        int     `yaml:"min_win_streak" json:"min_win_streak"`     // 과신 판정 연승
}

// Patterns 행동 패턴 탐지 임계값
type Patterns struct {
	RevengeWindowMinutes  int     `yaml:"revenge_window_minutes" json:"revenge_window_minutes"`
	RevengeSizeMultiplier float64 `yaml:"revenge_size_multiplier" json:"revenge_size_multiplier"`
	OvertradingThreshold  int     `yaml:"overtrading_threshold" json:"overtrading_threshold"`
	WinStreakLength       int     `yaml:"win_streak_length" json:"win_streak_length"`
	LossAversionHoldRatio float64 `yaml:"loss_aversion_hold_ratio" json:"loss_aversion_hold_ratio"` // 손실 보유 / 이익 보유
	LossAversionGainRatio float64 `yaml:"loss_aversion_gain_ratio" json:"loss_aversion_gain_ratio"` // 작은 이익 / 평균 손실
	NewsWindowMinutes     int     `yaml:"news_window_minutes" json:"news_window_minutes"`
}

// Risk 리스크 지표 설정
type Risk struct {
	SortinoCap             float64 `yaml:"sortino_cap" json:"sortino_cap"`
	VaRPercentile          float64 `yaml:"var_percentile" json:"var_percentile"` // 5 = VaR95
	DefaultRiskPerTradePct float64 `yaml:"default_risk_per_trade_pct" json:"default_risk_per_trade_pct"`
	DaysPerYear            float64 `yaml:"days_per_year" json:"days_per_year"` // Calmar 연환산
}

// Market 시장 캘린더
type Market struct {
	Code                  string   `yaml:"code" json:"code"`
	Timezone              string   `yaml:"timezone" json:"timezone"`
	SessionOpen           string   `yaml:"session_open" json:"session_open"`   // HH:MM
	SessionClose          string   `yaml:"session_close" json:"session_close"` // HH:MM
	WeekendDays           []string `yaml:"weekend_days" json:"weekend_days"`
	HighVolatilityWindows []Window `yaml:"high_volatility_windows" json:"high_volatility_windows"`
	Holidays              []string `yaml:"holidays" json:"holidays"` // YYYY-MM-DD
}

// Window HH:MM 구간 [start, end)
type Window struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Default returns the reference thresholds
func Default() *Config {
	return &Config{
		Meta: Meta{
			ProfileID: "default",
			Version:   "1",
		},
		Emotional: Emotional{
			QuickTradeMinutes:   30,
			MaxTradesPerDay:     5,
			OvertradingPenalty:  5,
			LongHoldMinutes:     240,
			LongHoldBonus:       10,
			OversizeMultiplier:  1.5,
			LargeSizeMultiplier: 2.0,
			SmallSizeMultiplier: 0.5,
			QuickProfitMinutes:  30,
			MinRiskReward:       1.5,
			DefaultRiskReward:   1.8,
			SizeCVLimit:         0.5,
			RecentTrades:        20,
			ConfidenceShift:     10,
			MinWinStreak:        3,
		},
		Patterns: Patterns{
			RevengeWindowMinutes:  30,
			RevengeSizeMultiplier: 1.5,
			OvertradingThreshold:  5,
			WinStreakLength:       3,
			LossAversionHoldRatio: 1.5,
			LossAversionGainRatio: 0.5,
			NewsWindowMinutes:     30,
		},
		Risk: Risk{
			SortinoCap:             10,
			VaRPercentile:          5,
			DefaultRiskPerTradePct: 1.0,
			DaysPerYear:            365,
		},
		Market: Market{
			Code:         "US",
			Timezone:     "America/New_York",
			SessionOpen:  "09:30",
			SessionClose: "16:00",
			WeekendDays:  []string{"saturday", "sunday"},
			HighVolatilityWindows: []Window{
				{Start: "10:00", End: "11:00"},
				{Start: "14:00", End: "15:00"},
			},
			Holidays: []string{},
		},
	}
}
