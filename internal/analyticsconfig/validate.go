package analyticsconfig

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // 시스템 tzdata 없이도 market.timezone 로드
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lower/upper case English day name onto time.Weekday
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Emotional ===
	e := cfg.Emotional
	positiveInts := map[string]int{
		"emotional.quick_trade_minutes":  e.QuickTradeMinutes,
		"emotional.max_trades_per_day":   e.MaxTradesPerDay,
		"emotional.long_hold_minutes":    e.LongHoldMinutes,
		"emotional.quick_profit_minutes": e.QuickProfitMinutes,
		"emotional.recent_trades":        e.RecentTrades,
		"emotional.min_win_streak":       e.MinWinStreak,
	}
	for field, v := range positiveInts {
		if v <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}
	positiveFloats := map[string]float64{
		"emotional.oversize_multiplier":   e.OversizeMultiplier,
		"emotional.large_size_multiplier": e.LargeSizeMultiplier,
		"emotional.small_size_multiplier": e.SmallSizeMultiplier,
		"emotional.min_risk_reward":       e.MinRiskReward,
		"emotional.default_risk_reward":   e.DefaultRiskReward,
		"emotional.size_cv_limit":         e.SizeCVLimit,
	}
	for field, v := range positiveFloats {
		if v <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}
	if e.OvertradingPenalty < 0 || e.LongHoldBonus < 0 || e.ConfidenceShift < 0 {
		return ValidationError{"emotional", "penalties and bonuses must be >= 0"}
	}
	if e.SmallSizeMultiplier >= e.LargeSizeMultiplier {
		return ValidationError{"emotional.small_size_multiplier", "must be < large_size_multiplier"}
	}

	// === Patterns ===
	p := cfg.Patterns
	if p.RevengeWindowMinutes <= 0 {
		return ValidationError{"patterns.revenge_window_minutes", "must be > 0"}
	}
	if p.RevengeSizeMultiplier <= 0 {
		return ValidationError{"patterns.revenge_size_multiplier", "must be > 0"}
	}
	if p.OvertradingThreshold <= 0 {
		return ValidationError{"patterns.overtrading_threshold", "must be > 0"}
	}
	if p.WinStreakLength < 2 {
		return ValidationError{"patterns.win_streak_length", "must be >= 2"}
	}
	if p.LossAversionHoldRatio < 1 {
		return ValidationError{"patterns.loss_aversion_hold_ratio", "must be >= 1"}
	}
	if p.LossAversionGainRatio <= 0 || p.LossAversionGainRatio > 1 {
		return ValidationError{"patterns.loss_aversion_gain_ratio", "must be in (0, 1]"}
	}
	if p.NewsWindowMinutes <= 0 {
		return ValidationError{"patterns.news_window_minutes", "must be > 0"}
	}

	// === Risk ===
	r := cfg.Risk
	if r.SortinoCap <= 0 {
		return ValidationError{"risk.sortino_cap", "must be > 0"}
	}
	if r.VaRPercentile <= 0 || r.VaRPercentile >= 50 {
		return ValidationError{"risk.var_percentile", "must be in (0, 50)"}
	}
	if r.DefaultRiskPerTradePct <= 0 || r.DefaultRiskPerTradePct > 100 {
		return ValidationError{"risk.default_risk_per_trade_pct", "must be in (0, 100]"}
	}
	if r.DaysPerYear <= 0 {
		return ValidationError{"risk.days_per_year", "must be > 0"}
	}

	// === Market ===
	return validateMarket(cfg.Market)
}

func validateMarket(m Market) error {
	if m.Timezone == "" {
		return ValidationError{"market.timezone", "required"}
	}
	if _, err := time.LoadLocation(m.Timezone); err != nil {
		return ValidationError{"market.timezone", err.Error()}
	}

	open, err := ParseClock(m.SessionOpen)
	if err != nil {
		return ValidationError{"market.session_open", err.Error()}
	}
	closeAt, err := ParseClock(m.SessionClose)
	if err != nil {
		return ValidationError{"market.session_close", err.Error()}
	}
	if open >= closeAt {
		return ValidationError{"market", "session_open must be before session_close"}
	}

	for i, name := range m.WeekendDays {
		if _, ok := ParseWeekday(name); !ok {
			return ValidationError{fmt.Sprintf("market.weekend_days[%d]", i), fmt.Sprintf("unknown day %q", name)}
		}
	}

	for i, w := range m.HighVolatilityWindows {
		start, err := ParseClock(w.Start)
		if err != nil {
			return ValidationError{fmt.Sprintf("market.high_volatility_windows[%d].start", i), err.Error()}
		}
		end, err := ParseClock(w.End)
		if err != nil {
			return ValidationError{fmt.Sprintf("market.high_volatility_windows[%d].end", i), err.Error()}
		}
		if start >= end {
			return ValidationError{fmt.Sprintf("market.high_volatility_windows[%d]", i), "start must be before end"}
		}
	}

	for i, d := range m.Holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return ValidationError{fmt.Sprintf("market.holidays[%d]", i), "must be YYYY-MM-DD"}
		}
	}
	return nil
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ParseClock parses HH:MM into minutes after midnight
func ParseClock(s string) (int, error) {
	if !hhmmRe.MatchString(s) {
		return 0, fmt.Errorf("invalid HH:MM format: %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
