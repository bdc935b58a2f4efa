package analyticsconfig

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoad(t *testing.T) {
	path := "../../config/analytics.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "default", cfg.Meta.ProfileID)
	assert.Equal(t, 5, cfg.Patterns.OvertradingThreshold)
	assert.Equal(t, "America/New_York", cfg.Market.Timezone)
	assert.Len(t, cfg.Market.HighVolatilityWindows, 2)
	assert.NotEmpty(t, cfg.Market.Holidays)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2, "hash not deterministic")
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("patterns:\n  overtrading_threshold: 8\n"))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Patterns.OvertradingThreshold)
	// 나머지는 기본값 유지
	assert.Equal(t, 30, cfg.Patterns.RevengeWindowMinutes)
	assert.Equal(t, 1.8, cfg.Emotional.DefaultRiskReward)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("patterns:\n  overtrading_treshold: 8\n"))
	assert.Error(t, err, "typo must fail with KnownFields")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero revenge window", func(c *Config) { c.Patterns.RevengeWindowMinutes = 0 }, "patterns.revenge_window_minutes"},
		{"streak too short", func(c *Config) { c.Patterns.WinStreakLength = 1 }, "patterns.win_streak_length"},
		{"bad gain ratio", func(c *Config) { c.Patterns.LossAversionGainRatio = 1.5 }, "patterns.loss_aversion_gain_ratio"},
		{"bad var percentile", func(c *Config) { c.Risk.VaRPercentile = 60 }, "risk.var_percentile"},
		{"unknown timezone", func(c *Config) { c.Market.Timezone = "Mars/Olympus" }, "market.timezone"},
		{"session reversed", func(c *Config) { c.Market.SessionOpen = "17:00" }, "market"},
		{"bad window", func(c *Config) { c.Market.HighVolatilityWindows[0].End = "09:00" }, "market.high_volatility_windows[0]"},
		{"bad weekday", func(c *Config) { c.Market.WeekendDays = []string{"funday"} }, "market.weekend_days[0]"},
		{"bad holiday", func(c *Config) { c.Market.Holidays = []string{"01/02/2026"} }, "market.holidays[0]"},
		{"size multipliers inverted", func(c *Config) { c.Emotional.SmallSizeMultiplier = 3 }, "emotional.small_size_multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:30", 570, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
