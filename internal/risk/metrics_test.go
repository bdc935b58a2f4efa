package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name        string
		pnls        []float64
		accountSize float64
		wantAmount  float64
		wantPct     float64
	}{
		{"empty", nil, 0, 0, 0},
		{"rising only", []float64{10, 20, 30}, 0, 0, 0},
		{"peak then trough", []float64{100, -400, 150}, 0, 400, 400},
		{"account denominator", []float64{100, -400, 150}, 10000, 400, 4},
		{"never above zero", []float64{-50, -50, 20}, 0, 100, 0},
		{"second drawdown larger", []float64{200, -50, 300, -400}, 0, 400, 400.0 / 450 * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dd := MaxDrawdown(tt.pnls, tt.accountSize)
			assert.InDelta(t, tt.wantAmount, dd.Amount, 1e-9)
			assert.InDelta(t, tt.wantPct, dd.Pct, 1e-9)
		})
	}
}

func TestSharpeRatio(t *testing.T) {
	assert.Zero(t, SharpeRatio(nil))
	assert.Zero(t, SharpeRatio([]float64{5}))
	assert.Zero(t, SharpeRatio([]float64{1, 1, 1}), "zero stdev")
	assert.InDelta(t, math.Sqrt2, SharpeRatio([]float64{1, 3}), 1e-9)
}

func TestSortinoRatio(t *testing.T) {
	ratio, capped := SortinoRatio([]float64{10, -5, 20, -15}, 10)
	assert.InDelta(t, 2.5/math.Sqrt(50), ratio, 1e-9)
	assert.False(t, capped)

	ratio, capped = SortinoRatio([]float64{10, 20}, 10)
	assert.Zero(t, ratio, "no downside")
	assert.False(t, capped)

	ratio, capped = SortinoRatio([]float64{100, -1, -1.0001}, 10)
	assert.Equal(t, 10.0, ratio)
	assert.True(t, capped)

	// 손실일 1개: 표본 표준편차 0 → 0 (분모 0 규칙)
	ratio, capped = SortinoRatio([]float64{100, 50, -1}, 10)
	assert.Zero(t, ratio)
	assert.False(t, capped)

	ratio, capped = SortinoRatio([]float64{100, -3, -3}, 10)
	assert.Zero(t, ratio, "identical losing days")
	assert.False(t, capped)
}

func TestKellyFraction(t *testing.T) {
	tests := []struct {
		name                     string
		winRate, avgWin, avgLoss float64
		want                     float64
	}{
		{"reference example", 0.5, 1000, 500, 0.25},
		{"no losses", 0.8, 100, 0, 0},
		{"no wins", 0, 0, 100, 0},
		{"negative edge", 0.3, 100, 100, -0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KellyFraction(tt.winRate, tt.avgWin, tt.avgLoss), 1e-9)
		})
	}
}

func TestRecoveryAndCalmar(t *testing.T) {
	assert.Zero(t, RecoveryFactor(500, 0))
	assert.Equal(t, 2.0, RecoveryFactor(500, 250))

	assert.Zero(t, CalmarRatio(1000, 365, 0, 365))
	assert.InDelta(t, 2.0, CalmarRatio(1000, 365, 500, 365), 1e-9)
	// 하루 미만 구간은 1일로 계산
	assert.InDelta(t, 730.0, CalmarRatio(1000, 0, 500, 365), 1e-9)
}

func TestConsecutiveStreaks(t *testing.T) {
	wins, losses := ConsecutiveStreaks([]float64{1, 2, -1, -2, -3, 0, 4})
	assert.Equal(t, 2, wins)
	assert.Equal(t, 3, losses)

	wins, losses = ConsecutiveStreaks([]float64{1, 0, 1, 0, -1})
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	wins, losses = ConsecutiveStreaks(nil)
	assert.Zero(t, wins)
	assert.Zero(t, losses)
}

func TestValueAtRisk(t *testing.T) {
	daily := []float64{100, -50, 0, -100, 50}

	assert.InDelta(t, -90.0, ValueAtRisk(daily, 5), 1e-9)
	assert.Equal(t, []float64{100, -50, 0, -100, 50}, daily, "input must not be reordered")
	assert.Zero(t, ValueAtRisk(nil, 5))
}

func TestPositionSize(t *testing.T) {
	size, err := PositionSize(10000, 1, 50, 48)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, size, 1e-9)

	size, err = PositionSize(10000, 1, 50, 50)
	assert.ErrorIs(t, err, ErrZeroStopDistance)
	assert.Equal(t, PositionSizeRejected, size)

	size, err = PositionSize(0, 1, 50, 48)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRiskOfRuin(t *testing.T) {
	tests := []struct {
		name                              string
		winRate, avgWin, avgLoss, riskPct float64
		want                              float64
	}{
		{"no risk", 0.5, 200, 100, 0, 0},
		{"no losses", 0.9, 200, 0, 1, 0},
		{"negative edge", 0.3, 100, 100, 1, 100},
		{"overwhelming edge", 1, 200, 100, 1, 0},
		{"closed form", 0.5, 200, 100, 25, 100 / 81.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RiskOfRuin(tt.winRate, tt.avgWin, tt.avgLoss, tt.riskPct)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
