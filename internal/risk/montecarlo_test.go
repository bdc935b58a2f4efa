package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/internal/contracts"
)

func mixedTrades() []contracts.AnalyzableTrade {
	pnls := []float64{200, -100, 150, -100, -100, 300, -50, 120, -100, 80, 60, -100}
	trades := make([]contracts.AnalyzableTrade, len(pnls))
	for i, p := range pnls {
		trades[i] = tradeOn(i, p)
	}
	return trades
}

func TestRuinSimulator_Reproducible(t *testing.T) {
	cfg := DefaultRuinSimulationConfig()
	cfg.Paths = 500
	cfg.TradesPerPath = 200
	cfg.Seed = 42

	a, err := NewRuinSimulator(cfg).Simulate(context.Background(), mixedTrades())
	require.NoError(t, err)
	b, err := NewRuinSimulator(cfg).Simulate(context.Background(), mixedTrades())
	require.NoError(t, err)

	assert.Equal(t, a.RuinPct, b.RuinPct)
	assert.Equal(t, a.Percentiles, b.Percentiles)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 12, a.Samples)
	assert.GreaterOrEqual(t, a.RuinPct, 0.0)
	assert.LessOrEqual(t, a.RuinPct, 100.0)
}

func TestRuinSimulator_CertainRuin(t *testing.T) {
	trades := make([]contracts.AnalyzableTrade, 10)
	for i := range trades {
		trades[i] = tradeOn(i, -100)
	}

	cfg := DefaultRuinSimulationConfig()
	cfg.Paths = 50
	cfg.TradesPerPath = 200 // 1R = 1% → 100거래 후 파산
	cfg.Seed = 7

	sim, err := NewRuinSimulator(cfg).Simulate(context.Background(), trades)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sim.RuinPct)
}

func TestRuinSimulator_Errors(t *testing.T) {
	cfg := DefaultRuinSimulationConfig()
	cfg.Seed = 1

	_, err := NewRuinSimulator(cfg).Simulate(context.Background(), mixedTrades()[:3])
	assert.Error(t, err, "insufficient samples")

	winners := make([]contracts.AnalyzableTrade, 10)
	for i := range winners {
		winners[i] = tradeOn(i, 50)
	}
	_, err = NewRuinSimulator(cfg).Simulate(context.Background(), winners)
	assert.Error(t, err, "no losses")

	bad := cfg
	bad.Paths = 0
	_, err = NewRuinSimulator(bad).Simulate(context.Background(), mixedTrades())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRuinSimulator(cfg).Simulate(ctx, mixedTrades())
	assert.ErrorIs(t, err, context.Canceled)
}
