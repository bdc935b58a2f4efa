package patterns

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
)

func TestDefaultRegistry_Order(t *testing.T) {
	defs := DefaultRegistry(analyticsconfig.Default().Patterns).Definitions()

	require.Len(t, defs, len(contracts.PatternTypes))
	for i, def := range defs {
		assert.Equal(t, contracts.PatternTypes[i], def.Type)
		assert.NotNil(t, def.Cost)
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()
	always := func(*Sequence, int) bool { return true }

	require.NoError(t, r.Register(Definition{Type: "custom", Predicate: always}))

	err := r.Register(Definition{Type: "custom", Predicate: always})
	assert.True(t, errors.Is(err, ErrDuplicatePattern))

	assert.Error(t, r.Register(Definition{Type: "", Predicate: always}))
	assert.Error(t, r.Register(Definition{Type: "nil-predicate"}))

	_, ok := r.Lookup("custom")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_CustomPattern(t *testing.T) {
	r := NewRegistry().MustRegister(Definition{
		Type: "big_size",
		Predicate: func(s *Sequence, i int) bool {
			return s.Trades[i].Size >= 10
		},
		Cost: func(t contracts.AnalyzableTrade) decimal.Decimal {
			return decimal.NewFromFloat(t.Size)
		},
	})
	trades := []contracts.AnalyzableTrade{
		nyTrade(t, "small", "2026-03-03 12:00", 5, 10, 1),
		nyTrade(t, "big", "2026-03-03 12:30", 5, 10, 12),
	}

	got := NewDetector(r, calendar.MustDefault(), analyticsconfig.Default().Patterns).Detect(trades)

	require.Len(t, got, 1)
	assert.Equal(t, contracts.PatternType("big_size"), got[0].Type)
	assert.Equal(t, []string{"big"}, got[0].AffectedTradeIDs)
	assert.True(t, got[0].TotalCost.Equal(decimal.NewFromInt(12)))
}

func TestMustRegister_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry().MustRegister(Definition{Type: "x"})
	})
}
