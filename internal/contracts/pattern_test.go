package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patternBase = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

func match(id string, minutes int, cost int64) PatternMatch {
	return PatternMatch{
		TradeID:   id,
		EntryTime: patternBase.Add(time.Duration(minutes) * time.Minute),
		Cost:      decimal.NewFromInt(cost),
	}
}

func TestNewDetectedPattern(t *testing.T) {
	p := NewDetectedPattern(PatternFOMO, []PatternMatch{
		match("t3", 30, -50),
		match("t1", 10, -20),
		match("t2", 20, 15),
	})

	assert.Equal(t, PatternFOMO, p.Type)
	assert.Equal(t, 3, p.Occurrences)
	assert.Equal(t, []string{"t1", "t2", "t3"}, p.AffectedTradeIDs)
	assert.True(t, p.TotalCost.Equal(decimal.NewFromInt(-55)))
	assert.True(t, p.FirstDetected.Equal(patternBase.Add(10*time.Minute)))
	assert.True(t, p.LastDetected.Equal(patternBase.Add(30*time.Minute)))
}

func TestNewDetectedPattern_DuplicateTradeID(t *testing.T) {
	p := NewDetectedPattern(PatternOvertrading, []PatternMatch{
		match("t1", 20, -5),
		match("t1", 10, -1),
		match("t1", 10, -9),
	})

	require.Len(t, p.Matches, 1)
	assert.Equal(t, 1, p.Occurrences)
	assert.True(t, p.TotalCost.Equal(decimal.NewFromInt(-9)))
	assert.True(t, p.FirstDetected.Equal(patternBase.Add(10*time.Minute)))
}

func TestMerge_TypeMismatch(t *testing.T) {
	a := NewDetectedPattern(PatternFOMO, []PatternMatch{match("t1", 0, 1)})
	b := NewDetectedPattern(PatternOvertrading, []PatternMatch{match("t2", 0, 1)})

	_, err := a.Merge(b)

	assert.True(t, errors.Is(err, ErrPatternTypeMismatch))
}

func TestMergeDetections_Order(t *testing.T) {
	got := MergeDetections(
		[]DetectedPattern{
			NewDetectedPattern("custom_z", []PatternMatch{match("t9", 0, 1)}),
			NewDetectedPattern(PatternNewsTrader, []PatternMatch{match("t1", 0, 1)}),
		},
		[]DetectedPattern{
			NewDetectedPattern(PatternRevengeTrading, []PatternMatch{match("t2", 0, 1)}),
			NewDetectedPattern("custom_a", []PatternMatch{match("t3", 0, 1)}),
			NewDetectedPattern(PatternNewsTrader, []PatternMatch{match("t4", 5, 2)}),
		},
	)

	var types []PatternType
	for _, p := range got {
		types = append(types, p.Type)
	}
	assert.Equal(t, []PatternType{PatternRevengeTrading, PatternNewsTrader, "custom_a", "custom_z"}, types)
	assert.Equal(t, 2, got[1].Occurrences)
}

func TestDetectedPattern_MarshalJSON(t *testing.T) {
	p := NewDetectedPattern(PatternRevengeTrading, []PatternMatch{match("B", 15, -800)})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "revenge_trading", decoded["type"])
	assert.Equal(t, -800.0, decoded["totalCost"])
	assert.Equal(t, 1.0, decoded["occurrences"])
	assert.NotContains(t, decoded, "Matches")
}

func TestReport_Helpers(t *testing.T) {
	r := Report{Patterns: []DetectedPattern{
		NewDetectedPattern(PatternFOMO, []PatternMatch{match("a", 0, -10)}),
		NewDetectedPattern(PatternOvertrading, []PatternMatch{match("b", 0, -15)}),
	}}

	assert.Equal(t, -25.0, r.TotalPatternCost())
	p, ok := r.Pattern(PatternOvertrading)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, p.AffectedTradeIDs)
	_, ok = r.Pattern(PatternLossAversion)
	assert.False(t, ok)
}

// ============================================================
// Merge laws
// ============================================================

// genPattern draws trade ids from a small pool so merges overlap
func genPattern() gopter.Gen {
	return gen.SliceOfN(6, gopter.CombineGens(
		gen.IntRange(0, 8),
		gen.IntRange(0, 120),
		gen.Int64Range(-1000, 1000),
	)).Map(func(rows [][]interface{}) DetectedPattern {
		matches := make([]PatternMatch, 0, len(rows))
		for _, r := range rows {
			matches = append(matches, match(fmt.Sprintf("t%d", r[0].(int)), r[1].(int), r[2].(int64)))
		}
		return NewDetectedPattern(PatternRevengeTrading, matches)
	})
}

func samePattern(a, b DetectedPattern) bool {
	return a.Type == b.Type &&
		a.Occurrences == b.Occurrences &&
		a.TotalCost.Equal(b.TotalCost) &&
		a.FirstDetected.Equal(b.FirstDetected) &&
		a.LastDetected.Equal(b.LastDetected) &&
		reflect.DeepEqual(a.AffectedTradeIDs, b.AffectedTradeIDs)
}

func mustMerge(a, b DetectedPattern) DetectedPattern {
	out, err := a.Merge(b)
	if err != nil {
		panic(err)
	}
	return out
}

func TestProperty_MergeLaws(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(20260302)

	properties := gopter.NewProperties(parameters)

	properties.Property("idempotent", prop.ForAll(
		func(a DetectedPattern) bool {
			return samePattern(mustMerge(a, a), a)
		},
		genPattern(),
	))

	properties.Property("commutative", prop.ForAll(
		func(a, b DetectedPattern) bool {
			return samePattern(mustMerge(a, b), mustMerge(b, a))
		},
		genPattern(), genPattern(),
	))

	properties.Property("associative", prop.ForAll(
		func(a, b, c DetectedPattern) bool {
			return samePattern(mustMerge(mustMerge(a, b), c), mustMerge(a, mustMerge(b, c)))
		},
		genPattern(), genPattern(), genPattern(),
	))

	properties.Property("occurrences match affected ids", prop.ForAll(
		func(a, b DetectedPattern) bool {
			m := mustMerge(a, b)
			return m.Occurrences == len(m.AffectedTradeIDs) && m.Occurrences <= a.Occurrences+b.Occurrences
		},
		genPattern(), genPattern(),
	))

	properties.TestingRun(t)
}
