package emotional

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/wonny/tradejournal/internal/contracts"
)

var propertyTags = []contracts.Tag{
	contracts.TagNoStopLoss, contracts.TagStopLossUsed, contracts.TagStrategyViolation,
	contracts.TagGaveBackProfits, contracts.TagAngry, contracts.TagImpulsive,
	contracts.TagFearful, contracts.TagGreedy, contracts.TagRevenge, contracts.TagOverconfident,
}

type tradeSpec struct {
	GapMinutes  int
	HoldMinutes int
	PnL         float64
	Size        float64
	TagMask     int
}

func genTradeSpec() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 600),
		gen.IntRange(0, 600),
		gen.Float64Range(-2000, 2000),
		gen.Float64Range(0, 500),
		gen.IntRange(0, 1<<len(propertyTags)-1),
	).Map(func(v []interface{}) tradeSpec {
		return tradeSpec{
			GapMinutes:  v[0].(int),
			HoldMinutes: v[1].(int),
			PnL:         v[2].(float64),
			Size:        v[3].(float64),
			TagMask:     v[4].(int),
		}
	})
}

func buildTrades(specs []tradeSpec) []contracts.AnalyzableTrade {
	cursor := asOf.Add(-20 * 24 * time.Hour)
	trades := make([]contracts.AnalyzableTrade, 0, len(specs))
	for _, s := range specs {
		cursor = cursor.Add(time.Duration(s.GapMinutes) * time.Minute)
		var tags []contracts.Tag
		for i, tag := range propertyTags {
			if s.TagMask&(1<<i) != 0 {
				tags = append(tags, tag)
			}
		}
		trades = append(trades, contracts.AnalyzableTrade{
			ID:        cursor.Format(time.RFC3339),
			EntryTime: cursor,
			ExitTime:  cursor.Add(time.Duration(s.HoldMinutes) * time.Minute),
			HasExit:   s.HoldMinutes%7 != 0,
			PnL:       s.PnL,
			Size:      s.Size,
			Tags:      contracts.NewTagSet(tags...),
		})
	}
	return trades
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func TestProperty_ScoresBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)
	calc := newTestCalculator()

	properties.Property("every trait and overall in [0,100]", prop.ForAll(
		func(specs []tradeSpec) bool {
			state := calc.Calculate(buildTrades(specs), asOf)
			if !inRange(state.Overall) {
				return false
			}
			for _, v := range state.Traits() {
				if !inRange(v) {
					return false
				}
			}
			return state.Status == contracts.StatusFor(state.Overall) && len(state.Insights) > 0
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.Property("same input, same output", prop.ForAll(
		func(specs []tradeSpec) bool {
			trades := buildTrades(specs)
			a := calc.Calculate(trades, asOf)
			b := calc.Calculate(trades, asOf)
			if a.Overall != b.Overall || a.Recommendation != b.Recommendation || len(a.Insights) != len(b.Insights) {
				return false
			}
			for k, v := range a.Traits() {
				if b.Traits()[k] != v {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.TestingRun(t)
}
