package normalizer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/tradejournal/internal/contracts"
)

// Normalizer converts raw journal rows into AnalyzableTrade
// ⭐ SSOT: 원시 거래 → AnalyzableTrade 변환은 여기서만
type Normalizer struct {
	location *time.Location
}

// New creates a normalizer reading naive timestamps in loc (nil = UTC)
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{location: loc}
}

// Normalize parses every row and sorts the result by entry time.
// Never fails: a malformed field contributes 0, a malformed row keeps only its id.
func (n *Normalizer) Normalize(rows []RawTrade) []contracts.AnalyzableTrade {
	trades := make([]contracts.AnalyzableTrade, 0, len(rows))
	for i, raw := range rows {
		trades = append(trades, n.parse(i, raw))
	}

	// 동일 진입시각은 입력 순서 유지
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryTime.Before(trades[j].EntryTime)
	})
	return trades
}

// Normalize is New(time.UTC).Normalize
func Normalize(rows []RawTrade) []contracts.AnalyzableTrade {
	return New(time.UTC).Normalize(rows)
}

func (n *Normalizer) parse(index int, raw RawTrade) contracts.AnalyzableTrade {
	trade := contracts.AnalyzableTrade{
		ID:            fmt.Sprintf("row-%d", index),
		Tags:          contracts.TagSet{},
		EmotionalTags: contracts.TagSet{},
	}

	row := gjson.ParseBytes(raw)
	if !row.IsObject() {
		return trade
	}

	if id, ok := raw.ID(); ok {
		trade.ID = id
	}

	if v, ok := first(row, entryTimeKeys); ok {
		if t, ok := timestamp(v, n.location); ok {
			trade.EntryTime = t
		}
	}
	trade.ExitTime = trade.EntryTime
	if v, ok := first(row, exitTimeKeys); ok {
		if t, ok := timestamp(v, n.location); ok {
			trade.ExitTime = t
			trade.HasExit = true
		}
	}

	size, _ := numberAt(row, sizeKeys)
	trade.Size = math.Abs(size)

	trade.EntryPrice, _ = numberAt(row, entryPriceKeys)
	trade.ExitPrice, _ = numberAt(row, exitPriceKeys)
	trade.StopPrice, _ = numberAt(row, stopPriceKeys)
	trade.RiskReward, _ = numberAt(row, riskRewardKeys)
	trade.PnL = pnl(row, trade)

	if v, ok := first(row, strategyKeys); ok {
		trade.StrategyType = strings.TrimSpace(v.String())
	}

	var unclassified []string
	if v, ok := first(row, tagKeys); ok {
		trade.Tags, unclassified = classify(labels(v), unclassified)
	}
	if v, ok := first(row, emotionKeys); ok {
		trade.EmotionalTags, unclassified = classify(labels(v), unclassified)
	}
	trade.UnclassifiedTags = dedupe(unclassified)

	return trade
}

// pnl: explicit → gross - charges → price move × size × side - charges → 0
func pnl(row gjson.Result, trade contracts.AnalyzableTrade) float64 {
	if v, ok := numberAt(row, pnlKeys); ok {
		return v
	}

	var charges float64
	for _, key := range chargeKeys {
		if v, ok := numberAt(row, []string{key}); ok {
			charges += math.Abs(v)
		}
	}

	if gross, ok := numberAt(row, grossPnlKeys); ok {
		return finite(gross - charges)
	}

	if trade.EntryPrice != 0 && trade.ExitPrice != 0 && trade.Size > 0 {
		move := (trade.ExitPrice - trade.EntryPrice) * trade.Size * side(row)
		return finite(move - charges)
	}
	return 0
}

func classify(raw []string, unclassified []string) (contracts.TagSet, []string) {
	tags := make([]contracts.Tag, 0, len(raw))
	for _, label := range raw {
		if tag, ok := contracts.ParseTag(label); ok {
			tags = append(tags, tag)
			continue
		}
		unclassified = append(unclassified, label)
	}
	return contracts.NewTagSet(tags...), unclassified
}

func dedupe(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
