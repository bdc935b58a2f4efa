package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PatternType names a behavioral mistake-pattern
type PatternType string

const (
	PatternRevengeTrading          PatternType = "revenge_trading"
	PatternRevengeSizing           PatternType = "revenge_sizing"
	PatternOvertrading             PatternType = "overtrading"
	PatternFOMO                    PatternType = "fomo"
	PatternWinStreakOverconfidence PatternType = "win_streak_overconfidence"
	PatternLossAversion            PatternType = "loss_aversion"
	PatternWeekendWarrior          PatternType = "weekend_warrior"
	PatternNewsTrader              PatternType = "news_trader"
)

// PatternTypes is the canonical output order
var PatternTypes = []PatternType{
	PatternRevengeTrading,
	PatternRevengeSizing,
	PatternOvertrading,
	PatternFOMO,
	PatternWinStreakOverconfidence,
	PatternLossAversion,
	PatternWeekendWarrior,
	PatternNewsTrader,
}

// ErrPatternTypeMismatch is returned when merging detections of different types
var ErrPatternTypeMismatch = errors.New("pattern type mismatch")

// PatternMatch is one trade attributed to a pattern
type PatternMatch struct {
	TradeID   string          `json:"tradeId"`
	EntryTime time.Time       `json:"entryTime"`
	Cost      decimal.Decimal `json:"cost"`
}

// DetectedPattern aggregates every match of one pattern type
// ⭐ SSOT: 파생 필드(횟수/비용/기간/ID)는 항상 Matches에서 계산
type DetectedPattern struct {
	Type             PatternType     `json:"type"`
	Occurrences      int             `json:"occurrences"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	FirstDetected    time.Time       `json:"firstDetected"`
	LastDetected     time.Time       `json:"lastDetected"`
	AffectedTradeIDs []string        `json:"affectedTradeIds"`

	// Matches carries per-trade attribution so merges stay set-based
	Matches []PatternMatch `json:"-"`
}

// NewDetectedPattern builds a pattern from its matches.
// A trade id seen twice keeps the match with the earliest entry, then the lowest cost.
func NewDetectedPattern(patternType PatternType, matches []PatternMatch) DetectedPattern {
	byID := make(map[string]PatternMatch, len(matches))
	for _, m := range matches {
		prev, ok := byID[m.TradeID]
		if !ok || matchLess(m, prev) {
			byID[m.TradeID] = m
		}
	}

	unique := make([]PatternMatch, 0, len(byID))
	for _, m := range byID {
		unique = append(unique, m)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].TradeID < unique[j].TradeID })

	p := DetectedPattern{
		Type:             patternType,
		Occurrences:      len(unique),
		TotalCost:        decimal.Zero,
		AffectedTradeIDs: make([]string, 0, len(unique)),
		Matches:          unique,
	}
	for i, m := range unique {
		p.TotalCost = p.TotalCost.Add(m.Cost)
		p.AffectedTradeIDs = append(p.AffectedTradeIDs, m.TradeID)
		if i == 0 || m.EntryTime.Before(p.FirstDetected) {
			p.FirstDetected = m.EntryTime
		}
		if i == 0 || m.EntryTime.After(p.LastDetected) {
			p.LastDetected = m.EntryTime
		}
	}
	return p
}

func matchLess(a, b PatternMatch) bool {
	if !a.EntryTime.Equal(b.EntryTime) {
		return a.EntryTime.Before(b.EntryTime)
	}
	return a.Cost.LessThan(b.Cost)
}

// Merge combines two detections of the same type.
// Idempotent, associative and commutative: matches are unioned by trade id.
func (p DetectedPattern) Merge(other DetectedPattern) (DetectedPattern, error) {
	if p.Type != other.Type {
		return DetectedPattern{}, fmt.Errorf("%w: %s vs %s", ErrPatternTypeMismatch, p.Type, other.Type)
	}
	matches := make([]PatternMatch, 0, len(p.Matches)+len(other.Matches))
	matches = append(matches, p.Matches...)
	matches = append(matches, other.Matches...)
	return NewDetectedPattern(p.Type, matches), nil
}

// MergeDetections merges any number of detection lists, one result per type.
// Known types come out in PatternTypes order, unknown ones sorted by name.
func MergeDetections(sets ...[]DetectedPattern) []DetectedPattern {
	grouped := make(map[PatternType][]PatternMatch)
	for _, set := range sets {
		for _, p := range set {
			grouped[p.Type] = append(grouped[p.Type], p.Matches...)
		}
	}

	result := make([]DetectedPattern, 0, len(grouped))
	for _, t := range PatternTypes {
		if matches, ok := grouped[t]; ok {
			result = append(result, NewDetectedPattern(t, matches))
			delete(grouped, t)
		}
	}

	rest := make([]PatternType, 0, len(grouped))
	for t := range grouped {
		rest = append(rest, t)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, t := range rest {
		result = append(result, NewDetectedPattern(t, grouped[t]))
	}
	return result
}

// MarshalJSON renders TotalCost as a plain JSON number
func (p DetectedPattern) MarshalJSON() ([]byte, error) {
	type alias DetectedPattern
	return json.Marshal(struct {
		alias
		TotalCost float64 `json:"totalCost"`
	}{
		alias:     alias(p),
		TotalCost: p.TotalCost.InexactFloat64(),
	})
}
