package patterns

import (
	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
)

// Detector evaluates every registered pattern over a trade sequence
// ⭐ SSOT: 패턴 탐지는 Registry 정의만 사용 (비배타적, 한 거래가 여러 패턴에 해당 가능)
type Detector struct {
	registry *Registry
	calendar *calendar.Calendar
	cfg      analyticsconfig.Patterns
}

var _ contracts.PatternDetector = (*Detector)(nil)

// NewDetector creates a detector; a nil calendar uses the default market
func NewDetector(registry *Registry, cal *calendar.Calendar, cfg analyticsconfig.Patterns) *Detector {
	if cal == nil {
		cal = calendar.MustDefault()
	}
	if registry == nil {
		registry = DefaultRegistry(cfg)
	}
	return &Detector{registry: registry, calendar: cal, cfg: cfg}
}

// Detect returns one pattern per type with at least one match, in registry order.
// trades must be sorted by entry time.
func (d *Detector) Detect(trades []contracts.AnalyzableTrade) []contracts.DetectedPattern {
	if len(trades) == 0 {
		return []contracts.DetectedPattern{}
	}

	seq := newSequence(trades, d.calendar, d.cfg)
	out := make([]contracts.DetectedPattern, 0, len(d.registry.defs))

	for _, def := range d.registry.defs {
		var matches []contracts.PatternMatch
		for i, t := range trades {
			if !def.Predicate(seq, i) {
				continue
			}
			matches = append(matches, contracts.PatternMatch{
				TradeID:   t.ID,
				EntryTime: t.EntryTime,
				Cost:      def.Cost(t),
			})
		}
		if len(matches) > 0 {
			out = append(out, contracts.NewDetectedPattern(def.Type, matches))
		}
	}
	return out
}
