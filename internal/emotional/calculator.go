package emotional

import (
	"math"
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/contracts"
)

// WindowDays is the trailing scoring window (fixed, not configurable)
const WindowDays = 30

// Overall weights of the positive traits
const (
	weightDiscipline       = 0.25
	weightPatience         = 0.20
	weightEmotionalControl = 0.25
	weightRiskAwareness    = 0.15
	weightConfidence       = 0.15
)

// Calculator scores trading psychology over the trailing window
// ⭐ SSOT: EmotionalState는 이 계산기에서만 생성
type Calculator struct {
	cfg        analyticsconfig.Emotional
	location   *time.Location
	riskReward RiskRewardSource
}

var _ contracts.EmotionalCalculator = (*Calculator)(nil)

// Option configures a Calculator
type Option func(*Calculator)

// WithRiskReward replaces the default constant risk-reward source
func WithRiskReward(src RiskRewardSource) Option {
	return func(c *Calculator) {
		if src != nil {
			c.riskReward = src
		}
	}
}

// NewCalculator creates a calculator; loc defines calendar days (nil = UTC)
func NewCalculator(cfg analyticsconfig.Emotional, loc *time.Location, opts ...Option) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calculator{
		cfg:        cfg,
		location:   loc,
		riskReward: ConstantRiskReward(cfg.DefaultRiskReward),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is the state reported without evidence
func Default() contracts.EmotionalState {
	return contracts.EmotionalState{
		Overall:          50,
		Status:           contracts.StatusNeutral,
		Discipline:       50,
		Patience:         50,
		EmotionalControl: 50,
		RiskAwareness:    50,
		Confidence:       50,
		Insights:         []string{insightInsufficientData},
		Recommendation:   recommendations[contracts.StatusNeutral],
	}
}

// Calculate scores trades entered in [asOf-30d, asOf]. trades must be sorted by entry time.
// Trades after asOf are ignored; the all-time win rate uses every trade up to asOf.
func (c *Calculator) Calculate(trades []contracts.AnalyzableTrade, asOf time.Time) contracts.EmotionalState {
	allTime, recent := split(trades, asOf)
	if len(recent) == 0 {
		return Default()
	}

	w := newWindow(recent)

	discipline := c.discipline(w)
	patience := c.patience(w)
	control := c.emotionalControl(w)
	awareness := c.riskAwareness(w)
	confidence := c.confidence(w, allTime)

	overall := clamp(math.Round(
		weightDiscipline*discipline +
			weightPatience*patience +
			weightEmotionalControl*control +
			weightRiskAwareness*awareness +
			weightConfidence*confidence,
	))

	state := contracts.EmotionalState{
		Overall:          overall,
		Status:           contracts.StatusFor(overall),
		Discipline:       math.Round(discipline),
		Patience:         math.Round(patience),
		EmotionalControl: math.Round(control),
		RiskAwareness:    math.Round(awareness),
		Confidence:       math.Round(confidence),
		Fear:             math.Round(c.fear(w)),
		Greed:            math.Round(c.greed(w)),
		Revenge:          math.Round(c.revenge(w)),
		Overconfidence:   math.Round(c.overconfidence(w)),
	}
	state.Insights = insights(state)
	state.Recommendation = recommendations[state.Status]
	return state
}

// split returns trades entered up to asOf, and the subset inside the trailing window
func split(trades []contracts.AnalyzableTrade, asOf time.Time) (allTime, recent []contracts.AnalyzableTrade) {
	from := asOf.AddDate(0, 0, -WindowDays)
	for _, t := range trades {
		if t.EntryTime.After(asOf) {
			continue
		}
		allTime = append(allTime, t)
		if !t.EntryTime.Before(from) {
			recent = append(recent, t)
		}
	}
	return allTime, recent
}
