package emotional

import (
	"math"
	"time"

	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/risk"
)

// window holds the per-window aggregates every trait reads
type window struct {
	trades  []contracts.AnalyzableTrade
	n       float64
	avgSize float64
}

func newWindow(trades []contracts.AnalyzableTrade) window {
	w := window{trades: trades, n: float64(len(trades))}
	var total float64
	for _, t := range trades {
		total += t.Size
	}
	if len(trades) > 0 {
		w.avgSize = total / w.n
	}
	return w
}

// frac is the share of window trades satisfying pred
func (w window) frac(pred func(contracts.AnalyzableTrade) bool) float64 {
	if w.n == 0 {
		return 0
	}
	var count float64
	for _, t := range w.trades {
		if pred(t) {
			count++
		}
	}
	return count / w.n
}

func tagged(tag contracts.Tag) func(contracts.AnalyzableTrade) bool {
	return func(t contracts.AnalyzableTrade) bool { return t.Has(tag) }
}

func taggedAny(pred func(contracts.Tag) bool) func(contracts.AnalyzableTrade) bool {
	return func(t contracts.AnalyzableTrade) bool { return t.HasAny(pred) }
}

// afterLoss reports whether cur was entered less than gap after prev closed a loss
func afterLoss(prev, cur contracts.AnalyzableTrade, gap time.Duration) bool {
	if !prev.IsLoss() {
		return false
	}
	d := cur.EntryTime.Sub(prev.ExitTime)
	return d >= 0 && d < gap
}

// run is a maximal streak [start, end] of same-outcome trades
type run struct {
	start, end int
}

func (r run) length() int { return r.end - r.start + 1 }

// streaks returns maximal runs of at least minLen trades matching pred
func streaks(trades []contracts.AnalyzableTrade, pred func(contracts.AnalyzableTrade) bool, minLen int) []run {
	var out []run
	start := -1
	for i := 0; i <= len(trades); i++ {
		if i < len(trades) && pred(trades[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if r := (run{start: start, end: i - 1}); r.length() >= minLen {
				out = append(out, r)
			}
			start = -1
		}
	}
	return out
}

func isWin(t contracts.AnalyzableTrade) bool  { return t.IsWin() }
func isLoss(t contracts.AnalyzableTrade) bool { return t.IsLoss() }

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// ============================================================
// Positive traits (100에서 감점)
// ============================================================

func (c *Calculator) discipline(w window) float64 {
	perDay := make(map[string]int)
	for _, t := range w.trades {
		perDay[t.EntryTime.In(c.location).Format("2006-01-02")]++
	}
	var busyDays float64
	for _, n := range perDay {
		if n > c.cfg.MaxTradesPerDay {
			busyDays++
		}
	}

	score := 100 - c.cfg.OvertradingPenalty*busyDays
	score -= 20 * w.frac(tagged(contracts.TagNoStopLoss))
	score -= 30 * w.frac(tagged(contracts.TagStrategyViolation))
	return clamp(score)
}

func (c *Calculator) patience(w window) float64 {
	gap := time.Duration(c.cfg.QuickTradeMinutes) * time.Minute

	var quick float64
	for i := 1; i < len(w.trades); i++ {
		if afterLoss(w.trades[i-1], w.trades[i], gap) {
			quick++
		}
	}
	score := 100 - 50*quick/w.n

	var held time.Duration
	var closed int
	for _, t := range w.trades {
		if t.HasExit {
			held += t.HoldingTime()
			closed++
		}
	}
	if closed > 0 && held/time.Duration(closed) > time.Duration(c.cfg.LongHoldMinutes)*time.Minute {
		score += c.cfg.LongHoldBonus
	}
	return clamp(score)
}

func (c *Calculator) emotionalControl(w window) float64 {
	emotional := w.frac(taggedAny(func(t contracts.Tag) bool {
		return t.IsNegativeEmotion() || t.IsGenericEmotional()
	}))

	var oversized float64
	for _, r := range streaks(w.trades, isLoss, 2) {
		for i := r.start; i <= r.end; i++ {
			if w.trades[i].Size > c.cfg.OversizeMultiplier*w.avgSize {
				oversized++
			}
		}
	}

	return clamp(100 - 40*emotional - 30*oversized/w.n)
}

func (c *Calculator) riskAwareness(w window) float64 {
	score := 100.0
	if c.riskReward.AverageRiskReward(w.trades) < c.cfg.MinRiskReward {
		score -= 20
	}

	sizes := make([]float64, len(w.trades))
	for i, t := range w.trades {
		sizes[i] = t.Size
	}
	if mean := risk.Mean(sizes); mean > 0 && risk.StdDev(sizes)/mean > c.cfg.SizeCVLimit {
		score -= 25
	}

	score -= 30 * w.frac(func(t contracts.AnalyzableTrade) bool { return !t.Has(contracts.TagStopLossUsed) })
	return clamp(score)
}

// confidence seeds at the recent win rate, shifted against the all-time rate
func (c *Calculator) confidence(w window, allTime []contracts.AnalyzableTrade) float64 {
	recent := w.trades
	if len(recent) > c.cfg.RecentTrades {
		recent = recent[len(recent)-c.cfg.RecentTrades:]
	}
	recentRate := newWindow(recent).frac(isWin) * 100
	allRate := newWindow(allTime).frac(isWin) * 100

	score := recentRate
	switch diff := recentRate - allRate; {
	case diff > c.cfg.ConfidenceShift:
		score += c.cfg.ConfidenceShift
	case diff < -c.cfg.ConfidenceShift:
		score -= c.cfg.ConfidenceShift
	}

	pnls := make([]float64, len(w.trades))
	for i, t := range w.trades {
		pnls[i] = t.PnL
	}
	if mean := risk.Mean(pnls); mean != 0 {
		consistency := math.Max(0, 100-50*math.Abs(risk.StdDev(pnls)/mean))
		score += 0.2 * consistency
	}
	return clamp(score)
}

// ============================================================
// Negative traits (0에서 가산)
// ============================================================

func (c *Calculator) fear(w window) float64 {
	small := w.frac(func(t contracts.AnalyzableTrade) bool {
		return t.Size < c.cfg.SmallSizeMultiplier*w.avgSize
	})

	quickLimit := time.Duration(c.cfg.QuickProfitMinutes) * time.Minute
	var profitable, quick float64
	for _, t := range w.trades {
		if !t.IsWin() || !t.HasExit {
			continue
		}
		profitable++
		if t.HoldingTime() < quickLimit {
			quick++
		}
	}
	var quickShare float64
	if profitable > 0 {
		quickShare = quick / profitable
	}

	fearTagged := w.frac(taggedAny(contracts.Tag.IsFearRelated))
	return clamp(30*small + 40*quickShare + 30*fearTagged)
}

func (c *Calculator) greed(w window) float64 {
	large := w.frac(func(t contracts.AnalyzableTrade) bool {
		return t.Size > c.cfg.LargeSizeMultiplier*w.avgSize
	})
	gaveBack := w.frac(tagged(contracts.TagGaveBackProfits))
	greedTagged := w.frac(taggedAny(contracts.Tag.IsGreedRelated))
	return clamp(40*large + 30*gaveBack + 30*greedTagged)
}

func (c *Calculator) revenge(w window) float64 {
	gap := time.Duration(c.cfg.QuickTradeMinutes) * time.Minute

	var points float64
	for i := 1; i < len(w.trades); i++ {
		prev, cur := w.trades[i-1], w.trades[i]
		if !afterLoss(prev, cur, gap) {
			continue
		}
		points++
		if cur.Size > prev.Size {
			points += 0.5
		}
	}

	score := points / w.n * 100
	score += 50 * w.frac(taggedAny(contracts.Tag.IsRevengeRelated))
	return clamp(score)
}

func (c *Calculator) overconfidence(w window) float64 {
	winRuns := streaks(w.trades, isWin, 2)

	var sizedUp float64
	for _, r := range winRuns {
		if r.length() < c.cfg.MinWinStreak || r.end+1 >= len(w.trades) {
			continue
		}
		if w.trades[r.end+1].Size > c.cfg.OversizeMultiplier*w.avgSize {
			sizedUp++
		}
	}

	score := sizedUp / math.Max(1, float64(len(winRuns))) * 50
	score += 50 * w.frac(taggedAny(contracts.Tag.IsOverconfidenceRelated))
	return clamp(score)
}
