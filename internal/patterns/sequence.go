package patterns

import (
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
)

// Sequence is the read-only view predicates evaluate against.
// Aggregates are computed once per Detect call.
type Sequence struct {
	Trades   []contracts.AnalyzableTrade
	Calendar *calendar.Calendar

	prefixSize []float64      // prefixSize[i] = sum of sizes of trades[:i]
	perDay     map[string]int // market-local day → trade count
	lossAverse map[int]bool   // loss aversion matches (set-level rule)
}

func newSequence(trades []contracts.AnalyzableTrade, cal *calendar.Calendar, cfg analyticsconfig.Patterns) *Sequence {
	s := &Sequence{
		Trades:     trades,
		Calendar:   cal,
		prefixSize: make([]float64, len(trades)+1),
		perDay:     make(map[string]int),
	}
	for i, t := range trades {
		s.prefixSize[i+1] = s.prefixSize[i] + t.Size
		s.perDay[cal.DayKey(t.EntryTime)]++
	}
	s.lossAverse = lossAversionMatches(trades, cfg)
	return s
}

// TrailingAvgSize is the mean size of every trade before i
func (s *Sequence) TrailingAvgSize(i int) float64 {
	if i <= 0 {
		return 0
	}
	return s.prefixSize[i] / float64(i)
}

// TradesOnDay counts trades sharing trade i's market-local day
func (s *Sequence) TradesOnDay(i int) int {
	return s.perDay[s.Calendar.DayKey(s.Trades[i].EntryTime)]
}

// GapFromPrevious is the time between the prior trade's exit and trade i's entry
func (s *Sequence) GapFromPrevious(i int) (time.Duration, bool) {
	if i <= 0 {
		return 0, false
	}
	return s.Trades[i].EntryTime.Sub(s.Trades[i-1].ExitTime), true
}

// WinStreakBefore returns the length and mean size of the win run ending at i-1
func (s *Sequence) WinStreakBefore(i int) (length int, avgSize float64) {
	var total float64
	for j := i - 1; j >= 0 && s.Trades[j].IsWin(); j-- {
		length++
		total += s.Trades[j].Size
	}
	if length > 0 {
		avgSize = total / float64(length)
	}
	return length, avgSize
}

// lossAversionMatches flags small winners and long-held losers, but only when
// losers are held materially longer than winners across the closed trades.
func lossAversionMatches(trades []contracts.AnalyzableTrade, cfg analyticsconfig.Patterns) map[int]bool {
	var winHold, lossHold time.Duration
	var wins, losses int
	var lossSum float64
	for _, t := range trades {
		if !t.HasExit {
			continue
		}
		switch {
		case t.IsWin():
			winHold += t.HoldingTime()
			wins++
		case t.IsLoss():
			lossHold += t.HoldingTime()
			losses++
			lossSum -= t.PnL
		}
	}
	if wins == 0 || losses == 0 {
		return nil
	}

	avgWinHold := float64(winHold) / float64(wins)
	avgLossHold := float64(lossHold) / float64(losses)
	if avgWinHold == 0 || avgLossHold < cfg.LossAversionHoldRatio*avgWinHold {
		return nil
	}
	avgLoss := lossSum / float64(losses)

	out := make(map[int]bool)
	for i, t := range trades {
		if !t.HasExit {
			continue
		}
		switch {
		case t.IsWin() && t.PnL < cfg.LossAversionGainRatio*avgLoss:
			out[i] = true
		case t.IsLoss() && float64(t.HoldingTime()) > cfg.LossAversionHoldRatio*avgWinHold:
			out[i] = true
		}
	}
	return out
}
