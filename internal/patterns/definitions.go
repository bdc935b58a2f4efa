package patterns

import (
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/contracts"
)

// DefaultRegistry registers the built-in patterns in contracts.PatternTypes order
func DefaultRegistry(cfg analyticsconfig.Patterns) *Registry {
	revengeWindow := time.Duration(cfg.RevengeWindowMinutes) * time.Minute
	newsWindow := time.Duration(cfg.NewsWindowMinutes) * time.Minute

	afterLoss := func(s *Sequence, i int) bool {
		gap, ok := s.GapFromPrevious(i)
		return ok && s.Trades[i-1].IsLoss() && gap >= 0 && gap < revengeWindow
	}

	return NewRegistry().
		MustRegister(Definition{
			Type:      contracts.PatternRevengeTrading,
			Predicate: afterLoss,
		}).
		MustRegister(Definition{
			Type: contracts.PatternRevengeSizing,
			Predicate: func(s *Sequence, i int) bool {
				if i == 0 || !s.Trades[i-1].IsLoss() {
					return false
				}
				avg := s.TrailingAvgSize(i)
				return avg > 0 && s.Trades[i].Size > cfg.RevengeSizeMultiplier*avg
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternOvertrading,
			Predicate: func(s *Sequence, i int) bool {
				return s.TradesOnDay(i) > cfg.OvertradingThreshold
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternFOMO,
			Predicate: func(s *Sequence, i int) bool {
				t := s.Trades[i]
				return s.Calendar.InHighVolatility(t.EntryTime) && !t.Has(contracts.TagConfirmed)
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternWinStreakOverconfidence,
			Predicate: func(s *Sequence, i int) bool {
				length, avg := s.WinStreakBefore(i)
				return length >= cfg.WinStreakLength && s.Trades[i].Size > avg
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternLossAversion,
			Predicate: func(s *Sequence, i int) bool {
				return s.lossAverse[i]
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternWeekendWarrior,
			Predicate: func(s *Sequence, i int) bool {
				return !s.Calendar.IsTradingDay(s.Trades[i].EntryTime)
			},
		}).
		MustRegister(Definition{
			Type: contracts.PatternNewsTrader,
			Predicate: func(s *Sequence, i int) bool {
				at := s.Trades[i].EntryTime
				return s.Calendar.IsTradingDay(at) && s.Calendar.InSessionEdge(at, newsWindow)
			},
		})
}
