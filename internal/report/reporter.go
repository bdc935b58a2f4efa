package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/emotional"
	"github.com/wonny/tradejournal/internal/normalizer"
	"github.com/wonny/tradejournal/internal/patterns"
	"github.com/wonny/tradejournal/internal/risk"
	"github.com/wonny/tradejournal/pkg/logger"
)

// Request carries the per-call parameters of one analysis
type Request struct {
	// AsOf anchors the emotional window (zero = latest trade timestamp)
	AsOf    time.Time
	Options contracts.RiskOptions
}

// Reporter normalizes raw rows once and fans the trades out to the three engines
// ⭐ SSOT: 보고서 조립은 여기서만 (컴포넌트는 서로 호출하지 않음)
type Reporter struct {
	normalizer *normalizer.Normalizer
	emotional  contracts.EmotionalCalculator
	patterns   contracts.PatternDetector
	risk       contracts.RiskCalculator
	calendar   *calendar.Calendar
	configHash string
	logger     *logger.Logger
}

// Components lets callers swap individual engines
type Components struct {
	Emotional contracts.EmotionalCalculator
	Patterns  contracts.PatternDetector
	Risk      contracts.RiskCalculator
}

// New wires the default engines from one thresholds config
func New(cfg *analyticsconfig.Config, log *logger.Logger) (*Reporter, error) {
	if cfg == nil {
		cfg = analyticsconfig.Default()
	}
	if err := analyticsconfig.Validate(cfg); err != nil {
		return nil, err
	}
	cal, err := calendar.New(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("build calendar: %w", err)
	}
	hash, err := analyticsconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	components := Components{
		Emotional: emotional.NewCalculator(cfg.Emotional, cal.Location,
			emotional.WithRiskReward(emotional.TradeRiskReward{Fallback: cfg.Emotional.DefaultRiskReward})),
		Patterns: patterns.NewDetector(patterns.DefaultRegistry(cfg.Patterns), cal, cfg.Patterns),
		Risk:     risk.NewEngine(cfg.Risk, cal.Location),
	}
	return NewWithComponents(cal, components, hash, log), nil
}

// NewWithComponents assembles a reporter from explicit engines
func NewWithComponents(cal *calendar.Calendar, c Components, configHash string, log *logger.Logger) *Reporter {
	if cal == nil {
		cal = calendar.MustDefault()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reporter{
		normalizer: normalizer.New(cal.Location),
		emotional:  c.Emotional,
		patterns:   c.Patterns,
		risk:       c.Risk,
		calendar:   cal,
		configHash: configHash,
		logger:     log.Component("report"),
	}
}

// Calendar returns the market calendar shared by the engines
func (r *Reporter) Calendar() *calendar.Calendar { return r.calendar }

// ConfigHash identifies the thresholds profile stamped into reports
func (r *Reporter) ConfigHash() string { return r.configHash }

// Normalize exposes the reporter's normalizer (simulation, persistence)
func (r *Reporter) Normalize(raw []normalizer.RawTrade) []contracts.AnalyzableTrade {
	return r.normalizer.Normalize(raw)
}

// Analyze normalizes raw rows and builds the report.
// Bad data never errors; only a cancelled context does.
func (r *Reporter) Analyze(ctx context.Context, raw []normalizer.RawTrade, req Request) (*contracts.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return r.AnalyzeTrades(ctx, r.normalizer.Normalize(raw), req)
}

// AnalyzeTrades builds the report from already-normalized trades (sorted by entry)
func (r *Reporter) AnalyzeTrades(ctx context.Context, trades []contracts.AnalyzableTrade, req Request) (*contracts.Report, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = latestTimestamp(trades)
	}

	report := &contracts.Report{
		AsOf:       asOf,
		TradeCount: len(trades),
		ConfigHash: r.configHash,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.EmotionalState = r.emotional.Calculate(trades, asOf)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Patterns = r.patterns.Detect(trades)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.RiskMetrics = r.risk.Calculate(trades, req.Options)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if report.Patterns == nil {
		report.Patterns = []contracts.DetectedPattern{}
	}

	r.logger.WithFields(map[string]interface{}{
		"trades":   report.TradeCount,
		"patterns": len(report.Patterns),
		"overall":  report.EmotionalState.Overall,
	}).Debug("Report assembled")

	return report, nil
}

func latestTimestamp(trades []contracts.AnalyzableTrade) time.Time {
	var latest time.Time
	for _, t := range trades {
		if t.EntryTime.After(latest) {
			latest = t.EntryTime
		}
		if t.HasExit && t.ExitTime.After(latest) {
			latest = t.ExitTime
		}
	}
	return latest
}
