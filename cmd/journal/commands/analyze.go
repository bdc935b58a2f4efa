package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/normalizer"
	"github.com/wonny/tradejournal/internal/report"
	"github.com/wonny/tradejournal/internal/risk"
	"github.com/wonny/tradejournal/pkg/config"
)

// analyzeCmd runs the engine on a local file, no database needed
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "거래 파일 분석 (오프라인)",
	Long: `JSON 또는 CSV 거래 파일을 읽어 리포트를 출력합니다.
데이터베이스/Redis 없이 동작합니다.

JSON: 거래 배열 또는 {"trades": [...]} 객체
CSV : 헤더 행이 필드 이름 (entry_time, pnl, size, tags ...)

Example:
  go run ./cmd/journal analyze --file trades.csv
  go run ./cmd/journal analyze --file trades.json --as-of 2026-03-31 --account-size 25000 --risk-pct 1
  go run ./cmd/journal analyze --file - --output text < trades.json`,
	RunE: runAnalyze,
}

var (
	analyzeFile        string
	analyzeFormat      string
	analyzeAsOf        string
	analyzeAccountSize float64
	analyzeRiskPct     float64
	analyzeEntryPrice  float64
	analyzeStopPrice   float64
	analyzeSimulate    bool
	analyzeOutput      string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "거래 파일 경로 (- = stdin)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "json|csv (기본: 확장자로 판단, stdin은 json)")
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "기준 시각 (RFC3339 또는 YYYY-MM-DD, 기본: 최신 거래)")
	analyzeCmd.Flags().Float64Var(&analyzeAccountSize, "account-size", 0, "계좌 규모 (0 = 고점 대비 낙폭)")
	analyzeCmd.Flags().Float64Var(&analyzeRiskPct, "risk-pct", 0, "거래당 위험 % (기본: DEFAULT_RISK_PER_TRADE_PCT)")
	analyzeCmd.Flags().Float64Var(&analyzeEntryPrice, "entry-price", 0, "포지션 크기 계산용 진입가")
	analyzeCmd.Flags().Float64Var(&analyzeStopPrice, "stop-price", 0, "포지션 크기 계산용 손절가")
	analyzeCmd.Flags().BoolVar(&analyzeSimulate, "simulate", false, "Monte Carlo 파산 확률 시뮬레이션 포함")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "json", "json|text")
	_ = analyzeCmd.MarkFlagRequired("file")
}

// analysisOutput is the analyze command's JSON document
type analysisOutput struct {
	*contracts.Report
	Simulation      *risk.RuinSimulation `json:"simulation,omitempty"`
	SimulationError string               `json:"simulationError,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeOutput != "json" && analyzeOutput != "text" {
		return fmt.Errorf("--output must be json or text, got %q", analyzeOutput)
	}

	cfg, err := config.LoadForCLI()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	reporter, err := newReporter(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}

	rows, err := readTradeFile(analyzeFile, analyzeFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}

	req := report.Request{Options: contracts.RiskOptions{
		AccountSize:     analyzeAccountSize,
		RiskPerTradePct: cfg.Analytics.DefaultRiskPerTradePct,
		EntryPrice:      analyzeEntryPrice,
		StopPrice:       analyzeStopPrice,
	}}
	if analyzeRiskPct > 0 {
		req.Options.RiskPerTradePct = analyzeRiskPct
	}
	if req.AsOf, err = parseAsOfFlag(analyzeAsOf, reporter.Calendar().Location); err != nil {
		return err
	}

	ctx, cancel := commandContext(5 * time.Minute)
	defer cancel()

	trades := reporter.Normalize(rows)
	rep, err := reporter.AnalyzeTrades(ctx, trades, req)
	if err != nil {
		return err
	}

	out := analysisOutput{Report: rep}
	if analyzeSimulate {
		simulateInto(ctx, &out, trades, req.Options.RiskPerTradePct)
	}

	w := cmd.OutOrStdout()
	if analyzeOutput == "text" {
		renderReportText(w, out)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func simulateInto(ctx context.Context, out *analysisOutput, trades []contracts.AnalyzableTrade, riskPct float64) {
	simCfg := risk.DefaultRuinSimulationConfig()
	if riskPct > 0 {
		simCfg.RiskPerTradePct = riskPct
	}
	sim, err := risk.NewRuinSimulator(simCfg).Simulate(ctx, trades)
	if err != nil {
		out.SimulationError = err.Error()
		return
	}
	out.Simulation = sim
}

// readTradeFile loads JSON or CSV rows from path ("-" = stdin)
func readTradeFile(path, format string, stdin io.Reader) ([]normalizer.RawTrade, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = "csv"
		}
	}

	switch strings.ToLower(format) {
	case "csv":
		return journal.ReadCSV(bytes.NewReader(data))
	case "json":
		return normalizer.SplitArray(data)
	default:
		return nil, fmt.Errorf("unknown format %q (json|csv)", format)
	}
}

// parseAsOfFlag accepts RFC3339 or YYYY-MM-DD (end of that market day)
func parseAsOfFlag(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q (expected RFC3339 or YYYY-MM-DD)", value)
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// renderReportText prints a human-readable report
func renderReportText(w io.Writer, out analysisOutput) {
	rep := out.Report
	const kw = 24

	PrintHeader(w, "Trading Behavior Report")
	PrintKeyValue(w, "As of", rep.AsOf.Format(time.RFC3339), kw)
	PrintKeyValue(w, "Trades", fmt.Sprintf("%d", rep.TradeCount), kw)
	if rep.ConfigHash != "" {
		PrintKeyValue(w, "Thresholds", shortHash(rep.ConfigHash), kw)
	}

	es := rep.EmotionalState
	PrintHeader(w, "Emotional State")
	PrintKeyValue(w, "Overall", fmt.Sprintf("%.1f (%s)", es.Overall, es.Status), kw)
	traits := es.Traits()
	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		PrintKeyValue(w, name, fmt.Sprintf("%.1f", traits[name]), kw)
	}
	if len(es.Insights) > 0 {
		fmt.Fprintln(w)
		PrintList(w, es.Insights)
	}
	if es.Recommendation != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   → %s\n", es.Recommendation)
	}

	PrintHeader(w, "Patterns")
	if len(rep.Patterns) == 0 {
		PrintSuccess(w, "No behavioral patterns detected")
	} else {
		widths := []int{26, 6, 12, 10}
		PrintTableHeader(w, []string{"PATTERN", "COUNT", "COST", "LAST"}, widths)
		for _, p := range rep.Patterns {
			PrintTableRow(w, []string{
				string(p.Type),
				fmt.Sprintf("%d", p.Occurrences),
				p.TotalCost.StringFixed(2),
				p.LastDetected.Format("2006-01-02"),
			}, widths)
		}
		PrintKeyValue(w, "Total cost", fmt.Sprintf("%.2f", rep.TotalPatternCost()), kw)
	}

	rm := rep.RiskMetrics
	PrintHeader(w, "Risk Metrics")
	PrintKeyValue(w, "Net profit", fmt.Sprintf("%.2f", rm.NetProfit), kw)
	PrintKeyValue(w, "Win rate", fmt.Sprintf("%.1f%%", rm.WinRate*100), kw)
	PrintKeyValue(w, "Profit factor", fmt.Sprintf("%.2f", rm.ProfitFactor), kw)
	PrintKeyValue(w, "Max drawdown", fmt.Sprintf("%.2f (%.2f%%)", rm.MaxDrawdown, rm.MaxDrawdownPct), kw)
	PrintKeyValue(w, "Sharpe", fmt.Sprintf("%.2f", rm.SharpeRatio), kw)
	sortino := fmt.Sprintf("%.2f", rm.SortinoRatio)
	if rm.SortinoCapped {
		sortino = fmt.Sprintf("%.0f+", rm.SortinoRatio)
	}
	PrintKeyValue(w, "Sortino", sortino, kw)
	PrintKeyValue(w, "Calmar", fmt.Sprintf("%.2f", rm.CalmarRatio), kw)
	PrintKeyValue(w, "Kelly fraction", fmt.Sprintf("%.3f", rm.KellyFraction), kw)
	PrintKeyValue(w, "Recovery factor", fmt.Sprintf("%.2f", rm.RecoveryFactor), kw)
	PrintKeyValue(w, "Streaks (win/loss)", fmt.Sprintf("%d / %d", rm.MaxConsecutiveWins, rm.MaxConsecutiveLosses), kw)
	PrintKeyValue(w, "VaR 95%", fmt.Sprintf("%.2f", rm.VaR95), kw)
	PrintKeyValue(w, "Risk of ruin", fmt.Sprintf("%.2f%%", rm.RiskOfRuinPct), kw)
	if rm.RecommendedPositionSize >= 0 {
		PrintKeyValue(w, "Position size", fmt.Sprintf("%.2f", rm.RecommendedPositionSize), kw)
	} else {
		PrintKeyValue(w, "Position size", "n/a (entry = stop)", kw)
	}

	if out.Simulation != nil {
		sim := out.Simulation
		PrintHeader(w, "Monte Carlo Risk of Ruin")
		PrintKeyValue(w, "Paths", fmt.Sprintf("%d × %d trades", sim.Config.Paths, sim.Config.TradesPerPath), kw)
		PrintKeyValue(w, "Ruin", fmt.Sprintf("%.2f%%", sim.RuinPct), kw)
		PrintKeyValue(w, "Mean final equity", fmt.Sprintf("%.1f", sim.MeanFinalEquity), kw)
	} else if out.SimulationError != "" {
		fmt.Fprintln(w)
		PrintWarning(w, "Simulation skipped: "+out.SimulationError)
	}
	PrintDoubleSeparator(w)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
