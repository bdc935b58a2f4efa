package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/pkg/redis"
)

// importCmd loads a trade file into a user's journal
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "거래 파일을 저널에 저장",
	Long: `CSV/JSON 거래 파일을 사용자 저널에 저장합니다 (id 기준 upsert).
id가 없는 행은 내용에서 파생된 id를 받습니다 (같은 파일 재import 시 중복 없음). 저장 후 사용자 캐시 리포트를 무효화합니다.

Example:
  go run ./cmd/journal import --user alice --file export.csv
  go run ./cmd/journal import --user alice --file trades.json --snapshot`,
	RunE: runImport,
}

var (
	importUser     string
	importFile     string
	importFormat   string
	importSnapshot bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importUser, "user", "u", "", "사용자 ID")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "거래 파일 경로 (- = stdin)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "json|csv (기본: 확장자로 판단)")
	importCmd.Flags().BoolVar(&importSnapshot, "snapshot", false, "저장 후 스냅샷 즉시 생성")
	_ = importCmd.MarkFlagRequired("user")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	rows, err := readTradeFile(importFile, importFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		PrintWarning(os.Stdout, "No trades in file")
		return nil
	}

	ctx, cancel := commandContext(5 * time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	saved, err := a.store.InsertTrades(ctx, importUser, rows)
	if err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}
	if _, err := a.cache.DeletePattern(ctx, redis.UserReportPattern(importUser)); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate cached reports")
	}
	PrintSuccess(os.Stdout, fmt.Sprintf("Imported %d/%d trades for %s", saved, len(rows), importUser))

	if importSnapshot {
		result, err := a.snapshots.Take(ctx, importUser, time.Now())
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		PrintSuccess(os.Stdout, fmt.Sprintf("Snapshot saved: overall %.1f (%s), %d new pattern matches",
			result.EmotionalState.Overall, result.EmotionalState.Status, result.NewMatches))
	}
	return nil
}
