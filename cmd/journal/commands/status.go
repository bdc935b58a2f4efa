package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "의존성 상태 점검 (DB, Redis)",
	Long: `데이터베이스와 Redis 연결 상태, 스키마 버전, 저장된 사용자 수를 표시합니다.

Example:
  go run ./cmd/journal status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		PrintError(os.Stdout, err.Error())
		return err
	}
	defer a.Close()

	const kw = 16
	PrintHeader(os.Stdout, "Trade Journal Status")

	// Database
	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintError(os.Stdout, "Database: "+err.Error())
		return err
	}
	PrintSuccess(os.Stdout, "Database")
	PrintKeyValue(os.Stdout, "Response time", health.ResponseTime.String(), kw)
	PrintKeyValue(os.Stdout, "Schema version", fmt.Sprintf("%d", health.SchemaVersion), kw)
	PrintKeyValue(os.Stdout, "Connections", fmt.Sprintf("%d/%d", health.Stats.TotalConns, health.Stats.MaxConns), kw)

	if users, err := a.store.ListUserIDs(ctx); err == nil {
		PrintKeyValue(os.Stdout, "Users", fmt.Sprintf("%d", len(users)), kw)
	}

	// Redis
	if !a.redis.Enabled() {
		PrintWarning(os.Stdout, "Redis disabled (cache, shared rate limit, pub/sub off)")
	} else if err := pingRedis(ctx, a); err != nil {
		PrintError(os.Stdout, "Redis: "+err.Error())
		return err
	} else {
		PrintSuccess(os.Stdout, "Redis")
	}

	// Engine
	cal := a.reporter.Calendar()
	PrintSuccess(os.Stdout, "Analytics engine")
	PrintKeyValue(os.Stdout, "Thresholds", shortHash(a.reporter.ConfigHash()), kw)
	PrintKeyValue(os.Stdout, "Market", fmt.Sprintf("%s (%s)", cal.Code, cal.Location), kw)
	PrintKeyValue(os.Stdout, "Holidays", fmt.Sprintf("%d", len(cal.Holidays())), kw)
	PrintDoubleSeparator(os.Stdout)

	return nil
}

func pingRedis(ctx context.Context, a *app) error {
	return a.redis.Redis().Ping(ctx).Err()
}
