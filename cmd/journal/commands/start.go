package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// startCmd runs the API server and the scheduler in one process
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "API 서버 + 스케줄러 시작",
	Long: `API 서버와 스케줄러를 하나의 프로세스로 시작합니다.

Redis가 켜져 있으면 알림은 pub/sub으로 다른 API 인스턴스에도 전달됩니다.

Example:
  go run ./cmd/journal start
  go run ./cmd/journal start --port 8089`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("=== Trade Journal (API + Scheduler) ===")
		return serve(true)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}
