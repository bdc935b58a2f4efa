package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile         string
	analyticsConfig string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Trade journal - 매매 행동/리스크 분석 엔진",
	Long: `Trade Journal Unified CLI

거래 기록에서 감정 점수, 행동 패턴, 리스크 지표를 계산합니다.

Usage:
  go run ./cmd/journal [command]

Examples:
  go run ./cmd/journal analyze --file trades.csv --account-size 10000
  go run ./cmd/journal api
  go run ./cmd/journal start
  go run ./cmd/journal scheduler run pattern_snapshot`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&analyticsConfig, "analytics-config", "", "thresholds YAML (overrides ANALYTICS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
