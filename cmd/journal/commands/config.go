package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/pkg/config"
)

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 관리",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [thresholds.yaml]",
	Short: "임계값 YAML 검증 및 해시 출력",
	Long: `임계값 파일과 환경변수 설정을 검증하고 설정 해시를 출력합니다.
파일을 생략하면 --analytics-config, ANALYTICS_CONFIG, 기본값 순으로 사용합니다.

Example:
  go run ./cmd/journal config check config/analytics.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	env, err := config.LoadForCLI()
	if err != nil {
		PrintError(w, err.Error())
		return err
	}
	PrintSuccess(w, fmt.Sprintf("Environment config (ENV=%s)", env.Env))

	path := env.Analytics.ConfigPath
	if analyticsConfig != "" {
		path = analyticsConfig
	}
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := analyticsconfig.LoadOrDefault(path)
	if err != nil {
		var verr analyticsconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(w, "Invalid thresholds: "+verr.Error())
		} else {
			PrintError(w, err.Error())
		}
		return err
	}

	hash, err := analyticsconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash thresholds: %w", err)
	}

	source := path
	if source == "" {
		source = "(built-in defaults)"
	}

	const kw = 12
	PrintSuccess(w, "Analytics thresholds")
	PrintKeyValue(w, "Source", source, kw)
	PrintKeyValue(w, "Profile", fmt.Sprintf("%s v%s", cfg.Meta.ProfileID, cfg.Meta.Version), kw)
	PrintKeyValue(w, "Market", fmt.Sprintf("%s (%s)", cfg.Market.Code, cfg.Market.Timezone), kw)
	PrintKeyValue(w, "Hash", hash, kw)

	if env.Database.URL == "" {
		fmt.Fprintln(w)
		PrintWarning(w, "DATABASE_URL not set: only 'analyze' and 'config check' will work")
	}
	return nil
}
