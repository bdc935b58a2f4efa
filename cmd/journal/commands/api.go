package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/internal/api"
	"github.com/wonny/tradejournal/internal/api/handlers"
	"github.com/wonny/tradejournal/internal/api/metrics"
	"github.com/wonny/tradejournal/internal/risk"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                                 - Health check
  GET  /metrics                                - Prometheus metrics
  POST /api/analytics                          - 요청 본문의 거래 분석
  GET  /api/users/{userID}/analytics           - 저장된 저널 분석 (캐시)
  GET  /api/users/{userID}/patterns            - 누적 패턴 탐지 결과
  POST /api/users/{userID}/snapshots           - 스냅샷 즉시 저장
  GET  /api/users/{userID}/emotional/history   - 감정 점수 이력
  POST /api/risk/position-size                 - 포지션 크기 계산
  GET  /ws/users/{userID}/events               - 실시간 알림 (websocket)

Example:
  go run ./cmd/journal api
  go run ./cmd/journal api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trade Journal API Server ===")
	return serve(false)
}

// serve runs the API (and optionally the scheduler) until SIGINT/SIGTERM
func serve(withScheduler bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	server := api.New(a.cfg, a.log, buildRouter(a))

	// Redis pub/sub 수신 (다른 프로세스의 이벤트 전달)
	go a.hub.Run(ctx)

	if withScheduler {
		sched, err := buildScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

// buildRouter wires handlers, health checks and middleware dependencies
func buildRouter(a *app) http.Handler {
	var m *metrics.Metrics
	if a.cfg.MetricsEnabled {
		m = metrics.New()
	}

	simulation := risk.DefaultRuinSimulationConfig()
	simulation.RiskPerTradePct = a.cfg.Analytics.DefaultRiskPerTradePct

	analytics := handlers.NewAnalyticsHandler(a.reporter, a.store, a.cache, a.snapshots, m, handlers.AnalyticsOptions{
		DefaultAccountSize: a.cfg.Analytics.DefaultAccountSize,
		DefaultRiskPct:     a.cfg.Analytics.DefaultRiskPerTradePct,
		CacheTTL:           a.cfg.Analytics.ReportCacheTTL,
		Simulation:         simulation,
	}, a.log)

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) (interface{}, error) {
			return a.db.HealthCheck(ctx)
		},
	}
	if a.redis.Enabled() {
		checks["redis"] = func(ctx context.Context) (interface{}, error) {
			return "ok", a.redis.Redis().Ping(ctx).Err()
		}
	}

	var limiter api.Limiter
	if a.cfg.RateLimit.Enabled {
		limiter = api.NewLimiter(a.cfg.RateLimit, a.redis)
	}

	return api.NewRouter(api.Dependencies{
		Analytics:   analytics,
		Risk:        handlers.NewRiskHandler(m, a.log),
		Events:      handlers.NewEventsHandler(a.hub, a.log),
		Health:      handlers.NewHealthHandler(api.ServiceName, checks),
		Metrics:     m,
		Limiter:     limiter,
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      a.log,
	})
}
