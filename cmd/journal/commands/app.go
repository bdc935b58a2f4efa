package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/internal/report"
	"github.com/wonny/tradejournal/internal/snapshot"
	"github.com/wonny/tradejournal/pkg/config"
	"github.com/wonny/tradejournal/pkg/database"
	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

// cachePrefix Redis 키 접두사
const cachePrefix = "tradejournal"

// app holds the wired services shared by the server-side commands
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	cache     *redis.Cache
	store     journal.Store
	reporter  *report.Reporter
	hub       *notify.Hub
	snapshots *snapshot.Service
}

// newApp loads config, connects to Postgres (migrating the schema) and Redis,
// and restores stored holidays into the market calendar
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Analytics engine
	reporter, err := newReporter(cfg, log)
	if err != nil {
		return nil, err
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if applied > 0 {
		log.WithField("applied", applied).Info("Database migrations applied")
	}

	// 5. Connect to Redis (optional)
	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 6. Repositories and services
	store := journal.NewRepository(db.Pool, reporter.Calendar().Location)
	cache := redis.NewCache(rc, cachePrefix)
	hub := notify.NewHub(rc, log)

	a := &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     rc,
		cache:     cache,
		store:     store,
		reporter:  reporter,
		hub:       hub,
		snapshots: snapshot.NewService(reporter, store, cache, hub, log),
	}

	if err := a.restoreHolidays(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore stored holidays")
	}

	return a, nil
}

// newReporter builds the engine from the --analytics-config flag or ANALYTICS_CONFIG
func newReporter(cfg *config.Config, log *logger.Logger) (*report.Reporter, error) {
	path := cfg.Analytics.ConfigPath
	if analyticsConfig != "" {
		path = analyticsConfig
	}

	thresholds, err := analyticsconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load analytics config %q: %w", path, err)
	}

	reporter, err := report.New(thresholds, log)
	if err != nil {
		return nil, fmt.Errorf("init reporter: %w", err)
	}
	return reporter, nil
}

func (a *app) restoreHolidays(ctx context.Context) error {
	cal := a.reporter.Calendar()
	holidays, err := a.store.GetHolidays(ctx, cal.Code)
	if err != nil {
		return err
	}

	added := 0
	for _, h := range holidays {
		if cal.AddHoliday(h) {
			added++
		}
	}
	a.log.WithFields(map[string]interface{}{
		"market": cal.Code,
		"stored": len(holidays),
		"added":  added,
	}).Debug("Restored market holidays")
	return nil
}

// Close releases the database pool and the Redis client
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

// cliLogger logs to stderr so stdout stays machine-readable (analyze --output json)
func cliLogger(cfg *config.Config) *logger.Logger {
	if !verbose {
		return logger.Nop()
	}
	return logger.NewWithWriter(os.Stderr, cfg.Env)
}

func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
