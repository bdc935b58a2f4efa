package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port        string
	Env         string // development, staging, production
	CORSOrigins []string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Analytics
	Analytics AnalyticsConfig

	// Calendar
	Calendar CalendarConfig

	// Rate limiting (per client)
	RateLimit RateLimitConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   LogFileConfig

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AnalyticsConfig holds engine invocation defaults
type AnalyticsConfig struct {
	ConfigPath             string // thresholds YAML (empty = built-in defaults)
	DefaultAccountSize     float64
	DefaultRiskPerTradePct float64
	ReportCacheTTL         time.Duration
	SnapshotSchedule       string // cron (seconds field first)
}

// CalendarConfig holds the holiday source
type CalendarConfig struct {
	HolidaySourceURL string
	RefreshSchedule  string
}

// RateLimitConfig holds API rate limiting
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	Window  time.Duration // Redis sliding window
}

// LogFileConfig holds rotating file output (empty Path = stdout only)
type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	cfg := load()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("config validation failed: DATABASE_URL is required")
	}

	return cfg, nil
}

// LoadForCLI is Load without the DATABASE_URL requirement (오프라인 analyze 등)
func LoadForCLI() (*Config, error) {
	cfg := load()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func load() *Config {
	// Try multiple paths for .env file
	loadEnvFile()

	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Analytics
		Analytics: AnalyticsConfig{
			ConfigPath:             getEnv("ANALYTICS_CONFIG", ""),
			DefaultAccountSize:     getEnvAsFloat("DEFAULT_ACCOUNT_SIZE", 0),
			DefaultRiskPerTradePct: getEnvAsFloat("DEFAULT_RISK_PER_TRADE_PCT", 1.0),
			ReportCacheTTL:         getEnvAsDuration("REPORT_CACHE_TTL", "5m"),
			SnapshotSchedule:       getEnv("SNAPSHOT_SCHEDULE", "0 30 2 * * *"),
		},

		// Calendar
		Calendar: CalendarConfig{
			HolidaySourceURL: getEnv("HOLIDAY_SOURCE_URL", ""),
			RefreshSchedule:  getEnv("HOLIDAY_REFRESH_SCHEDULE", "0 0 4 * * 1"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 20),
			Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", "1s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile: LogFileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 30),
		},

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}

	if c.Analytics.DefaultAccountSize < 0 {
		return fmt.Errorf("DEFAULT_ACCOUNT_SIZE must be >= 0")
	}
	if c.Analytics.DefaultRiskPerTradePct <= 0 || c.Analytics.DefaultRiskPerTradePct > 100 {
		return fmt.Errorf("DEFAULT_RISK_PER_TRADE_PCT must be in (0, 100]")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
