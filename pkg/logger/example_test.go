package logger_test

import (
	"errors"

	"github.com/wonny/tradejournal/pkg/config"
	"github.com/wonny/tradejournal/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Analytics API started")
	log.Infof("Analyzed %d trades for %s", 42, "user-1")
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg).Component("report")

	log.WithFields(map[string]interface{}{
		"user_id":  "user-1",
		"trades":   120,
		"patterns": 3,
		"overall":  64,
	}).Info("Report generated")

	log.WithError(errors.New("context canceled")).Warn("Report aborted")
}
