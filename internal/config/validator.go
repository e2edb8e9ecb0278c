package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true,
}

// Validate checks the configuration for values the daemon cannot start
// with. Policy limits use struct-tag validation; the rest are explicit
// checks with actionable messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Logging.Level != "" && !logLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}

	if cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if err := validator.New().Struct(&cfg.Policy); err != nil {
		return fmt.Errorf("invalid safety policy: %w", err)
	}

	if cfg.Sweeper.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Sweeper.Schedule); err != nil {
			return fmt.Errorf("invalid sweeper schedule %q: %w", cfg.Sweeper.Schedule, err)
		}
	}

	return nil
}
