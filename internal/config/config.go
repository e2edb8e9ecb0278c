package config

import (
	"encoding/json"
	"path/filepath"

	"github.com/dealgrid/agentgate/internal/logger"
	"github.com/dealgrid/agentgate/pkg/policy"
)

// Config is the daemon configuration: where state lives, how logging
// behaves, and the safety policy the gateway enforces. The policy section
// is read once at startup; the gateway never observes later edits.
type Config struct {
	// Data directory for the database and logs
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Logging configuration
	Logging logger.Config `json:"logging" mapstructure:"logging"`

	// Database configuration
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Safety policy enforced by the gateway
	Policy policy.SafetyPolicy `json:"policy" mapstructure:"policy"`

	// Approval expiry sweeper
	Sweeper SweeperConfig `json:"sweeper" mapstructure:"sweeper"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path  string `json:"path" mapstructure:"path"`
	Debug bool   `json:"debug" mapstructure:"debug"`
}

// SweeperConfig holds the approval expiry job settings.
type SweeperConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: logger.DefaultConfig(),
		Policy:  policy.Default(),
		Sweeper: SweeperConfig{
			Enabled:  true,
			Schedule: "* * * * *",
		},
	}
}

// ApplyDefaults fills derived paths that depend on the data directory.
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" && c.DataDir != "" {
		c.Database.Path = filepath.Join(c.DataDir, "agentgate.db")
	}
	if c.Logging.File == "" && c.DataDir != "" {
		c.Logging.File = filepath.Join(c.DataDir, "agentgate.log")
	}
}

// String returns the config as indented JSON for debug output.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
