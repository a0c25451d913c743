package config

import (
	"fmt"
	"os"

	"industry-analyze/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the freshness windows the original service hardcoded:
// 1 day for historical series, 5 minutes for quotes, rosters and the spot
// table snapshot.
func (c *Config) applyDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.HistoricalTTLSeconds <= 0 {
		c.Cache.HistoricalTTLSeconds = 24 * 3600
	}
	if c.Cache.QuoteTTLSeconds <= 0 {
		c.Cache.QuoteTTLSeconds = 300
	}
	if c.Cache.RosterTTLSeconds <= 0 {
		c.Cache.RosterTTLSeconds = 300
	}
	if c.Cache.SpotTTLSeconds <= 0 {
		c.Cache.SpotTTLSeconds = 300
	}
	if c.Network.RequestTimeout <= 0 {
		c.Network.RequestTimeout = 30
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	switch c.Cache.Backend {
	case "file":
		if c.Cache.FilePath == "" {
			return fmt.Errorf("cache file path cannot be empty for the file backend")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one data source must be configured")
	}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
	}

	if c.Scheduler.Enabled && c.Scheduler.CronSpec == "" {
		return fmt.Errorf("scheduler cron spec cannot be empty when enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
