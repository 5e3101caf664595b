package config

import (
	"fmt"
	"os"
	"time"

	"smc-analysis/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/media"
	}
	if c.Static.URLPrefix == "" {
		c.Static.URLPrefix = "/static"
	}
	if c.Media.MaxUploadMB == 0 {
		c.Media.MaxUploadMB = 10
	}
	if len(c.Media.AllowedExtensions) == 0 {
		c.Media.AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	}
	if c.Feed.HistoryCandles == 0 {
		c.Feed.HistoryCandles = 200
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 7
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}
	if c.Storage.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be greater than 0")
	}

	// Validate Media / Static configuration
	if c.Media.Root == "" {
		return fmt.Errorf("media root cannot be empty")
	}
	if c.Static.Root == "" {
		return fmt.Errorf("static root cannot be empty")
	}
	if c.Media.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be greater than 0")
	}

	// Validate Feed configuration
	switch c.Feed.Type {
	case "sim":
	case "remote":
		if c.Feed.Endpoint == "" {
			return fmt.Errorf("feed endpoint cannot be empty for remote feed")
		}
	default:
		return fmt.Errorf("unsupported feed type: %s", c.Feed.Type)
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if c.Feed.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}

	// Validate timeframes
	if len(c.Timeframes) == 0 {
		return fmt.Errorf("at least one timeframe must be configured")
	}
	for i, tf := range c.Timeframes {
		if tf == "" {
			return fmt.Errorf("timeframe %d cannot be empty", i)
		}
		if _, err := time.ParseDuration(tf); err != nil {
			return fmt.Errorf("timeframe '%s' is not a valid duration: %w", tf, err)
		}
	}

	if c.DiskQuotaMB < 0 {
		return fmt.Errorf("disk quota cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
