// Package config loads the shapeshifter CLI's runtime settings: logging,
// the default database connection used by the sql loader, and the
// scheduler's round/best-effort policy, via the usual viper+godotenv+
// mapstructure pattern.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is the shapeshifter CLI's top-level configuration.
type Config struct {
	Run      RunConfig      `mapstructure:"run"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RunConfig controls the orchestrator's scheduling policy: how many
// produce/retry rounds to attempt, and whether a per-entity error halts
// the whole run or is recorded while the run continues.
type RunConfig struct {
	BestEffort bool `mapstructure:"best_effort"` // continue past per-entity errors instead of halting
	MaxRounds  int  `mapstructure:"max_rounds"`  // scheduling rounds before a stall is reported
}

// DatabaseConfig is the default connection the sql loader falls back to
// when a project's data source does not declare its own dsn option.
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DSN renders the standard libpq connection string for this configuration.
func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		dc.User, dc.Password, dc.Host, dc.Port, dc.Database, dc.SSLMode,
		int(dc.ConnectTimeout.Seconds()),
	)
}

// LoggingConfig controls the normlog run-event logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from, in increasing priority order: built-in
// defaults, a config file (if found), a .env file (if found), and
// environment variables prefixed SHAPESHIFTER_.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		log.Debug().Msg("no .env file found - using environment variables and defaults")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SHAPESHIFTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configPaths := []string{
		"./shapeshifter.yaml",
		"./shapeshifter.yml",
		"./config/shapeshifter.yaml",
		"/etc/shapeshifter/shapeshifter.yaml",
	}

	var configLoaded bool
	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
			if err := viper.ReadInConfig(); err != nil {
				log.Warn().Err(err).Str("file", configPath).Msg("config file found but could not be parsed, using environment variables and defaults")
			} else {
				log.Info().Str("file", configPath).Msg("config file loaded")
				configLoaded = true
			}
			break
		}
	}
	if !configLoaded {
		log.Info().Msg("no config file found, using environment variables and defaults")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() error {
	locations := []string{".env", ".env.local"}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Info().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}

func setDefaults() {
	viper.SetDefault("run.best_effort", false)
	viper.SetDefault("run.max_rounds", 50)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.database", "shapeshifter")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.connect_timeout", "5s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Validate checks every section and returns the first error found.
func (c *Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Validate checks RunConfig.
func (rc *RunConfig) Validate() error {
	if rc.MaxRounds < 0 {
		return fmt.Errorf("max_rounds cannot be negative, got: %d", rc.MaxRounds)
	}
	return nil
}

// Validate checks DatabaseConfig.
func (dc *DatabaseConfig) Validate() error {
	if dc.Port <= 0 || dc.Port > 65535 {
		return fmt.Errorf("invalid port: %d", dc.Port)
	}
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if dc.SSLMode != "" && !contains(validSSLModes, dc.SSLMode) {
		return fmt.Errorf("invalid ssl_mode: %s (must be one of: %v)", dc.SSLMode, validSSLModes)
	}
	return nil
}

// Validate checks LoggingConfig.
func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if lc.Level != "" && !contains(validLevels, lc.Level) {
		return fmt.Errorf("invalid level: %s (must be one of: %v)", lc.Level, validLevels)
	}
	if lc.Format != "" && lc.Format != "json" && lc.Format != "console" {
		return fmt.Errorf("invalid format: %s (must be 'json' or 'console')", lc.Format)
	}
	return nil
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
