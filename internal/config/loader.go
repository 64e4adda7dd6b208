// Package config provides configuration management for the ArbStream scanner.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ARBSTREAM"

// DefaultConfigPath is used when no path is given
const DefaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing config file is not an error: defaults and environment variables apply.
// Variables from a .env file in the working directory are loaded first.
func LoadWithDefaults(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arbstream")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("scanner.interval_seconds", 10)
	v.SetDefault("scanner.scan_timeout_seconds", 30)
	v.SetDefault("scanner.source_timeout_seconds", 10)
	v.SetDefault("scanner.bankroll", 1000.0)
	v.SetDefault("scanner.bankroll_ceiling", 1000.0)
	v.SetDefault("scanner.min_margin_percent", 0.0)
	v.SetDefault("scanner.match_tolerance_minutes", 15)
	v.SetDefault("scanner.max_adjust_rounds", 10)
	v.SetDefault("scanner.scan_on_startup", true)

	v.SetDefault("sources", []map[string]interface{}{
		{"name": "toto", "type": "mock", "enabled": true, "seed": 1, "arbitrage_bias": true},
		{"name": "bet365", "type": "mock", "enabled": true, "seed": 2, "arbitrage_bias": true},
		{"name": "unibet", "type": "mock", "enabled": true, "seed": 3},
	})

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 5)

	v.SetDefault("redis.channel", "arbstream:opportunities")
	v.SetDefault("redis.key", "arbstream:snapshot")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	applySourceDefaults(cfg)
	return cfg, nil
}

// applySourceDefaults fills per-source retry and cache settings left at zero
func applySourceDefaults(cfg *Config) {
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.RetryAttempts == 0 {
			src.RetryAttempts = 3
		}
		if src.BackoffMillis == 0 {
			src.BackoffMillis = 1000
		}
		if src.Type == "odds_api" {
			if src.BaseURL == "" {
				src.BaseURL = "https://api.the-odds-api.com/v4"
			}
			if src.Region == "" {
				src.Region = "eu"
			}
			if src.EventCacheTTL == 0 {
				src.EventCacheTTL = 60
			}
		}
	}
}
