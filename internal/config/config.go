// Package config provides configuration management for the ArbStream scanner.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/arbstream/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig           `mapstructure:"app" validate:"required"`
	Scanner    ScannerConfig       `mapstructure:"scanner" validate:"required"`
	Sources    []SourceConfig      `mapstructure:"sources" validate:"required,min=1,dive"`
	Markets    []models.MarketType `mapstructure:"markets" validate:"omitempty,dive"`
	Bookmakers map[string]string   `mapstructure:"bookmakers"`
	Server     ServerConfig        `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig       `mapstructure:"metrics"`
	Database   DatabaseConfig      `mapstructure:"database"`
	Redis      RedisConfig         `mapstructure:"redis"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ScannerConfig drives the scan loop, matching and stake allocation
type ScannerConfig struct {
	IntervalSeconds       int     `mapstructure:"interval_seconds" validate:"required,gt=0"`
	ScanTimeoutSeconds    int     `mapstructure:"scan_timeout_seconds" validate:"required,gt=0"`
	SourceTimeoutSeconds  int     `mapstructure:"source_timeout_seconds" validate:"required,gt=0"`
	Bankroll              float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	BankrollCeiling       float64 `mapstructure:"bankroll_ceiling" validate:"required,gt=0"`
	MinMarginPercent      float64 `mapstructure:"min_margin_percent" validate:"gte=0,lt=100"`
	MatchToleranceMinutes int     `mapstructure:"match_tolerance_minutes" validate:"gte=0"`
	MaxAdjustRounds       int     `mapstructure:"max_adjust_rounds" validate:"required,gt=0"`
	ScanOnStartup         bool    `mapstructure:"scan_on_startup"`
}

// SourceConfig represents a single odds source
type SourceConfig struct {
	Name          string   `mapstructure:"name" validate:"required"`
	Type          string   `mapstructure:"type" validate:"required,oneof=odds_api mock"`
	Enabled       bool     `mapstructure:"enabled"`
	APIKey        string   `mapstructure:"api_key"`
	BaseURL       string   `mapstructure:"base_url" validate:"omitempty,url"`
	Region        string   `mapstructure:"region"`
	SportKeys     []string `mapstructure:"sport_keys"`
	Bookmakers    []string `mapstructure:"bookmakers"`
	RetryAttempts int      `mapstructure:"retry_attempts" validate:"gte=0"`
	BackoffMillis int      `mapstructure:"backoff_millis" validate:"gte=0"`
	RateLimit     float64  `mapstructure:"rate_limit" validate:"gte=0"`
	EventCacheTTL int      `mapstructure:"event_cache_ttl_seconds" validate:"gte=0"`
	Seed          int64    `mapstructure:"seed"`
	ArbitrageBias bool     `mapstructure:"arbitrage_bias"`
}

// ServerConfig represents the query API server
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig represents the optional opportunity history database
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// RedisConfig represents the optional snapshot fan-out to Redis
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	Channel  string `mapstructure:"channel"`
	Key      string `mapstructure:"key"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ScanInterval returns the fixed interval between scheduled scans
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// ScanTimeout returns the hard ceiling for a whole scan
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scanner.ScanTimeoutSeconds) * time.Second
}

// SourceTimeout returns the per-source fetch timeout
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Scanner.SourceTimeoutSeconds) * time.Second
}

// MatchTolerance returns the start-time window used by event matching
func (c *Config) MatchTolerance() time.Duration {
	return time.Duration(c.Scanner.MatchToleranceMinutes) * time.Minute
}

// MarketTypes returns the configured market types, or the defaults when none are set
func (c *Config) MarketTypes() []models.MarketType {
	if len(c.Markets) == 0 {
		return models.DefaultMarketTypes()
	}
	return c.Markets
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ListenAddr returns the API listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
