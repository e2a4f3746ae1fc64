// Package config provides configuration management for the accumulator engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	OddsAPI   OddsAPIConfig   `mapstructure:"odds_api" validate:"required"`
	Builder   BuilderConfig   `mapstructure:"builder" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OddsAPIConfig represents the upstream odds API configuration
type OddsAPIConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	APIKey             string  `mapstructure:"api_key"`
	DefaultSport       string  `mapstructure:"default_sport" validate:"required"`
	Region             string  `mapstructure:"region" validate:"required"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	MonthlyRequestCap  int     `mapstructure:"monthly_request_cap" validate:"required,gt=0"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// BuilderConfig represents default accumulator build parameters
type BuilderConfig struct {
	MinSelections        int     `mapstructure:"min_selections" validate:"required,gte=2"`
	MaxSelections        int     `mapstructure:"max_selections" validate:"required,gte=2"`
	ProbabilityThreshold float64 `mapstructure:"probability_threshold" validate:"required,gt=0,lte=1"`
	OddsRangeLow         int     `mapstructure:"odds_range_low" validate:"required,gt=0"`
	OddsRangeHigh        int     `mapstructure:"odds_range_high" validate:"required,gt=0"`
}

// StorageConfig represents flat-file storage configuration
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig represents the periodic odds refresh configuration
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RefreshCron    string `mapstructure:"refresh_cron"`
	RefreshTimeout int    `mapstructure:"refresh_timeout_seconds"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// GetServerAddress returns the listen address for the HTTP server
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// MockMode reports whether the odds API should serve canned data because no
// API key is configured.
func (c *OddsAPIConfig) MockMode() bool {
	return c.APIKey == ""
}
