// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Cycle    CycleConfig    `mapstructure:"cycle"`
	Game     GameConfig     `mapstructure:"game"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin player configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// CycleConfig holds the daily cycle schedule. Hours are in the engine's
// local timezone.
type CycleConfig struct {
	MorningDeadlineHour int `mapstructure:"morning_deadline_hour"`
	MorningResultsHour  int `mapstructure:"morning_results_hour"`
	EveningDeadlineHour int `mapstructure:"evening_deadline_hour"`
	EveningResultsHour  int `mapstructure:"evening_results_hour"`
}

// GameConfig holds rule-engine tuning values.
type GameConfig struct {
	DecayPoints        int64 `mapstructure:"decay_points"`
	HandoffPenalty     int64 `mapstructure:"handoff_penalty"`
	EffectExpiryHours  int   `mapstructure:"effect_expiry_hours"`
	MaxEffectsPerBatch int   `mapstructure:"max_effects_per_batch"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, DATABASE_PORT, CYCLE_MORNING_DEADLINE_HOUR.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gameengine")
	v.SetDefault("database.name", "gameengine")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Cycle schedule: morning deadline 12:00, results 13:00;
	// evening deadline 18:00, results 19:00.
	v.SetDefault("cycle.morning_deadline_hour", 12)
	v.SetDefault("cycle.morning_results_hour", 13)
	v.SetDefault("cycle.evening_deadline_hour", 18)
	v.SetDefault("cycle.evening_results_hour", 19)

	// Game tuning
	v.SetDefault("game.decay_points", 5)
	v.SetDefault("game.handoff_penalty", 10)
	v.SetDefault("game.effect_expiry_hours", 24)
	v.SetDefault("game.max_effects_per_batch", 5)
}

// IsAdmin checks if a player ID is in the admin list.
func (c *Config) IsAdmin(playerID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == playerID {
			return true
		}
	}
	return false
}
