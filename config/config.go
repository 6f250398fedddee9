// Package config loads engine configuration from environment variables, with
// an optional config.env dotenv file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the threshold engine.
type Config struct {
	DBHost     string `mapstructure:"db_host" validate:"required"`
	DBPort     int    `mapstructure:"db_port" validate:"required,min=1,max=65535"`
	DBName     string `mapstructure:"db_name" validate:"required"`
	DBUser     string `mapstructure:"db_user" validate:"required"`
	DBPassword string `mapstructure:"db_password" validate:"required"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// GeneratedQueriesTable overrides the audit table, used when rules are
	// partitioned across processes.
	GeneratedQueriesTable string `mapstructure:"generated_queries_table"`

	// CheckIntervalSeconds drives the periodic detection loop; zero means a
	// single one-shot pass.
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds" validate:"min=0"`
}

// CheckInterval returns the detection loop interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// Load reads configuration from the environment and validates it. A
// config.env file in the working directory is merged first when present;
// real environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_name", "")
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("generated_queries_table", "")
	v.SetDefault("check_interval_seconds", 0)

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	for _, key := range []string{
		"db_host", "db_port", "db_name", "db_user", "db_password",
		"log_level", "generated_queries_table", "check_interval_seconds",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
