package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/focusthitipan/consult7/internal/database"
)

// Config holds the server limits. Values come from defaults, then an
// optional YAML file, then MCP_* environment variables, in that order.
type Config struct {
	QueryTimeout   time.Duration
	AcquireTimeout time.Duration
	MaxRows        int
	PoolSize       int
	LogLevel       string
	DefaultDSN     string
}

// fileConfig is the YAML shape of the limits file.
type fileConfig struct {
	QueryTimeoutSeconds   int    `yaml:"query_timeout_seconds"`
	AcquireTimeoutSeconds int    `yaml:"acquire_timeout_seconds"`
	MaxRows               int    `yaml:"max_rows"`
	PoolSize              int    `yaml:"pool_size"`
	LogLevel              string `yaml:"log_level"`
	DefaultDSN            string `yaml:"default_dsn"`
}

// LoadConfig builds the server configuration. path may be empty.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		QueryTimeout:   database.DefaultQueryTimeout,
		AcquireTimeout: database.DefaultQueryTimeout,
		MaxRows:        database.DefaultMaxRows,
		PoolSize:       database.DefaultPoolSize,
		LogLevel:       "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if fc.QueryTimeoutSeconds > 0 {
			cfg.QueryTimeout = time.Duration(fc.QueryTimeoutSeconds) * time.Second
		}
		if fc.AcquireTimeoutSeconds > 0 {
			cfg.AcquireTimeout = time.Duration(fc.AcquireTimeoutSeconds) * time.Second
		}
		if fc.MaxRows > 0 {
			cfg.MaxRows = fc.MaxRows
		}
		if fc.PoolSize > 0 {
			cfg.PoolSize = fc.PoolSize
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
		if fc.DefaultDSN != "" {
			cfg.DefaultDSN = fc.DefaultDSN
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := envInt("MCP_QUERY_TIMEOUT"); v > 0 {
		cfg.QueryTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("MCP_ACQUIRE_TIMEOUT"); v > 0 {
		cfg.AcquireTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("MCP_MAX_ROWS"); v > 0 {
		cfg.MaxRows = v
	}
	if v := envInt("MCP_POOL_SIZE"); v > 0 {
		cfg.PoolSize = v
	}
	if v := os.Getenv("MCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCP_DEFAULT_DSN"); v != "" {
		cfg.DefaultDSN = v
	}
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (c *Config) logLevel() zerolog.Level {
	switch c.LogLevel {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
