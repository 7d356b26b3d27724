package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.QueryTimeout)
	}
	if cfg.MaxRows != 10_000 {
		t.Errorf("MaxRows = %d", cfg.MaxRows)
	}
	if cfg.PoolSize != 5 {
		t.Errorf("PoolSize = %d", cfg.PoolSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `query_timeout_seconds: 10
acquire_timeout_seconds: 5
max_rows: 500
pool_size: 3
log_level: debug
default_dsn: sqlite:///tmp/app.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QueryTimeout != 10*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.QueryTimeout)
	}
	if cfg.AcquireTimeout != 5*time.Second {
		t.Errorf("AcquireTimeout = %v", cfg.AcquireTimeout)
	}
	if cfg.MaxRows != 500 {
		t.Errorf("MaxRows = %d", cfg.MaxRows)
	}
	if cfg.PoolSize != 3 {
		t.Errorf("PoolSize = %d", cfg.PoolSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
	if cfg.DefaultDSN != "sqlite:///tmp/app.db" {
		t.Errorf("DefaultDSN = %s", cfg.DefaultDSN)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("max_rows: 500\npool_size: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MCP_MAX_ROWS", "42")
	t.Setenv("MCP_LOG_LEVEL", "error")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxRows != 42 {
		t.Errorf("Environment should win over the file, MaxRows = %d", cfg.MaxRows)
	}
	if cfg.PoolSize != 3 {
		t.Errorf("Untouched file values survive, PoolSize = %d", cfg.PoolSize)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("MCP_MAX_ROWS", "not-a-number")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxRows != 10_000 {
		t.Errorf("Unparseable env values fall back to defaults, MaxRows = %d", cfg.MaxRows)
	}
}

func TestConfig_LogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		c := &Config{LogLevel: tc.level}
		if got := c.logLevel(); got != tc.want {
			t.Errorf("logLevel(%s) = %v, want %v", tc.level, got, tc.want)
		}
	}
}
