// Package config loads the repsense server configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/repsense/internal/rep"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hooks    HooksConfig    `yaml:"hooks"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Engine   EngineConfig   `yaml:"engine"`
	Pose     PoseConfig     `yaml:"pose"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// EngineConfig overrides the stock detector tuning. Zero keeps the stock value.
type EngineConfig struct {
	Alpha            float64 `yaml:"alpha"`
	MinRepDurationMs int64   `yaml:"min_rep_duration_ms"`
	MinVisibility    float64 `yaml:"min_visibility"`
}

// PoseConfig starts a live pipeline from a pose-service command at startup.
// An empty command disables it.
type PoseConfig struct {
	Command  string `yaml:"command"`
	Exercise string `yaml:"exercise"`
	Side     string `yaml:"side"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Path: "repsense.db",
		},
		Hooks: HooksConfig{
			Dir:       "hooks",
			TimeoutMs: 5000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "repsense",
		},
		Pose: PoseConfig{
			Exercise: "squat",
			Side:     "left",
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix REPSENSE_:
//
//	REPSENSE_SERVER_ADDR, REPSENSE_DB_PATH, REPSENSE_HOOK_DIR,
//	REPSENSE_HOOK_TIMEOUT_MS, REPSENSE_LOG_LEVEL, REPSENSE_LOG_FORMAT,
//	REPSENSE_METRICS_ENABLED, REPSENSE_ENGINE_ALPHA,
//	REPSENSE_ENGINE_MIN_REP_MS, REPSENSE_ENGINE_MIN_VISIBILITY,
//	REPSENSE_POSE_COMMAND, REPSENSE_POSE_EXERCISE, REPSENSE_POSE_SIDE
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPSENSE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("REPSENSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REPSENSE_HOOK_DIR"); v != "" {
		cfg.Hooks.Dir = v
	}
	if v := os.Getenv("REPSENSE_HOOK_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Hooks.TimeoutMs = ms
		}
	}
	if v := os.Getenv("REPSENSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REPSENSE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("REPSENSE_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("REPSENSE_ENGINE_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.Alpha = f
		}
	}
	if v := os.Getenv("REPSENSE_ENGINE_MIN_REP_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.MinRepDurationMs = ms
		}
	}
	if v := os.Getenv("REPSENSE_ENGINE_MIN_VISIBILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.MinVisibility = f
		}
	}
	if v := os.Getenv("REPSENSE_POSE_COMMAND"); v != "" {
		cfg.Pose.Command = v
	}
	if v := os.Getenv("REPSENSE_POSE_EXERCISE"); v != "" {
		cfg.Pose.Exercise = v
	}
	if v := os.Getenv("REPSENSE_POSE_SIDE"); v != "" {
		cfg.Pose.Side = v
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Hooks.TimeoutMs <= 0 {
		return fmt.Errorf("hooks.timeout_ms must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Engine.Alpha < 0 || c.Engine.Alpha > 1 {
		return fmt.Errorf("engine.alpha must be in [0, 1] (0 keeps the default), got %v", c.Engine.Alpha)
	}
	if c.Engine.MinRepDurationMs < 0 {
		return fmt.Errorf("engine.min_rep_duration_ms must not be negative")
	}
	if c.Engine.MinVisibility < 0 || c.Engine.MinVisibility > 1 {
		return fmt.Errorf("engine.min_visibility must be in [0, 1], got %v", c.Engine.MinVisibility)
	}
	if c.Pose.Command != "" {
		if _, err := rep.ParseExercise(c.Pose.Exercise); err != nil {
			return fmt.Errorf("pose.exercise: %w", err)
		}
		if _, err := rep.ParseSide(c.Pose.Side); err != nil {
			return fmt.Errorf("pose.side: %w", err)
		}
	}
	return nil
}

// SlogLevel returns the configured log level.
func (l LogConfig) SlogLevel() slog.Level {
	level, _ := parseLevel(l.Level)
	return level
}

// HookTimeout returns the hook execution limit.
func (h HooksConfig) HookTimeout() time.Duration {
	return time.Duration(h.TimeoutMs) * time.Millisecond
}

// ShutdownGrace returns how long the server waits for in-flight requests on shutdown.
func (s ServerConfig) ShutdownGrace() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}
