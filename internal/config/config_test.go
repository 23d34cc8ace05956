package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
server:
  addr: "127.0.0.1:9090"
  shutdown_timeout_seconds: 3
database:
  path: "/var/lib/repsense/profiles.db"
hooks:
  dir: "/etc/repsense/hooks"
  timeout_ms: 2000
log:
  level: debug
  format: json
metrics:
  enabled: false
engine:
  alpha: 0.5
  min_rep_duration_ms: 400
  min_visibility: 0.6
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("server.addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:9090")
	}
	if cfg.Server.ShutdownGrace() != 3*time.Second {
		t.Errorf("shutdown grace = %s, want 3s", cfg.Server.ShutdownGrace())
	}
	if cfg.Database.Path != "/var/lib/repsense/profiles.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Hooks.Dir != "/etc/repsense/hooks" || cfg.Hooks.HookTimeout() != 2*time.Second {
		t.Errorf("hooks = %+v", cfg.Hooks)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled = true, want false")
	}
	if cfg.Metrics.Namespace != "repsense" {
		t.Errorf("metrics.namespace = %q, want default %q", cfg.Metrics.Namespace, "repsense")
	}
	if cfg.Engine.Alpha != 0.5 || cfg.Engine.MinRepDurationMs != 400 || cfg.Engine.MinVisibility != 0.6 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
}

// TestLoadDefaults verifies that an empty path yields a usable config.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.Path != "repsense.db" {
		t.Errorf("database.path = %q, want repsense.db", cfg.Database.Path)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("log level = %v, want info", cfg.Log.SlogLevel())
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.Engine != (EngineConfig{}) {
		t.Errorf("engine overrides should be empty by default, got %+v", cfg.Engine)
	}
}

// TestPartialFileKeepsDefaults verifies that keys absent from the file keep their defaults.
func TestPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "database:\n  path: other.db\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Path != "other.db" {
		t.Errorf("database.path = %q, want other.db", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":8080" || cfg.Hooks.TimeoutMs != 5000 {
		t.Errorf("defaults lost: %+v %+v", cfg.Server, cfg.Hooks)
	}
}

// TestEnvOverride verifies that REPSENSE_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("REPSENSE_SERVER_ADDR", ":7000")
	t.Setenv("REPSENSE_DB_PATH", "env.db")
	t.Setenv("REPSENSE_HOOK_DIR", "/tmp/hooks")
	t.Setenv("REPSENSE_HOOK_TIMEOUT_MS", "750")
	t.Setenv("REPSENSE_LOG_LEVEL", "warn")
	t.Setenv("REPSENSE_METRICS_ENABLED", "true")
	t.Setenv("REPSENSE_ENGINE_ALPHA", "1")
	t.Setenv("REPSENSE_ENGINE_MIN_REP_MS", "250")
	t.Setenv("REPSENSE_ENGINE_MIN_VISIBILITY", "0.2")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("server.addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Database.Path != "env.db" {
		t.Errorf("database.path = %q, want env.db", cfg.Database.Path)
	}
	if cfg.Hooks.Dir != "/tmp/hooks" || cfg.Hooks.TimeoutMs != 750 {
		t.Errorf("hooks = %+v", cfg.Hooks)
	}
	if cfg.Log.SlogLevel() != slog.LevelWarn {
		t.Errorf("log level = %v, want warn", cfg.Log.SlogLevel())
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics.enabled should be overridden to true")
	}
	if cfg.Engine.Alpha != 1 || cfg.Engine.MinRepDurationMs != 250 || cfg.Engine.MinVisibility != 0.2 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	// Unchanged fields keep YAML values
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
}

// TestEnvOverrideIgnoresGarbage verifies that unparsable numbers leave the value alone.
func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("REPSENSE_ENGINE_ALPHA", "fast")
	t.Setenv("REPSENSE_HOOK_TIMEOUT_MS", "soon")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Alpha != 0.5 {
		t.Errorf("engine.alpha = %v, want 0.5", cfg.Engine.Alpha)
	}
	if cfg.Hooks.TimeoutMs != 2000 {
		t.Errorf("hooks.timeout_ms = %d, want 2000", cfg.Hooks.TimeoutMs)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty addr", "server:\n  addr: \"\"\n"},
		{"empty db path", "database:\n  path: \"\"\n"},
		{"zero hook timeout", "hooks:\n  timeout_ms: 0\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"alpha above one", "engine:\n  alpha: 1.5\n"},
		{"negative min rep", "engine:\n  min_rep_duration_ms: -1\n"},
		{"visibility above one", "engine:\n  min_visibility: 3\n"},
		{"pose unknown exercise", "pose:\n  command: pose-service\n  exercise: lunge\n"},
		{"pose unknown side", "pose:\n  command: pose-service\n  side: middle\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestPoseConfig verifies the live pipeline settings and that they are only
// checked when a command is configured.
func TestPoseConfig(t *testing.T) {
	cfg, err := Load(writeTemp(t, "pose:\n  exercise: lunge\n"))
	if err != nil {
		t.Fatalf("exercise without command should not be validated: %v", err)
	}

	t.Setenv("REPSENSE_POSE_COMMAND", "python3 pose_service.py")
	t.Setenv("REPSENSE_POSE_EXERCISE", "curl")
	t.Setenv("REPSENSE_POSE_SIDE", "right")

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pose.Command != "python3 pose_service.py" || cfg.Pose.Exercise != "curl" || cfg.Pose.Side != "right" {
		t.Errorf("pose = %+v", cfg.Pose)
	}
}

// TestLoadMissingFile verifies that a missing config file returns a clear error.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "server: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}
