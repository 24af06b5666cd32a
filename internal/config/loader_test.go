package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("MEMCLAW_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.MaxContextTokens != 4000 || cfg.Memory.SearchLimit != 10 {
		t.Errorf("defaults wrong: %+v", cfg.Memory)
	}
	if cfg.Memory.ProjectLimit != 20 || cfg.Memory.RecentLimit != 50 {
		t.Errorf("tier limits wrong: %+v", cfg.Memory)
	}
	if cfg.Hooks.Command != "memclaw" {
		t.Errorf("hook command = %q", cfg.Hooks.Command)
	}
	if cfg.Paths.DataDir == "" {
		t.Errorf("data dir not resolved")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEMCLAW_HOME", home)

	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := `{"memory":{"maxContextTokens":1234,"searchLimit":3},"hooks":{"command":"mc-dev"}}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.MaxContextTokens != 1234 || cfg.Memory.SearchLimit != 3 {
		t.Errorf("file values not applied: %+v", cfg.Memory)
	}
	// Unset fields keep their defaults.
	if cfg.Memory.RecentLimit != 50 {
		t.Errorf("default lost: %d", cfg.Memory.RecentLimit)
	}
	if cfg.Hooks.Command != "mc-dev" {
		t.Errorf("hook command = %q", cfg.Hooks.Command)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEMCLAW_HOME", home)

	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"memory":{"maxContextTokens":1234}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MEMCLAW_MEMORY_MAX_CONTEXT_TOKENS", "999")
	t.Setenv("MEMCLAW_PATHS_DATA_DIR", "/tmp/elsewhere")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.MaxContextTokens != 999 {
		t.Errorf("env override lost: %d", cfg.Memory.MaxContextTokens)
	}
	if cfg.Paths.DataDir != "/tmp/elsewhere" {
		t.Errorf("data dir override lost: %q", cfg.Paths.DataDir)
	}
}

func TestLoadExplicitConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(`{"memory":{"postToolBudget":77}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MEMCLAW_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.PostToolBudget != 77 {
		t.Errorf("explicit config not read: %d", cfg.Memory.PostToolBudget)
	}
}

func TestNormalizeRejectsNonPositiveValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEMCLAW_HOME", home)

	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"memory":{"maxContextTokens":-5,"searchLimit":0}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.MaxContextTokens != 4000 || cfg.Memory.SearchLimit != 10 {
		t.Errorf("non-positive values not reset: %+v", cfg.Memory)
	}
}

func TestDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.DataDir = "/data/memclaw"
	if got := cfg.DBPath(); got != filepath.Join("/data/memclaw", DBFile) {
		t.Errorf("db path = %q", got)
	}
}
