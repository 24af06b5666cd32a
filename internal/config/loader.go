package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default data directory name under $HOME.
	ConfigDir = ".memclaw"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
	// DBFile is the memory database file name inside DataDir.
	DBFile = "memory.db"
)

// DefaultConfig returns the built-in defaults. DataDir is resolved lazily
// in Load so tests can redirect HOME.
func DefaultConfig() *Config {
	return &Config{
		Memory: MemoryConfig{
			MaxContextTokens:   4000,
			SearchLimit:        10,
			ProjectLimit:       20,
			RecentLimit:        50,
			SessionStartBudget: 4000,
			PostToolBudget:     2000,
		},
		Hooks: HooksConfig{
			Command: "memclaw",
		},
	}
}

// ConfigPath returns the path to the config file, honoring
// MEMCLAW_CONFIG and MEMCLAW_HOME overrides.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("MEMCLAW_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("MEMCLAW_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	return os.UserHomeDir()
}

// Load reads the config file if present, fills gaps with defaults, then
// applies MEMCLAW_* environment overrides per group.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // use defaults if we can't resolve a home dir
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	envconfig.Process("MEMCLAW_PATHS", &cfg.Paths)
	envconfig.Process("MEMCLAW_MEMORY", &cfg.Memory)
	envconfig.Process("MEMCLAW_HOOKS", &cfg.Hooks)

	if cfg.Paths.DataDir == "" {
		home, err := resolveHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Paths.DataDir = filepath.Join(home, ConfigDir)
	}
	normalize(cfg)

	return cfg, nil
}

// DBPath returns the full path of the memory database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.Paths.DataDir, DBFile)
}

// ClaudeSettingsPath resolves the agent settings document, defaulting to
// ~/.claude/settings.json.
func (c *Config) ClaudeSettingsPath() (string, error) {
	if c.Hooks.ClaudeSettingsPath != "" {
		return c.Hooks.ClaudeSettingsPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

func normalize(cfg *Config) {
	def := DefaultConfig()
	if cfg.Memory.MaxContextTokens <= 0 {
		cfg.Memory.MaxContextTokens = def.Memory.MaxContextTokens
	}
	if cfg.Memory.SearchLimit <= 0 {
		cfg.Memory.SearchLimit = def.Memory.SearchLimit
	}
	if cfg.Memory.ProjectLimit <= 0 {
		cfg.Memory.ProjectLimit = def.Memory.ProjectLimit
	}
	if cfg.Memory.RecentLimit <= 0 {
		cfg.Memory.RecentLimit = def.Memory.RecentLimit
	}
	if cfg.Memory.SessionStartBudget <= 0 {
		cfg.Memory.SessionStartBudget = def.Memory.SessionStartBudget
	}
	if cfg.Memory.PostToolBudget <= 0 {
		cfg.Memory.PostToolBudget = def.Memory.PostToolBudget
	}
	if cfg.Hooks.Command == "" {
		cfg.Hooks.Command = def.Hooks.Command
	}
}
