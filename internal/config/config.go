// Package config provides configuration types and loading for memclaw.
package config

// Config is the root configuration struct.
// Top-level groups: Paths, Memory, Hooks.
type Config struct {
	Paths  PathsConfig  `json:"paths"`
	Memory MemoryConfig `json:"memory"`
	Hooks  HooksConfig  `json:"hooks"`
}

// PathsConfig groups filesystem path settings.
type PathsConfig struct {
	// DataDir holds memory.db, distinct from any other configuration
	// store the surrounding tooling may keep.
	DataDir string `json:"dataDir" envconfig:"DATA_DIR"`
}

// MemoryConfig groups retrieval and budgeting settings.
type MemoryConfig struct {
	// MaxContextTokens is the default budget for the `context` command.
	MaxContextTokens int `json:"maxContextTokens" envconfig:"MAX_CONTEXT_TOKENS"`
	// SearchLimit bounds tier-1 (FTS) candidates per context build.
	SearchLimit int `json:"searchLimit" envconfig:"SEARCH_LIMIT"`
	// ProjectLimit bounds tier-2 (project-scoped) candidates.
	ProjectLimit int `json:"projectLimit" envconfig:"PROJECT_LIMIT"`
	// RecentLimit bounds tier-3 (recency) candidates.
	RecentLimit int `json:"recentLimit" envconfig:"RECENT_LIMIT"`
	// SessionStartBudget is the token budget for session-start priming.
	SessionStartBudget int `json:"sessionStartBudget" envconfig:"SESSION_START_BUDGET"`
	// PostToolBudget is the token budget for post-tool-use context.
	PostToolBudget int `json:"postToolBudget" envconfig:"POST_TOOL_BUDGET"`
}

// HooksConfig groups agent integration settings.
type HooksConfig struct {
	// ClaudeSettingsPath points at the agent's own settings document.
	// Empty means ~/.claude/settings.json.
	ClaudeSettingsPath string `json:"claudeSettingsPath" envconfig:"CLAUDE_SETTINGS_PATH"`
	// Command is the executable the registered hooks invoke.
	Command string `json:"command" envconfig:"COMMAND"`
}
