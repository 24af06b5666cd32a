package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Status reports which hook kinds are wired up in the agent settings.
type Status struct {
	Registered   bool `json:"registered"`
	SessionStart bool `json:"session_start"`
	PostToolUse  bool `json:"post_tool_use"`
}

// SettingsManager toggles memclaw's hook entries inside the agent's own
// settings document. Everything in that file other than the specific
// entries it manages is opaque and preserved byte-for-byte in structure.
type SettingsManager struct {
	path    string
	command string
}

// NewSettingsManager manages the settings file at path. command is the
// executable name the registered hooks invoke (normally "memclaw").
func NewSettingsManager(path, command string) *SettingsManager {
	if command == "" {
		command = "memclaw"
	}
	return &SettingsManager{path: path, command: command}
}

// marker identifies our entries among foreign hook commands.
func (m *SettingsManager) marker() string {
	return m.command + " hooks ingest"
}

func (m *SettingsManager) ingestCommand(kind Kind) string {
	return fmt.Sprintf("%s hooks ingest --hook %s", m.command, kind)
}

// Status reads the settings file and reports per-kind registration. A
// missing file means nothing is registered.
func (m *SettingsManager) Status() (*Status, error) {
	doc, err := m.read()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return &Status{}, nil
	}

	hooks, _ := doc["hooks"].(map[string]any)
	st := &Status{
		SessionStart: m.hasEntry(hooks["SessionStart"]),
		PostToolUse:  m.hasEntry(hooks["PostToolUse"]),
	}
	st.Registered = st.SessionStart || st.PostToolUse
	return st, nil
}

// Register adds the SessionStart and PostToolUse entries, creating the
// settings file if needed. Already-present entries are left alone.
func (m *SettingsManager) Register() error {
	doc, err := m.read()
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}

	hooks, ok := doc["hooks"].(map[string]any)
	if !ok {
		hooks = map[string]any{}
		doc["hooks"] = hooks
	}

	for kind, key := range map[Kind]string{KindSessionStart: "SessionStart", KindPostToolUse: "PostToolUse"} {
		if m.hasEntry(hooks[key]) {
			continue
		}
		entry := map[string]any{
			"matcher": "",
			"hooks": []any{
				map[string]any{"type": "command", "command": m.ingestCommand(kind)},
			},
		}
		existing, _ := hooks[key].([]any)
		hooks[key] = append(existing, entry)
	}

	return m.write(doc)
}

// Unregister removes every entry carrying our marker. Foreign entries
// and the rest of the document stay untouched. A missing file is a no-op.
func (m *SettingsManager) Unregister() error {
	doc, err := m.read()
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	hooks, ok := doc["hooks"].(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"SessionStart", "PostToolUse"} {
		entries, ok := hooks[key].([]any)
		if !ok {
			continue
		}
		kept := entries[:0]
		for _, entry := range entries {
			if !m.entryIsOurs(entry) {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(hooks, key)
		} else {
			hooks[key] = kept
		}
	}

	return m.write(doc)
}

// hasEntry reports whether the given hook-kind array already contains a
// command of ours.
func (m *SettingsManager) hasEntry(value any) bool {
	entries, ok := value.([]any)
	if !ok {
		return false
	}
	for _, entry := range entries {
		if m.entryIsOurs(entry) {
			return true
		}
	}
	return false
}

func (m *SettingsManager) entryIsOurs(entry any) bool {
	obj, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	inner, ok := obj["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range inner {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hook["command"].(string); ok && strings.Contains(cmd, m.marker()) {
			return true
		}
	}
	return false
}

// read returns the parsed settings document, or nil when the file does
// not exist.
func (m *SettingsManager) read() (map[string]any, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agent settings: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse agent settings %s: %w", m.path, err)
	}
	return doc, nil
}

func (m *SettingsManager) write(doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode agent settings: %w", err)
	}
	if err := os.WriteFile(m.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write agent settings: %w", err)
	}
	return nil
}
