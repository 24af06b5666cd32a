package hooks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/memclaw/memclaw/internal/memory"
)

// postToolUseEvent is the PostToolUse payload. Claude Code sends
// tool_name/tool_input/tool_response plus cwd; the published contract
// also accepts tool, error, and project_dir spellings.
type postToolUseEvent struct {
	Tool         string          `json:"tool"`
	ToolNameAlt  string          `json:"tool_name"`
	ToolInput    json.RawMessage `json:"tool_input"`
	ToolResponse json.RawMessage `json:"tool_response"`
	Error        string          `json:"error"`
	SessionID    string          `json:"session_id"`
	ProjectDir   string          `json:"project_dir"`
	Cwd          string          `json:"cwd"`
}

func (e *postToolUseEvent) toolName() string {
	if e.Tool != "" {
		return e.Tool
	}
	return e.ToolNameAlt
}

func (e *postToolUseEvent) projectDir() string {
	if e.ProjectDir != "" {
		return e.ProjectDir
	}
	return e.Cwd
}

// inputField extracts a scalar field from tool_input, which is an
// arbitrary JSON object, and returns fallback when absent.
func (e *postToolUseEvent) inputField(key, fallback string) string {
	if len(e.ToolInput) == 0 {
		return fallback
	}
	var obj map[string]any
	if err := json.Unmarshal(e.ToolInput, &obj); err != nil {
		return fallback
	}
	switch v := obj[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	}
	return fallback
}

// responseText returns tool_response as plain text when it is a JSON
// string, or its raw JSON otherwise.
func (e *postToolUseEvent) responseText() string {
	if len(e.ToolResponse) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.ToolResponse, &s); err == nil {
		return s
	}
	return string(e.ToolResponse)
}

// signalsError reports whether the payload carries an error indication,
// either the explicit error field or failure markers in a Bash tool's
// textual output.
func (e *postToolUseEvent) signalsError() bool {
	if strings.TrimSpace(e.Error) != "" {
		return true
	}
	if e.toolName() != "Bash" {
		return false
	}
	out := e.responseText()
	return strings.Contains(out, "error") || strings.Contains(out, "Error") || strings.Contains(out, "FAILED")
}

// maxFieldChars caps how much of tool_input / tool_response lands in an
// observation body; whole tool transcripts would drown the store.
const maxFieldChars = 1000

// deriveObservation turns a tool event into a candidate observation, or
// nil when the payload names no tool. Edit-family tools record patterns,
// GitHub MCP mutations record decisions, error signals take precedence,
// and everything else defaults to general.
func deriveObservation(e *postToolUseEvent) *memory.NewObservation {
	tool := e.toolName()
	if tool == "" {
		return nil
	}

	typ := memory.TypeGeneral
	title := tool + " invocation"

	switch tool {
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		typ = memory.TypePattern
		title = tool + " operation"
	case "mcp__github__create_pull_request":
		typ = memory.TypeDecision
		title = "PR created: " + e.inputField("title", "unknown")
	case "mcp__github__merge_pull_request":
		typ = memory.TypeDecision
		title = "PR #" + e.inputField("pull_number", "unknown") + " merged"
	case "mcp__github__create_issue":
		title = "Issue created: " + e.inputField("title", "unknown")
	case "mcp__github__create_branch":
		typ = memory.TypePattern
		title = "Branch created: " + e.inputField("branch", "unknown")
	case "mcp__github__push_files", "mcp__github__create_or_update_file":
		typ = memory.TypePattern
		title = "Pushed: " + e.inputField("message", "unknown")
	}

	if e.signalsError() {
		typ = memory.TypeError
		title = tool + " error"
	}

	return &memory.NewObservation{
		Title:      title,
		Content:    describeToolUse(e),
		Type:       typ,
		Tags:       []string{tool},
		ProjectDir: e.projectDir(),
	}
}

func describeToolUse(e *postToolUseEvent) string {
	input := "N/A"
	if len(e.ToolInput) > 0 {
		input = clip(string(e.ToolInput), maxFieldChars)
	}
	output := "N/A"
	if text := e.responseText(); text != "" {
		output = clip(text, maxFieldChars)
	}
	return fmt.Sprintf("Tool: %s\nInput: %s\nOutput: %s", e.toolName(), input, output)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
