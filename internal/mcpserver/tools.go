package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memclaw/memclaw/internal/memory"
)

// SaveTool handles the mem_save MCP tool.
type SaveTool struct {
	svc *memory.MemoryService
}

// NewSaveTool creates a SaveTool over the given service.
func NewSaveTool(svc *memory.MemoryService) *SaveTool {
	return &SaveTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_save.
func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_save",
		mcp.WithDescription(
			"Save an observation to persistent memory. Call this PROACTIVELY after significant work — "+
				"architectural decisions, fixed errors, discovered patterns, user preferences.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title (e.g. 'JWT middleware chosen', 'Fixed N+1 query')"),
		),
		mcp.WithString("content",
			mcp.Description("Body text with the detail worth remembering"),
		),
		mcp.WithString("type",
			mcp.Description("Category: decision, error, pattern, preference, general (default: general)"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithString("project",
			mcp.Description("Absolute project directory to associate"),
		),
	)
}

// Handle processes the mem_save tool call.
func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	obs, err := t.svc.AddObservation(memory.NewObservation{
		Title:      title,
		Content:    req.GetString("content", ""),
		Type:       memory.ParseObservationType(req.GetString("type", "")),
		Tags:       splitCSV(req.GetString("tags", "")),
		ProjectDir: req.GetString("project", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save observation: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory saved: %q (%s)\nID: %d, %d tokens", obs.Title, obs.Type, obs.ID, obs.Tokens)), nil
}

// SearchTool handles the mem_search MCP tool.
type SearchTool struct {
	svc *memory.MemoryService
}

// NewSearchTool creates a SearchTool over the given service.
func NewSearchTool(svc *memory.MemoryService) *SearchTool {
	return &SearchTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_search",
		mcp.WithDescription("Full-text search over saved memories. Use for targeted lookups by keyword."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default 10)"),
		),
	)
}

// Handle processes the mem_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := req.GetInt("limit", 10)

	rows, err := t.svc.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No memories match %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d memories match %q:\n", len(rows), query)
	for _, o := range rows {
		fmt.Fprintf(&b, "\n#%d [%s] %s\n", o.ID, o.Type, o.Title)
		if o.Content != "" {
			fmt.Fprintf(&b, "%s\n", o.Content)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ContextTool handles the mem_context MCP tool.
type ContextTool struct {
	asm           *memory.Assembler
	defaultBudget int
}

// NewContextTool creates a ContextTool over the given assembler.
func NewContextTool(asm *memory.Assembler, defaultBudget int) *ContextTool {
	return &ContextTool{asm: asm, defaultBudget: defaultBudget}
}

// Definition returns the MCP tool definition for mem_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_context",
		mcp.WithDescription(
			"Assemble a token-budgeted context block from memory: full-text matches first, "+
				"then project-scoped memories, then recent ones. Call at the start of a task.",
		),
		mcp.WithString("query",
			mcp.Description("What you are working on (optional; recency-only when empty)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Token budget for the assembled block"),
		),
		mcp.WithString("project",
			mcp.Description("Absolute project directory to prioritize"),
		),
	)
}

// Handle processes the mem_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	budget := req.GetInt("max_tokens", t.defaultBudget)
	items, err := t.asm.BuildContext(req.GetString("query", ""), budget, req.GetString("project", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context assembly failed: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No context available."), nil
	}
	return mcp.NewToolResultText(memory.FormatContext(items)), nil
}

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	svc *memory.MemoryService
}

// NewStatsTool creates a StatsTool over the given service.
func NewStatsTool(svc *memory.MemoryService) *StatsTool {
	return &StatsTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription("Show aggregate statistics for the memory store."),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.svc.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Observations: %d\nSessions: %d\nStored tokens: %d\n", st.TotalObservations, st.TotalSessions, st.TotalTokens)
	for _, typ := range memory.ObservationTypes {
		if n, ok := st.ByType[typ]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", typ, n)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func splitCSV(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
