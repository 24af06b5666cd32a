// Package mcpserver exposes the memory store over MCP stdio so any
// MCP-capable coding agent can save and retrieve observations directly.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/memclaw/memclaw/internal/config"
	"github.com/memclaw/memclaw/internal/memory"
)

// New builds the MCP server with all memory tools registered.
func New(svc *memory.MemoryService, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"memclaw-memory",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	asm := memory.NewAssembler(svc, memory.AssemblerLimits{
		Search:  cfg.Memory.SearchLimit,
		Project: cfg.Memory.ProjectLimit,
		Recent:  cfg.Memory.RecentLimit,
	})

	saveTool := NewSaveTool(svc)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	searchTool := NewSearchTool(svc)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	contextTool := NewContextTool(asm, cfg.Memory.MaxContextTokens)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	statsTool := NewStatsTool(svc)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	return s
}

// Serve runs the server on stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `MemClaw keeps durable memory across coding sessions.
Use mem_save PROACTIVELY after significant work: decisions, fixed errors,
discovered patterns, user preferences. Use mem_context at the start of a
task to recall relevant prior work, and mem_search for targeted lookups.`
