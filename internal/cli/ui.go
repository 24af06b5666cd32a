package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/memclaw/memclaw/internal/config"
	"github.com/memclaw/memclaw/internal/memory"
)

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func successMsg(format string, a ...any) {
	fmt.Println(color.GreenString(format, a...))
}

func warnMsg(format string, a ...any) {
	fmt.Println(color.YellowString(format, a...))
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}

// openService loads config and opens the memory store. Callers must
// Close the returned service.
func openService() (*memory.MemoryService, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := memory.NewMemoryService(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}
	return svc, cfg, nil
}

func newAssembler(svc *memory.MemoryService, cfg *config.Config) *memory.Assembler {
	return memory.NewAssembler(svc, memory.AssemblerLimits{
		Search:  cfg.Memory.SearchLimit,
		Project: cfg.Memory.ProjectLimit,
		Recent:  cfg.Memory.RecentLimit,
	})
}
