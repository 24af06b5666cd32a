package memory

import (
	"fmt"
	"strings"
)

// Repository is the slice of MemoryService the assembler needs. The
// assembler never touches the database directly.
type Repository interface {
	Search(query string, limit int) ([]Observation, error)
	ListObservations(f ListFilter) ([]Observation, error)
}

// Assembler merges three retrieval tiers — full-text match, project
// locality, and recency — into one ranked, deduplicated, token-budgeted
// context sequence. Explicit queries carry the strongest signal of
// intent, so FTS matches outrank project matches, which outrank recency.
type Assembler struct {
	repo         Repository
	searchLimit  int
	projectLimit int
	recentLimit  int
}

// AssemblerLimits bounds how many candidates each tier fetches before
// budgeting. Zero fields fall back to the defaults (10/20/50).
type AssemblerLimits struct {
	Search  int
	Project int
	Recent  int
}

// NewAssembler builds an Assembler over the given repository.
func NewAssembler(repo Repository, limits AssemblerLimits) *Assembler {
	if limits.Search <= 0 {
		limits.Search = 10
	}
	if limits.Project <= 0 {
		limits.Project = 20
	}
	if limits.Recent <= 0 {
		limits.Recent = 50
	}
	return &Assembler{
		repo:         repo,
		searchLimit:  limits.Search,
		projectLimit: limits.Project,
		recentLimit:  limits.Recent,
	}
}

// BuildContext returns context items whose token sum never exceeds
// maxTokens. Candidates are gathered tier by tier (1 → 2 → 3, each tier
// keeping its own ordering), deduplicated by observation id, then
// accepted greedily in order until the first candidate that would
// overflow the budget. An empty result means nothing fits — possibly
// because the very first candidate alone is over budget — which callers
// must treat as distinct from "nothing exists".
func (a *Assembler) BuildContext(query string, maxTokens int, projectDir string) ([]ContextItem, error) {
	var candidates []ContextItem
	seen := make(map[int64]bool)

	add := func(obs []Observation, priority uint8, reason string) {
		for _, o := range obs {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			candidates = append(candidates, ContextItem{Observation: o, Priority: priority, MatchReason: reason})
		}
	}

	// Tier 1: full-text matches, relevance order.
	if strings.TrimSpace(query) != "" {
		matches, err := a.repo.Search(query, a.searchLimit)
		if err != nil {
			return nil, fmt.Errorf("context search tier: %w", err)
		}
		add(matches, 1, "FTS match")
	}

	// Tier 2: project-scoped, newest first.
	if projectDir != "" {
		projectObs, err := a.repo.ListObservations(ListFilter{Limit: a.projectLimit, ProjectDir: projectDir})
		if err != nil {
			return nil, fmt.Errorf("context project tier: %w", err)
		}
		add(projectObs, 2, "Project match")
	}

	// Tier 3: global recency.
	recent, err := a.repo.ListObservations(ListFilter{Limit: a.recentLimit})
	if err != nil {
		return nil, fmt.Errorf("context recency tier: %w", err)
	}
	add(recent, 3, "Recent")

	// Greedy budget pass: stop at the first item that would overflow.
	// No partial inclusion of an observation's content.
	var items []ContextItem
	used := 0
	for _, c := range candidates {
		if used+c.Observation.Tokens > maxTokens {
			break
		}
		used += c.Observation.Tokens
		items = append(items, c)
	}
	return items, nil
}

// TotalTokens sums the cached token counts of the given items.
func TotalTokens(items []ContextItem) int {
	total := 0
	for _, item := range items {
		total += item.Observation.Tokens
	}
	return total
}

// PriorityLabel names a retrieval tier for display.
func PriorityLabel(priority uint8) string {
	switch priority {
	case 1:
		return "[FTS]"
	case 2:
		return "[Project]"
	default:
		return "[Recent]"
	}
}

// FormatContext renders the numbered plain-text block surfaced by the
// `context` command and the post-tool-use hook response.
func FormatContext(items []ContextItem) string {
	if len(items) == 0 {
		return "No relevant context found."
	}

	var b strings.Builder
	for i, item := range items {
		firstLine, _, _ := strings.Cut(item.Observation.Content, "\n")
		if len(firstLine) > 100 {
			firstLine = firstLine[:100]
		}
		fmt.Fprintf(&b, "%d. %s [%s] %s\n   %s\n\n",
			i+1, PriorityLabel(item.Priority), item.Observation.Type,
			item.Observation.Title, firstLine)
	}
	return b.String()
}

// FormatInjection renders the markdown block primed into a fresh agent
// session. At most five items are included to keep the injection short.
func FormatInjection(items []ContextItem) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) > 5 {
		items = items[:5]
	}

	var b strings.Builder
	b.WriteString("## Memory Context\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n",
			item.Observation.Title, item.Observation.Type, item.Observation.Content)
	}
	return b.String()
}
