// Package hooks implements the agent-event ingestion pipeline and the
// registration bookkeeping against Claude Code's settings file.
//
// Ingestion is best-effort by contract: empty input means "nothing to
// do", and every internal failure is logged and swallowed. A broken hook
// must never abort the agent's tool loop.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/memclaw/memclaw/internal/config"
	"github.com/memclaw/memclaw/internal/memory"
)

// Kind identifies which agent hook fired.
type Kind string

const (
	KindSessionStart Kind = "session-start"
	KindPostToolUse  Kind = "post-tool-use"
)

// ParseKind maps the --hook flag value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSessionStart:
		return KindSessionStart, nil
	case KindPostToolUse:
		return KindPostToolUse, nil
	}
	return "", fmt.Errorf("unknown hook kind %q (want session-start or post-tool-use)", s)
}

// Outcome distinguishes the three terminal states of one ingestion.
type Outcome int

const (
	// OutcomeContext means ingestion succeeded and produced a context
	// block to surface back to the agent.
	OutcomeContext Outcome = iota
	// OutcomeEmpty means there was nothing to do (blank payload,
	// unclassifiable event, or no context fit the budget).
	OutcomeEmpty
	// OutcomeFailure means an internal error occurred; it has been
	// logged and suppressed, and no output is produced.
	OutcomeFailure
)

// Result is the outcome of a single Ingest call. Err is only set for
// OutcomeFailure and is never propagated past the pipeline.
type Result struct {
	Outcome Outcome
	Context string
	Err     error
}

// maxPayloadBytes bounds the event read from stdin. Agent payloads are
// small; anything larger is a misdirected stream.
const maxPayloadBytes = 1 << 20

// Pipeline ingests hook events, maintains session lifecycle, derives
// observations, and assembles the context returned to the agent.
type Pipeline struct {
	svc *memory.MemoryService
	asm *memory.Assembler
	cfg config.MemoryConfig
	log *slog.Logger
}

// NewPipeline wires a pipeline over the given service. logger may be nil.
func NewPipeline(svc *memory.MemoryService, cfg config.MemoryConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		svc: svc,
		asm: memory.NewAssembler(svc, memory.AssemblerLimits{
			Search:  cfg.SearchLimit,
			Project: cfg.ProjectLimit,
			Recent:  cfg.RecentLimit,
		}),
		cfg: cfg,
		log: logger,
	}
}

// Ingest reads one JSON event payload from r and processes it according
// to kind. It never returns an error to the caller; failures surface as
// OutcomeFailure with the error recorded on the Result after being
// logged.
func (p *Pipeline) Ingest(kind Kind, r io.Reader) Result {
	payload, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
	if err != nil {
		return p.fail(kind, fmt.Errorf("read payload: %w", err))
	}
	if strings.TrimSpace(string(payload)) == "" {
		return Result{Outcome: OutcomeEmpty}
	}

	switch kind {
	case KindSessionStart:
		return p.ingestSessionStart(payload)
	case KindPostToolUse:
		return p.ingestPostToolUse(payload)
	default:
		return p.fail(kind, fmt.Errorf("unknown hook kind %q", kind))
	}
}

// sessionStartEvent is the SessionStart payload. Claude Code sends
// session_id and cwd; the published contract also accepts app and
// project_dir spellings.
type sessionStartEvent struct {
	App        string `json:"app"`
	SessionID  string `json:"session_id"`
	ProjectDir string `json:"project_dir"`
	Cwd        string `json:"cwd"`
}

func (e *sessionStartEvent) app() string {
	if e.App != "" {
		return e.App
	}
	return "claude"
}

func (e *sessionStartEvent) projectDir() string {
	if e.ProjectDir != "" {
		return e.ProjectDir
	}
	return e.Cwd
}

func (p *Pipeline) ingestSessionStart(payload []byte) Result {
	var event sessionStartEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return p.fail(KindSessionStart, fmt.Errorf("invalid session-start payload: %w", err))
	}

	// The external id is the idempotency key: a re-delivered event finds
	// its existing session instead of creating a second one.
	externalID := event.SessionID
	if externalID == "" {
		externalID = uuid.NewString()
	}

	sess, created, err := p.svc.StartSession(externalID, event.app(), event.projectDir())
	if err != nil {
		return p.fail(KindSessionStart, err)
	}
	if !created {
		p.log.Debug("session-start replayed", "session_id", sess.ID, "external_id", externalID)
		return Result{Outcome: OutcomeEmpty}
	}

	// Prime the fresh session with prior context for its project.
	items, err := p.asm.BuildContext("", p.cfg.SessionStartBudget, event.projectDir())
	if err != nil {
		// The session row is already committed; losing the priming
		// block is acceptable, losing the session is not.
		p.log.Warn("session-start context assembly failed", "error", err)
		return Result{Outcome: OutcomeEmpty}
	}

	injection := memory.FormatInjection(items)
	if injection == "" {
		return Result{Outcome: OutcomeEmpty}
	}
	return Result{Outcome: OutcomeContext, Context: injection}
}

func (p *Pipeline) ingestPostToolUse(payload []byte) Result {
	var event postToolUseEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return p.fail(KindPostToolUse, fmt.Errorf("invalid post-tool-use payload: %w", err))
	}

	obs := deriveObservation(&event)
	if obs == nil {
		return Result{Outcome: OutcomeEmpty}
	}

	// Attach to the current open session when one exists; otherwise the
	// observation stands alone with a null session reference.
	if current, err := p.svc.CurrentSession(); err == nil && current != nil {
		obs.SessionID = &current.ID
	}

	saved, err := p.svc.AddObservation(*obs)
	if err != nil {
		return p.fail(KindPostToolUse, err)
	}
	p.log.Debug("observation ingested", "id", saved.ID, "type", saved.Type, "tool", event.toolName())

	items, err := p.asm.BuildContext(event.toolName(), p.cfg.PostToolBudget, event.projectDir())
	if err != nil {
		p.log.Warn("post-tool-use context assembly failed", "error", err)
		return Result{Outcome: OutcomeEmpty}
	}
	if len(items) == 0 {
		return Result{Outcome: OutcomeEmpty}
	}
	return Result{Outcome: OutcomeContext, Context: memory.FormatContext(items)}
}

func (p *Pipeline) fail(kind Kind, err error) Result {
	p.log.Warn("hook ingest error", "hook", string(kind), "error", err)
	return Result{Outcome: OutcomeFailure, Err: err}
}
