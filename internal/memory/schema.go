package memory

import (
	"strings"
	"time"
)

// ObservationType categorizes a memory entry.
type ObservationType string

const (
	TypeDecision   ObservationType = "decision"
	TypeError      ObservationType = "error"
	TypePattern    ObservationType = "pattern"
	TypePreference ObservationType = "preference"
	TypeGeneral    ObservationType = "general"
)

// ObservationTypes lists every valid type, in display order.
var ObservationTypes = []ObservationType{
	TypeDecision, TypeError, TypePattern, TypePreference, TypeGeneral,
}

// ParseObservationType maps a string to a known type. Unknown or empty
// input falls back to general, matching the column default.
func ParseObservationType(s string) ObservationType {
	switch ObservationType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDecision:
		return TypeDecision
	case TypeError:
		return TypeError
	case TypePattern:
		return TypePattern
	case TypePreference:
		return TypePreference
	default:
		return TypeGeneral
	}
}

// IsValidObservationType reports whether s names one of the closed set of
// types exactly (after lowercasing).
func IsValidObservationType(s string) bool {
	switch ObservationType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDecision, TypeError, TypePattern, TypePreference, TypeGeneral:
		return true
	}
	return false
}

// Observation is a single captured note. Rows are immutable after insert;
// Tokens is computed once at creation and never recomputed.
type Observation struct {
	ID             int64           `json:"id"`
	SessionID      *int64          `json:"session_id,omitempty"` // weak ref; dangling allowed
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Type           ObservationType `json:"observation_type"`
	Tags           []string        `json:"tags"`
	Tokens         int             `json:"tokens"`
	RelevanceScore float64         `json:"relevance_score"`
	CreatedAt      time.Time       `json:"created_at"`
	ProjectDir     string          `json:"project_dir,omitempty"`
}

// NewObservation is the input for AddObservation. Server-assigned fields
// (id, tokens, created_at) are absent by design.
type NewObservation struct {
	SessionID  *int64
	Title      string
	Content    string
	Type       ObservationType
	Tags       []string
	ProjectDir string
}

// Session is a bounded window of agent activity. EndedAt nil means ongoing.
type Session struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"external_id"`
	App        string     `json:"app"`
	ProjectDir string     `json:"project_dir,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Summary    string     `json:"summary,omitempty"`
}

// Ongoing reports whether the session has no end marker yet.
func (s *Session) Ongoing() bool { return s.EndedAt == nil }

// ContextItem pairs an observation with its retrieval tier for a single
// BuildContext call. It is never persisted.
type ContextItem struct {
	Observation Observation `json:"observation"`
	Priority    uint8       `json:"priority"` // 1 = FTS match, 2 = project match, 3 = recent
	MatchReason string      `json:"match_reason"`
}

// Stats holds aggregate counts over the whole store.
type Stats struct {
	TotalObservations int64                     `json:"total_observations"`
	TotalSessions     int64                     `json:"total_sessions"`
	TotalTokens       int64                     `json:"total_tokens"`
	ByType            map[ObservationType]int64 `json:"observations_by_type"`
	Oldest            *time.Time                `json:"oldest_observation,omitempty"`
	Newest            *time.Time                `json:"newest_observation,omitempty"`
}

// ListFilter narrows ListObservations. Zero values mean "no filter";
// Limit must be supplied by the caller (no implicit default).
type ListFilter struct {
	Limit      int
	Type       ObservationType
	ProjectDir string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT UNIQUE,
	app TEXT NOT NULL,
	project_dir TEXT,
	started_at INTEGER NOT NULL,
	ended_at INTEGER,
	summary TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_app ON sessions(app);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);

CREATE TABLE IF NOT EXISTS observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER REFERENCES sessions(id),
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	observation_type TEXT NOT NULL DEFAULT 'general',
	tags TEXT NOT NULL DEFAULT '',
	tokens INTEGER NOT NULL DEFAULT 0,
	relevance_score REAL NOT NULL DEFAULT 1.0,
	created_at INTEGER NOT NULL,
	project_dir TEXT
);

CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_id);
CREATE INDEX IF NOT EXISTS idx_observations_type ON observations(observation_type);
CREATE INDEX IF NOT EXISTS idx_observations_created ON observations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_observations_project ON observations(project_dir);

CREATE VIRTUAL TABLE IF NOT EXISTS observations_fts USING fts5(
	title,
	content,
	tags,
	content='observations',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS observations_ai AFTER INSERT ON observations BEGIN
	INSERT INTO observations_fts(rowid, title, content, tags)
	VALUES (new.id, new.title, new.content, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS observations_ad AFTER DELETE ON observations BEGIN
	INSERT INTO observations_fts(observations_fts, rowid, title, content, tags)
	VALUES ('delete', old.id, old.title, old.content, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS observations_au AFTER UPDATE ON observations BEGIN
	INSERT INTO observations_fts(observations_fts, rowid, title, content, tags)
	VALUES ('delete', old.id, old.title, old.content, old.tags);
	INSERT INTO observations_fts(rowid, title, content, tags)
	VALUES (new.id, new.title, new.content, new.tags);
END;
`
