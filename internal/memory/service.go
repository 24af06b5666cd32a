// Package memory implements the durable observation store for memclaw.
//
// It owns a single SQLite database file (modernc.org/sqlite, WAL mode)
// holding observations, sessions, and an FTS5 index over title, content
// and tags. All access goes through MemoryService, which serializes
// logical operations behind one mutex so the base table and the full-text
// index can never diverge under concurrent hook and CLI invocations.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryService is the storage engine plus observation repository. One
// instance per process; every exported method is safe for concurrent use.
type MemoryService struct {
	mu sync.Mutex
	db *sql.DB
}

// NewMemoryService opens (creating if needed) the database at dbPath and
// applies the schema and any pending migrations. The parent directory is
// created with owner-only permissions.
func NewMemoryService(dbPath string) (*MemoryService, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	// Best-effort migrations for databases created before these columns
	// existed (no-op on current schemas).
	_, _ = db.Exec(`ALTER TABLE sessions ADD COLUMN external_id TEXT`)
	_, _ = db.Exec(`ALTER TABLE observations ADD COLUMN relevance_score REAL NOT NULL DEFAULT 1.0`)
	_, _ = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_external ON sessions(external_id) WHERE external_id IS NOT NULL`)

	return &MemoryService{db: db}, nil
}

// Close closes the underlying database handle.
func (s *MemoryService) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Observations
// ---------------------------------------------------------------------------

// ErrEmptyTitle is returned when an observation title is blank after trimming.
var ErrEmptyTitle = errors.New("observation title must not be empty")

// AddObservation validates, estimates tokens, and inserts a new
// observation. The FTS index row is written by a trigger inside the same
// implicit transaction as the insert, so the two can never diverge.
// Returns the fully populated row including the assigned id.
func (s *MemoryService) AddObservation(obs NewObservation) (*Observation, error) {
	title := strings.TrimSpace(obs.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	typ := obs.Type
	if typ == "" {
		typ = TypeGeneral
	}

	now := time.Now().UTC().Truncate(time.Second)
	tokens := EstimateTokens(title + " " + obs.Content)
	tagsStr := strings.Join(obs.Tags, ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO observations (session_id, title, content, observation_type, tags, tokens, relevance_score, created_at, project_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(obs.SessionID), title, obs.Content, string(typ), tagsStr,
		tokens, 1.0, now.Unix(), nullableString(obs.ProjectDir),
	)
	if err != nil {
		return nil, fmt.Errorf("add observation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add observation: %w", err)
	}

	return &Observation{
		ID:             id,
		SessionID:      obs.SessionID,
		Title:          title,
		Content:        obs.Content,
		Type:           typ,
		Tags:           obs.Tags,
		Tokens:         tokens,
		RelevanceScore: 1.0,
		CreatedAt:      now,
		ProjectDir:     obs.ProjectDir,
	}, nil
}

const observationColumns = `id, session_id, title, content, observation_type, tags, tokens, relevance_score, created_at, project_dir`

// GetObservation returns the observation with the given id, or (nil, nil)
// when no such row exists.
func (s *MemoryService) GetObservation(id int64) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT `+observationColumns+` FROM observations WHERE id = ?`, id)
	obs, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get observation: %w", err)
	}
	return obs, nil
}

// ListObservations returns observations newest-first, optionally filtered
// by type and exact project_dir match.
func (s *MemoryService) ListObservations(f ListFilter) ([]Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM observations WHERE 1=1`
	args := []any{}

	if f.Type != "" {
		query += " AND observation_type = ?"
		args = append(args, string(f.Type))
	}
	if f.ProjectDir != "" {
		query += " AND project_dir = ?"
		args = append(args, f.ProjectDir)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryObservations(query, args...)
}

// Search runs a relevance-ranked FTS5 query over title, content and tags.
// The query text is escaped into a quoted phrase so callers can never
// inject FTS operators. Empty or whitespace-only queries yield an empty
// result, not all rows.
func (s *MemoryService) Search(query string, limit int) ([]Observation, error) {
	ftsQuery := sanitizeFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryObservations(`
		SELECT o.id, o.session_id, o.title, o.content, o.observation_type, o.tags,
		       o.tokens, o.relevance_score, o.created_at, o.project_dir
		FROM observations o
		JOIN observations_fts fts ON o.id = fts.rowid
		WHERE observations_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
}

// DeleteObservation removes the row (the FTS trigger removes the index
// entry in the same transaction). Returns whether a row existed, so a
// repeat delete reports false instead of erroring.
func (s *MemoryService) DeleteObservation(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM observations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete observation: %w", err)
	}
	return n > 0, nil
}

// Stats returns aggregate counts across all observations and sessions.
func (s *MemoryService) Stats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{ByType: make(map[ObservationType]int64)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&st.TotalObservations); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.TotalSessions); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(tokens), 0) FROM observations`).Scan(&st.TotalTokens); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT observation_type, COUNT(*) FROM observations GROUP BY observation_type`)
	if err != nil {
		return nil, fmt.Errorf("stats by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int64
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("stats by type: %w", err)
		}
		st.ByType[ObservationType(typ)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats by type: %w", err)
	}

	var oldest, newest sql.NullInt64
	if err := s.db.QueryRow(`SELECT MIN(created_at), MAX(created_at) FROM observations`).Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("stats range: %w", err)
	}
	if oldest.Valid {
		t := time.Unix(oldest.Int64, 0).UTC()
		st.Oldest = &t
	}
	if newest.Valid {
		t := time.Unix(newest.Int64, 0).UTC()
		st.Newest = &t
	}

	return st, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// StartSession creates a new session row. When externalID is non-empty and
// a session with that external id already exists, the existing session is
// returned with created=false — re-delivered SessionStart events must not
// create duplicates. A previous open session is never implicitly closed:
// agent restarts should not silently discard unclosed sessions.
func (s *MemoryService) StartSession(externalID, app, projectDir string) (sess *Session, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if externalID != "" {
		existing, err := s.sessionByExternalID(externalID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(`
		INSERT INTO sessions (external_id, app, project_dir, started_at)
		VALUES (?, ?, ?, ?)`,
		nullableString(externalID), app, nullableString(projectDir), now.Unix(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("start session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("start session: %w", err)
	}

	return &Session{
		ID:         id,
		ExternalID: externalID,
		App:        app,
		ProjectDir: projectDir,
		StartedAt:  now,
	}, true, nil
}

// EndSession sets the end marker and optional summary. Returns whether the
// session existed.
func (s *MemoryService) EndSession(id int64, summary string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, summary = ? WHERE id = ?`,
		time.Now().UTC().Unix(), nullableString(summary), id,
	)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	return n > 0, nil
}

// CurrentSession returns the most recently started session that has no end
// marker, or (nil, nil) when every session is closed.
func (s *MemoryService) CurrentSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, external_id, app, project_dir, started_at, ended_at, summary
		FROM sessions
		WHERE ended_at IS NULL
		ORDER BY started_at DESC, id DESC
		LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	return sess, nil
}

// ListSessions returns sessions most-recent-first by start time.
func (s *MemoryService) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, external_id, app, project_dir, started_at, ended_at, summary
		FROM sessions
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *MemoryService) sessionByExternalID(externalID string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, external_id, app, project_dir, started_at, ended_at, summary
		FROM sessions WHERE external_id = ?`, externalID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session by external id: %w", err)
	}
	return sess, nil
}

// ---------------------------------------------------------------------------
// Scanning helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (*Observation, error) {
	var (
		o         Observation
		sessionID sql.NullInt64
		typ       string
		tags      string
		createdAt int64
		project   sql.NullString
	)
	if err := row.Scan(&o.ID, &sessionID, &o.Title, &o.Content, &typ, &tags,
		&o.Tokens, &o.RelevanceScore, &createdAt, &project); err != nil {
		return nil, err
	}
	if sessionID.Valid {
		o.SessionID = &sessionID.Int64
	}
	o.Type = ObservationType(typ)
	o.Tags = splitTags(tags)
	o.CreatedAt = time.Unix(createdAt, 0).UTC()
	o.ProjectDir = project.String
	return &o, nil
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess       Session
		externalID sql.NullString
		project    sql.NullString
		startedAt  int64
		endedAt    sql.NullInt64
		summary    sql.NullString
	)
	if err := row.Scan(&sess.ID, &externalID, &sess.App, &project, &startedAt, &endedAt, &summary); err != nil {
		return nil, err
	}
	sess.ExternalID = externalID.String
	sess.ProjectDir = project.String
	sess.StartedAt = time.Unix(startedAt, 0).UTC()
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0).UTC()
		sess.EndedAt = &t
	}
	sess.Summary = summary.String
	return &sess, nil
}

// queryObservations runs a query returning full observation rows.
// Callers must hold s.mu.
func (s *MemoryService) queryObservations(query string, args ...any) ([]Observation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var results []Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		results = append(results, *obs)
	}
	return results, rows.Err()
}

// sanitizeFTSQuery turns arbitrary user text into a safe FTS5 phrase
// query: embedded double quotes are doubled and the whole query is
// wrapped in quotes, so operators like NEAR, *, or column filters have no
// effect. Blank input returns "".
func sanitizeFTSQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(trimmed, `"`, `""`) + `"`
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
