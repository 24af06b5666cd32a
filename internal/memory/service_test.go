package memory

import (
	"path/filepath"
	"testing"
)

func newTestService(t *testing.T) *MemoryService {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "memory.db")
	svc, err := NewMemoryService(dbPath)
	if err != nil {
		t.Fatalf("failed to create memory service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func mustAdd(t *testing.T, svc *MemoryService, obs NewObservation) *Observation {
	t.Helper()
	saved, err := svc.AddObservation(obs)
	if err != nil {
		t.Fatalf("add observation: %v", err)
	}
	return saved
}

func TestAddGetRoundTrip(t *testing.T) {
	svc := newTestService(t)

	saved := mustAdd(t, svc, NewObservation{
		Title:      "  JWT middleware chosen  ",
		Content:    "Switched auth to JWT with RS256 keys.",
		Type:       TypeDecision,
		Tags:       []string{"auth", "jwt"},
		ProjectDir: "/home/dev/api",
	})
	if saved.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if saved.Title != "JWT middleware chosen" {
		t.Errorf("title not trimmed: %q", saved.Title)
	}
	wantTokens := EstimateTokens("JWT middleware chosen" + " " + saved.Content)
	if saved.Tokens != wantTokens {
		t.Errorf("tokens = %d, want %d", saved.Tokens, wantTokens)
	}

	got, err := svc.GetObservation(saved.ID)
	if err != nil {
		t.Fatalf("get observation: %v", err)
	}
	if got == nil {
		t.Fatalf("expected observation")
	}
	if got.Title != saved.Title || got.Content != saved.Content || got.Type != TypeDecision {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "auth" || got.Tags[1] != "jwt" {
		t.Errorf("tags mismatch: %v", got.Tags)
	}
	if got.ProjectDir != "/home/dev/api" {
		t.Errorf("project mismatch: %q", got.ProjectDir)
	}
	if got.Tokens != wantTokens {
		t.Errorf("persisted tokens = %d, want %d", got.Tokens, wantTokens)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	svc := newTestService(t)

	for _, title := range []string{"", "   ", "\n\t"} {
		if _, err := svc.AddObservation(NewObservation{Title: title}); err != ErrEmptyTitle {
			t.Errorf("title %q: err = %v, want ErrEmptyTitle", title, err)
		}
	}
}

func TestAddDefaultsToGeneral(t *testing.T) {
	svc := newTestService(t)

	saved := mustAdd(t, svc, NewObservation{Title: "untyped note"})
	if saved.Type != TypeGeneral {
		t.Errorf("type = %q, want %q", saved.Type, TypeGeneral)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.GetObservation(999)
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	svc := newTestService(t)

	first := mustAdd(t, svc, NewObservation{Title: "first", Type: TypePattern, ProjectDir: "/a"})
	second := mustAdd(t, svc, NewObservation{Title: "second", Type: TypeError, ProjectDir: "/b"})
	third := mustAdd(t, svc, NewObservation{Title: "third", Type: TypePattern, ProjectDir: "/a"})

	all, err := svc.ListObservations(ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("order wrong: %d, %d, %d", all[0].ID, all[1].ID, all[2].ID)
	}

	patterns, err := svc.ListObservations(ListFilter{Limit: 10, Type: TypePattern})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(patterns) != 2 {
		t.Errorf("patterns = %d, want 2", len(patterns))
	}

	byProject, err := svc.ListObservations(ListFilter{Limit: 10, ProjectDir: "/b"})
	if err != nil {
		t.Fatalf("list by project: %v", err)
	}
	if len(byProject) != 1 || byProject[0].ID != second.ID {
		t.Errorf("project filter wrong: %v", byProject)
	}

	limited, err := svc.ListObservations(ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != third.ID {
		t.Errorf("limit wrong: %v", limited)
	}
}

func TestSearchMatchesTitleContentAndTags(t *testing.T) {
	svc := newTestService(t)

	byTitle := mustAdd(t, svc, NewObservation{Title: "goroutine leak in poller"})
	byContent := mustAdd(t, svc, NewObservation{Title: "review notes", Content: "found a goroutine left running"})
	byTag := mustAdd(t, svc, NewObservation{Title: "scheduler refactor", Tags: []string{"goroutine"}})
	mustAdd(t, svc, NewObservation{Title: "unrelated grocery list"})

	rows, err := svc.Search("goroutine", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	found := map[int64]bool{}
	for _, o := range rows {
		found[o.ID] = true
	}
	for _, want := range []int64{byTitle.ID, byContent.ID, byTag.ID} {
		if !found[want] {
			t.Errorf("missing id %d in results", want)
		}
	}
}

func TestSearchBlankQueryReturnsNothing(t *testing.T) {
	svc := newTestService(t)
	mustAdd(t, svc, NewObservation{Title: "anything"})

	for _, q := range []string{"", "   ", "\t\n"} {
		rows, err := svc.Search(q, 10)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(rows) != 0 {
			t.Errorf("search %q returned %d rows, want 0", q, len(rows))
		}
	}
}

func TestSearchQuotesAreNotOperators(t *testing.T) {
	svc := newTestService(t)
	mustAdd(t, svc, NewObservation{Title: "plain note"})

	// Operator-looking input must be treated as literal text, not syntax.
	for _, q := range []string{`"`, `NEAR(a b)`, `title: note AND`, `note*"`} {
		if _, err := svc.Search(q, 10); err != nil {
			t.Errorf("search %q: %v", q, err)
		}
	}
}

func TestDeleteObservation(t *testing.T) {
	svc := newTestService(t)
	saved := mustAdd(t, svc, NewObservation{Title: "ephemeral finding"})

	deleted, err := svc.DeleteObservation(saved.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deleted=true")
	}

	// Second delete reports false, no error.
	deleted, err = svc.DeleteObservation(saved.ID)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if deleted {
		t.Fatalf("expected deleted=false on repeat")
	}

	// The FTS index entry goes with the row.
	rows, err := svc.Search("ephemeral", 10)
	if err != nil {
		t.Fatalf("search after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("deleted row still searchable: %v", rows)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t)

	empty, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats empty: %v", err)
	}
	if empty.TotalObservations != 0 || empty.Oldest != nil || empty.Newest != nil {
		t.Errorf("empty stats wrong: %+v", empty)
	}

	mustAdd(t, svc, NewObservation{Title: "one", Type: TypeDecision})
	mustAdd(t, svc, NewObservation{Title: "two", Type: TypeDecision})
	b := mustAdd(t, svc, NewObservation{Title: "three", Type: TypeError})
	if _, _, err := svc.StartSession("sess-1", "claude", ""); err != nil {
		t.Fatalf("start session: %v", err)
	}

	st, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalObservations != 3 || st.TotalSessions != 1 {
		t.Errorf("totals wrong: %+v", st)
	}
	if st.ByType[TypeDecision] != 2 || st.ByType[TypeError] != 1 {
		t.Errorf("by-type wrong: %v", st.ByType)
	}
	wantTokens := int64(EstimateTokens("one ") + EstimateTokens("two ") + EstimateTokens("three "))
	if st.TotalTokens != wantTokens {
		t.Errorf("token sum = %d, want %d", st.TotalTokens, wantTokens)
	}
	if st.Oldest == nil || st.Newest == nil {
		t.Fatalf("expected time range")
	}

	// Deleting M rows drops the count to N-M.
	if _, err := svc.DeleteObservation(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	st, err = svc.Stats()
	if err != nil {
		t.Fatalf("stats after delete: %v", err)
	}
	if st.TotalObservations != 2 {
		t.Errorf("total after delete = %d, want 2", st.TotalObservations)
	}
}

func TestStartSessionIdempotentOnExternalID(t *testing.T) {
	svc := newTestService(t)

	first, created, err := svc.StartSession("ext-abc", "claude", "/proj")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}

	replay, created, err := svc.StartSession("ext-abc", "claude", "/proj")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if created {
		t.Fatalf("expected created=false on replay")
	}
	if replay.ID != first.ID {
		t.Errorf("replay id = %d, want %d", replay.ID, first.ID)
	}

	sessions, err := svc.ListSessions(10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)

	sess, _, err := svc.StartSession("ext-1", "claude", "/proj")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sess.Ongoing() {
		t.Fatalf("new session should be ongoing")
	}

	cur, err := svc.CurrentSession()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur == nil || cur.ID != sess.ID {
		t.Fatalf("current = %+v, want id %d", cur, sess.ID)
	}

	ok, err := svc.EndSession(sess.ID, "finished refactor")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if !ok {
		t.Fatalf("expected end to find the session")
	}

	cur, err = svc.CurrentSession()
	if err != nil {
		t.Fatalf("current after end: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected no current session, got %+v", cur)
	}

	ok, err = svc.EndSession(999, "")
	if err != nil {
		t.Fatalf("end absent: %v", err)
	}
	if ok {
		t.Fatalf("ending absent session should report false")
	}
}

func TestObservationKeepsSessionRef(t *testing.T) {
	svc := newTestService(t)

	sess, _, err := svc.StartSession("ext-9", "claude", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	saved := mustAdd(t, svc, NewObservation{Title: "linked note", SessionID: &sess.ID})

	got, err := svc.GetObservation(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SessionID == nil || *got.SessionID != sess.ID {
		t.Errorf("session ref lost: %v", got.SessionID)
	}
}
