package claudelog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

func writeSessionFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEnumerateListsProjectJSONL(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "-home-dev-proj")
	os.MkdirAll(filepath.Join(proj, "subagents"), 0755)
	writeSessionFile(t, proj, "s1.jsonl", `{}`)
	writeSessionFile(t, proj, "notes.txt", `x`)
	writeSessionFile(t, filepath.Join(proj, "subagents"), "sub.jsonl", `{}`)

	s := NewScanner(root)
	enum, err := s.Enumerate(ports.ScopeFull)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(enum.Files) != 1 {
		t.Fatalf("got %d files, want 1 (only top-level .jsonl)", len(enum.Files))
	}
	if filepath.Base(enum.Files[0].Path) != "s1.jsonl" {
		t.Errorf("unexpected file %s", enum.Files[0].Path)
	}
	if enum.Capped {
		t.Error("full scope must never report capped")
	}
}

func TestEnumerateMissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "does-not-exist"))
	enum, err := s.Enumerate(ports.ScopeFull)
	if err != nil {
		t.Fatalf("missing root must not error: %v", err)
	}
	if len(enum.Files) != 0 {
		t.Errorf("got %d files from a missing root", len(enum.Files))
	}
}

func TestEnumerateRecentWindowCaps(t *testing.T) {
	root := t.TempDir()
	// One more project dir than the recency window holds.
	for i := 0; i <= recentProjectDirs; i++ {
		dir := filepath.Join(root, fmt.Sprintf("proj-%02d", i))
		os.MkdirAll(dir, 0755)
		writeSessionFile(t, dir, "s.jsonl", `{}`)
		// Stagger directory mtimes so the window selection is stable.
		mtime := time.Now().Add(-time.Duration(i) * time.Hour)
		os.Chtimes(dir, mtime, mtime)
	}

	s := NewScanner(root)
	enum, err := s.Enumerate(ports.ScopeRecent)
	if err != nil {
		t.Fatal(err)
	}
	if !enum.Capped {
		t.Error("window overflow must set Capped")
	}
	if len(enum.ScannedDirs) != recentProjectDirs {
		t.Errorf("scanned %d dirs, want %d", len(enum.ScannedDirs), recentProjectDirs)
	}
	if len(enum.Files) != recentProjectDirs {
		t.Errorf("got %d files, want %d", len(enum.Files), recentProjectDirs)
	}
}

func TestParseLightweight(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "s1.jsonl",
		`{"type":"file-history-snapshot","snapshot":{}}`,
		`{"sessionId":"abc-123","cwd":"/home/dev/myrepo","type":"user","timestamp":"2026-08-01T10:00:00Z","message":{"role":"user","content":"fix the race in the watcher"}}`,
		`{"type":"assistant","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"Looking."}]}}`,
	)

	s := NewScanner(dir)
	session, err := s.ParseLightweight(path)
	if err != nil {
		t.Fatalf("ParseLightweight: %v", err)
	}
	if session == nil {
		t.Fatal("got nil session")
	}

	if session.ID != "abc-123" {
		t.Errorf("ID = %q", session.ID)
	}
	if session.Source != domain.SourceClaude {
		t.Errorf("Source = %q", session.Source)
	}
	if session.CWD != "/home/dev/myrepo" || session.Repo != "myrepo" {
		t.Errorf("CWD/Repo = %q/%q", session.CWD, session.Repo)
	}
	if session.Summary != "fix the race in the watcher" {
		t.Errorf("Summary = %q", session.Summary)
	}
	if session.Model != "claude-opus-4" {
		t.Errorf("Model = %q", session.Model)
	}
	want := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if !session.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", session.StartedAt, want)
	}
	if len(session.Events) != 0 {
		t.Error("lightweight parse must not populate events")
	}
	if session.EventCount == 0 {
		t.Error("lightweight parse must estimate an event count")
	}
}

func TestParseLightweightStructuredUserContent(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "s2.jsonl",
		`{"sessionId":"def-456","cwd":"/w","type":"user","message":{"role":"user","content":[{"type":"text","text":"add retry logic"}]}}`,
	)

	s := NewScanner(dir)
	session, err := s.ParseLightweight(path)
	if err != nil || session == nil {
		t.Fatalf("session=%v err=%v", session, err)
	}
	if session.Summary != "add retry logic" {
		t.Errorf("Summary = %q", session.Summary)
	}
}

func TestParseLightweightHeadFieldsDoNotLeakAcrossLines(t *testing.T) {
	dir := t.TempDir()
	// The first line is user-shaped but carries no sessionId; the second
	// carries the sessionId and nothing else. Fields decoded from the
	// first line must not survive into the second.
	path := writeSessionFile(t, dir, "s3.jsonl",
		`{"type":"user","message":{"role":"user","content":"leftover from another log"}}`,
		`{"sessionId":"ghi-789"}`,
		`{"type":"user","message":{"role":"user","content":"real question"}}`,
	)

	s := NewScanner(dir)
	session, err := s.ParseLightweight(path)
	if err != nil || session == nil {
		t.Fatalf("session=%v err=%v", session, err)
	}
	if session.ID != "ghi-789" {
		t.Errorf("ID = %q", session.ID)
	}
	if session.Summary != "real question" {
		t.Errorf("Summary = %q, want the first user message after the id line", session.Summary)
	}
}

func TestParseLightweightNotASession(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "junk.jsonl",
		`{"type":"file-history-snapshot"}`,
		`not json at all`,
	)

	s := NewScanner(dir)
	session, err := s.ParseLightweight(path)
	if err != nil {
		t.Fatalf("unparsable input must not error: %v", err)
	}
	if session != nil {
		t.Errorf("got %+v, want nil", session)
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<system-hint>x</system-hint> do it", "x do it"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripTags(tt.in); got != tt.want {
			t.Errorf("stripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
