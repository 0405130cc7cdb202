package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Source identifies the tool that produced a session log.
type Source string

const (
	SourceClaude Source = "claude"
	SourceCodex  Source = "codex"
)

// String returns the source tag as stored on disk and in the cache.
func (s Source) String() string { return string(s) }

// ParseSource maps a stored tag back to a Source.
func ParseSource(tag string) Source {
	switch strings.ToLower(tag) {
	case "claude":
		return SourceClaude
	case "codex":
		return SourceCodex
	default:
		return Source(tag)
	}
}

// Session is the unit of indexed data. It is owned by the indexer that
// produced it and replaced wholesale on re-parse; consumers never mutate
// individual fields.
type Session struct {
	ID         string // unique within its source
	Source     Source
	StartedAt  time.Time // zero until content has been parsed
	EndedAt    time.Time // zero until content has been parsed
	Model      string
	FilePath   string // absolute path of the upstream log file
	FileSize   int64  // 0 when unknown
	EventCount int    // exact after a full parse, estimated otherwise
	Events     []Event
	CWD        string // working-directory hint from the log
	Repo       string // repository name derived from CWD
	Summary    string // first user message, truncated
	Archived   bool   // true for placeholders synthesized from an archive

	title string // lazily computed, see Title
}

// Key returns the uniqueness key for a session. IDs are only unique
// within one source.
func (s *Session) Key() string {
	return string(s.Source) + "/" + s.ID
}

// Title returns a display title, computing and caching it on first use.
// The summary wins when present; otherwise the repo name, then the ID.
func (s *Session) Title() string {
	if s.title != "" {
		return s.title
	}
	switch {
	case s.Summary != "":
		s.title = Truncate(s.Summary, 80)
	case s.Repo != "":
		s.title = s.Repo
	default:
		s.title = s.ID
	}
	return s.title
}

// ModifiedAt returns the best-known recency timestamp for sorting:
// the session end when parsed, otherwise the start.
func (s *Session) ModifiedAt() time.Time {
	if !s.EndedAt.IsZero() {
		return s.EndedAt
	}
	return s.StartedAt
}

// RepoFromCWD derives a repository name from a working directory path.
func RepoFromCWD(cwd string) string {
	base := filepath.Base(cwd)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// Truncate collapses whitespace and shortens s to at most maxLen runes.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

// SortByRecency orders sessions most recently modified first. The sort is
// stable so equal timestamps keep their incoming order.
func SortByRecency(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ModifiedAt().After(sessions[j].ModifiedAt())
	})
}

// MatchesFilter reports whether the session matches a case-insensitive
// substring filter over title, repo and working directory.
func (s *Session) MatchesFilter(filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(s.Title()), f) ||
		strings.Contains(strings.ToLower(s.Repo), f) ||
		strings.Contains(strings.ToLower(s.CWD), f)
}
