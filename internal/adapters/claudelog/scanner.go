// Package claudelog scans Claude Code session logs: one project directory
// per workspace under the root, one .jsonl file per session inside it.
package claudelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

const (
	// recentProjectDirs is the recency window: only this many
	// most-recently-modified project directories are enumerated under
	// ScopeRecent.
	recentProjectDirs = 8
	// perDirFileCap bounds files listed per project directory under
	// ScopeRecent. Hitting it sets the drift flag.
	perDirFileCap = 200

	maxLineBytes   = 256 * 1024
	headScanLines  = 10
	titleScanLines = 20
)

// Scanner implements ports.SessionSource for Claude Code logs.
type Scanner struct {
	root string
}

var _ ports.SessionSource = (*Scanner)(nil)

// NewScanner creates a scanner over the given projects root
// (conventionally ~/.claude/projects).
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Name returns the claude source tag.
func (s *Scanner) Name() domain.Source { return domain.SourceClaude }

// Enumerate lists session files newest-first. Under ScopeRecent only the
// most recently modified project directories are visited, with a hard
// per-directory file cap; the cap being hit is reported as Capped so the
// caller can schedule a full pass.
func (s *Scanner) Enumerate(scope ports.DiscoveryScope) (ports.Enumeration, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return ports.Enumeration{}, nil
	}
	if err != nil {
		return ports.Enumeration{}, err
	}

	type dirEntry struct {
		path  string
		mtime time.Time
	}
	var dirs []dirEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirEntry{path: filepath.Join(s.root, e.Name()), mtime: info.ModTime()})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.After(dirs[j].mtime) })

	var enum ports.Enumeration
	if scope == ports.ScopeRecent && len(dirs) > recentProjectDirs {
		dirs = dirs[:recentProjectDirs]
		enum.Capped = true
	}

	for _, dir := range dirs {
		enum.ScannedDirs = append(enum.ScannedDirs, dir.path)
		files, err := os.ReadDir(dir.path)
		if err != nil {
			continue
		}

		var stats []ports.FileStat
		for _, f := range files {
			// Only top-level .jsonl files; subdirectories hold subagent
			// transcripts that belong to their parent session.
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			stats = append(stats, ports.FileStat{
				Path:      filepath.Join(dir.path, f.Name()),
				Signature: domain.SignatureOf(info),
			})
		}
		sort.Slice(stats, func(i, j int) bool {
			return stats[i].Signature.MtimeNS > stats[j].Signature.MtimeNS
		})
		if scope == ports.ScopeRecent && len(stats) > perDirFileCap {
			stats = stats[:perDirFileCap]
			enum.Capped = true
		}
		enum.Files = append(enum.Files, stats...)
	}

	return enum, nil
}

// claudeLine is the subset of a Claude log record the lightweight parse
// cares about.
type claudeLine struct {
	SessionID string `json:"sessionId"`
	CWD       string `json:"cwd"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Role    string          `json:"role"`
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// ParseLightweight reads the head of one session file and produces a
// summary-only session: no event list, an estimated event count. Files
// without a sessionId are not sessions and yield nil.
func (s *Scanner) ParseLightweight(path string) (*domain.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)

	// Some files start with snapshot or metadata lines; scan a few lines
	// for the first one carrying a sessionId.
	var head claudeLine
	found := false
	for i := 0; i < headScanLines && scanner.Scan(); i++ {
		// Unmarshal leaves absent fields untouched, so clear the carry
		// from earlier lines before decoding the next one.
		head = claudeLine{}
		if err := json.Unmarshal(scanner.Bytes(), &head); err != nil {
			continue
		}
		if head.SessionID != "" {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	session := &domain.Session{
		ID:         head.SessionID,
		Source:     domain.SourceClaude,
		FilePath:   path,
		FileSize:   info.Size(),
		EventCount: estimateEventCount(info.Size()),
		CWD:        head.CWD,
		Repo:       domain.RepoFromCWD(head.CWD),
		EndedAt:    info.ModTime(),
	}
	if ts := parseTimestamp(head.Timestamp); !ts.IsZero() {
		session.StartedAt = ts
	}

	if head.Type == "user" {
		session.Summary = messageText(head.Message.Content)
	}
	if head.Message.Role == "assistant" && head.Message.Model != "" {
		session.Model = head.Message.Model
	}

	// Scan ahead a little for the first user message and the model name
	// when the head line did not carry them.
	for i := 0; i < titleScanLines && scanner.Scan(); i++ {
		if session.Summary != "" && session.Model != "" {
			break
		}
		var line claudeLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if session.Summary == "" && line.Type == "user" {
			session.Summary = messageText(line.Message.Content)
		}
		if session.Model == "" && line.Message.Model != "" {
			session.Model = line.Message.Model
		}
		if session.StartedAt.IsZero() {
			if ts := parseTimestamp(line.Timestamp); !ts.IsZero() {
				session.StartedAt = ts
			}
		}
	}

	session.Summary = domain.Truncate(stripTags(session.Summary), 120)
	return session, nil
}

// messageText extracts plain text from a message content field, which is
// either a string or an array of typed blocks.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// stripTags drops XML-like system tags from a summary candidate.
func stripTags(s string) string {
	for {
		open := strings.Index(s, "<")
		if open < 0 {
			break
		}
		closing := strings.Index(s[open:], ">")
		if closing < 0 {
			break
		}
		s = s[:open] + s[open+closing+1:]
	}
	return strings.TrimSpace(s)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// estimateEventCount guesses how many records a log holds from its size.
// Lightweight entries never carry exact counts; a full parse replaces the
// estimate.
func estimateEventCount(size int64) int {
	const avgRecordBytes = 512
	if size <= 0 {
		return 0
	}
	return int((size + avgRecordBytes - 1) / avgRecordBytes)
}
