// Package codexlog scans Codex CLI session logs, which shard by date:
// <root>/YYYY/MM/DD/rollout-*.jsonl.
package codexlog

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

const (
	// recentDayDirs is the recency window: the last N dated day folders.
	recentDayDirs = 5
	// perDirFileCap bounds files listed per day folder under ScopeRecent.
	perDirFileCap = 200

	maxLineBytes = 256 * 1024
	headLines    = 50
)

// Scanner implements ports.SessionSource for Codex logs.
type Scanner struct {
	root string
}

var _ ports.SessionSource = (*Scanner)(nil)

// NewScanner creates a scanner over the given sessions root
// (conventionally ~/.codex/sessions).
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Name returns the codex source tag.
func (s *Scanner) Name() domain.Source { return domain.SourceCodex }

// Enumerate lists rollout files newest-first. The date sharding gives a
// natural recency ordering: day directories sort by their path. Under
// ScopeRecent only the last few day folders are visited.
func (s *Scanner) Enumerate(scope ports.DiscoveryScope) (ports.Enumeration, error) {
	dayDirs, err := s.dayDirs()
	if err != nil {
		return ports.Enumeration{}, err
	}

	var enum ports.Enumeration
	if scope == ports.ScopeRecent && len(dayDirs) > recentDayDirs {
		dayDirs = dayDirs[:recentDayDirs]
		enum.Capped = true
	}

	for _, dir := range dayDirs {
		enum.ScannedDirs = append(enum.ScannedDirs, dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		var stats []ports.FileStat
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			stats = append(stats, ports.FileStat{
				Path:      filepath.Join(dir, e.Name()),
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

// dayDirs returns every YYYY/MM/DD leaf directory, newest first.
func (s *Scanner) dayDirs() ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		if strings.Count(rel, string(filepath.Separator)) == 2 {
			dirs = append(dirs, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// YYYY/MM/DD paths sort lexicographically by date.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// ParseLightweight reads the head of one rollout file: the session_meta
// record carries id and cwd, the first real user message becomes the
// summary. Files without a session_meta record yield nil.
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

	var (
		sessionID string
		cwd       string
		model     string
		summary   string
		startedAt time.Time
	)

	for i := 0; i < headLines && scanner.Scan(); i++ {
		var line struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
			Payload   struct {
				ID      string          `json:"id"`
				CWD     string          `json:"cwd"`
				Model   string          `json:"model"`
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}

		switch line.Type {
		case "session_meta":
			sessionID = line.Payload.ID
			cwd = line.Payload.CWD
			if t, err := time.Parse(time.RFC3339, line.Timestamp); err == nil {
				startedAt = t
			}
		case "turn_context":
			if line.Payload.Model != "" {
				model = line.Payload.Model
			}
		case "response_item":
			if summary == "" && line.Payload.Role == "user" {
				if text := inputText(line.Payload.Content); usableSummary(text) {
					summary = text
				}
			}
		}

		if sessionID != "" && summary != "" && model != "" {
			break
		}
	}

	if sessionID == "" {
		return nil, nil
	}

	return &domain.Session{
		ID:         sessionID,
		Source:     domain.SourceCodex,
		StartedAt:  startedAt,
		EndedAt:    info.ModTime(),
		Model:      model,
		FilePath:   path,
		FileSize:   info.Size(),
		EventCount: estimateEventCount(info.Size()),
		CWD:        cwd,
		Repo:       domain.RepoFromCWD(cwd),
		Summary:    domain.Truncate(summary, 120),
	}, nil
}

// inputText extracts the first input_text block from a response_item
// content array.
func inputText(raw json.RawMessage) string {
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.Type == "input_text" && b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// usableSummary filters out environment and policy boilerplate that
// precedes the user's actual first message.
func usableSummary(text string) bool {
	if text == "" {
		return false
	}
	return !strings.Contains(text, "<environment_context>") &&
		!strings.Contains(text, "AGENTS.md") &&
		!strings.Contains(text, "<permissions") &&
		!strings.HasPrefix(text, "#")
}

func estimateEventCount(size int64) int {
	const avgRecordBytes = 512
	if size <= 0 {
		return 0
	}
	return int((size + avgRecordBytes - 1) / avgRecordBytes)
}
