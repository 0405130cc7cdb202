// Package config resolves paths and tunables from the environment, with
// compiled-in defaults matching the tools' conventional locations.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func init() {
	// Optional .env sidecar; absence is the normal case.
	godotenv.Load()
}

// ClaudeRoot returns the Claude Code projects root from
// SESSIONKEEPER_CLAUDE_ROOT, falling back to ~/.claude/projects.
func ClaudeRoot() string {
	if env := os.Getenv("SESSIONKEEPER_CLAUDE_ROOT"); env != "" {
		return env
	}
	return filepath.Join(homeDir(), ".claude", "projects")
}

// CodexRoot returns the Codex sessions root from
// SESSIONKEEPER_CODEX_ROOT, falling back to ~/.codex/sessions.
func CodexRoot() string {
	if env := os.Getenv("SESSIONKEEPER_CODEX_ROOT"); env != "" {
		return env
	}
	return filepath.Join(homeDir(), ".codex", "sessions")
}

// DataDir returns the directory holding the cache database and the
// archive tree, from SESSIONKEEPER_DATA_DIR or XDG data conventions.
func DataDir() string {
	if env := os.Getenv("SESSIONKEEPER_DATA_DIR"); env != "" {
		return env
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(homeDir(), ".local", "share")
	}
	return filepath.Join(dataHome, "sessionkeeper")
}

// CachePath returns the catalog cache database path.
func CachePath() string {
	return CachePathIn(DataDir())
}

// CachePathIn returns the cache database path under an explicit data dir.
func CachePathIn(dataDir string) string {
	return filepath.Join(dataDir, "catalog.db")
}

// ArchiveRoot returns the root of the pinned-session archive tree.
func ArchiveRoot() string {
	return ArchiveRootIn(DataDir())
}

// ArchiveRootIn returns the archive root under an explicit data dir.
func ArchiveRootIn(dataDir string) string {
	return filepath.Join(dataDir, "archives")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
