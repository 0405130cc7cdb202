package ports

import "sessionkeeper/internal/domain"

// DiscoveryScope selects how much of a source tree a discovery pass
// enumerates.
type DiscoveryScope int

const (
	// ScopeFull enumerates every candidate file under the source root.
	ScopeFull DiscoveryScope = iota
	// ScopeRecent restricts enumeration to a bounded recency window and
	// may report drift when the window cap is hit.
	ScopeRecent
)

// String returns the scope name for log lines.
func (s DiscoveryScope) String() string {
	if s == ScopeFull {
		return "full"
	}
	return "recent"
}

// Enumeration is the raw result of listing a source's candidate files.
type Enumeration struct {
	// Files in the source's natural newest-first order, with their
	// signatures as observed during the listing.
	Files []FileStat
	// Capped is set when a per-directory cap cut the listing short,
	// meaning files outside the window may have changed unobserved.
	Capped bool
	// ScannedDirs lists the directories the pass actually looked at.
	// Under ScopeRecent, removal detection is restricted to these.
	ScannedDirs []string
}

// FileStat pairs a path with its observed signature.
type FileStat struct {
	Path      string
	Signature domain.FileSignature
}

// SessionSource is one supported tool's log layout: it can enumerate
// candidate files and lightweight-parse a single file into a Session.
type SessionSource interface {
	// Name returns the source tag sessions from this scanner carry.
	Name() domain.Source

	// Enumerate lists candidate files for the given scope. It must be
	// cheap enough to call on every refresh.
	Enumerate(scope DiscoveryScope) (Enumeration, error)

	// ParseLightweight produces a summary-only Session for one file.
	// It returns nil (no error) for files that are not parsable session
	// logs; such files are skipped, never fatal.
	ParseLightweight(path string) (*domain.Session, error)
}
