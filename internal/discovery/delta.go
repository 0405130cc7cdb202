// Package discovery computes the changed/removed file delta between two
// passes over a source tree, using {mtime, size} signatures as a cheap
// proxy for content changes.
package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// Delta enumerates the source at the given scope and compares every
// observed file against the previous baseline. Changed files keep the
// enumeration's natural newest-first order; they are never re-sorted here
// because that order decides which sessions populate first.
//
// Under ScopeRecent, removal detection only considers baseline paths that
// fall inside the directories the pass actually scanned; a path outside
// this pass's window is unknown, not removed.
func Delta(prev map[string]domain.FileSignature, src ports.SessionSource, scope ports.DiscoveryScope) (*domain.DiscoveryDelta, error) {
	enum, err := src.Enumerate(scope)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", src.Name(), err)
	}

	delta := &domain.DiscoveryDelta{
		CurrentByPath: make(map[string]domain.FileSignature, len(enum.Files)),
		DriftDetected: enum.Capped,
	}

	for _, fs := range enum.Files {
		delta.CurrentByPath[fs.Path] = fs.Signature
		if prevSig, ok := prev[fs.Path]; !ok || prevSig != fs.Signature {
			delta.ChangedFiles = append(delta.ChangedFiles, fs.Path)
		}
	}

	for path := range prev {
		if _, ok := delta.CurrentByPath[path]; ok {
			continue
		}
		if scope == ports.ScopeRecent && !withinDirs(path, enum.ScannedDirs) {
			continue
		}
		delta.RemovedPaths = append(delta.RemovedPaths, path)
	}
	sort.Strings(delta.RemovedPaths)

	return delta, nil
}

// withinDirs reports whether path sits under any of the given directories.
func withinDirs(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
