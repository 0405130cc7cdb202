package application

import "sessionkeeper/internal/domain"

// Re-export domain types for use by adapters
type (
	Session       = domain.Session
	Source        = domain.Source
	ArchiveInfo   = domain.ArchiveInfo
	ArchiveStatus = domain.ArchiveStatus
)

const (
	SourceClaude = domain.SourceClaude
	SourceCodex  = domain.SourceCodex
)

// ParseSource maps a stored tag back to a Source
func ParseSource(tag string) Source {
	return domain.ParseSource(tag)
}

// KnownSource reports whether tag names a supported source
func KnownSource(tag string) bool {
	switch domain.ParseSource(tag) {
	case domain.SourceClaude, domain.SourceCodex:
		return true
	default:
		return false
	}
}
