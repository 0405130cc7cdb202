package ports

import (
	"context"

	"sessionkeeper/internal/domain"
)

// SessionCatalog is the read/refresh surface the application layer drives.
type SessionCatalog interface {
	// Refresh re-indexes every configured source under the given scope.
	Refresh(ctx context.Context, scope DiscoveryScope) error

	// RefreshSource re-indexes a single source. Concurrent calls for the
	// same source coalesce rather than queue up.
	RefreshSource(ctx context.Context, source domain.Source, scope DiscoveryScope) error

	// Sessions returns all indexed sessions, most recent first.
	Sessions() []*domain.Session

	// SessionsFor returns the indexed sessions of one source.
	SessionsFor(source domain.Source) []*domain.Session

	// Find resolves an exact ID or an unambiguous prefix of at least
	// four characters.
	Find(id string) (*domain.Session, error)

	// Filter returns sessions matching a case-insensitive substring
	// filter over title, repo and working directory.
	Filter(filter string) []*domain.Session
}

// ArchivePinner manages durable copies of pinned sessions.
type ArchivePinner interface {
	// Pin registers a session for archival and schedules its first sync.
	Pin(session *domain.Session) error

	// Unpin removes a session from the registry, optionally deleting
	// its on-disk archive.
	Unpin(source domain.Source, id string, removeArchive bool) error

	// EnsureSynced schedules a sync for one pinned session.
	EnsureSynced(source domain.Source, id string) error

	// Pinned returns the archive records for a source, or for all
	// sources when source is empty.
	Pinned(source domain.Source) []*domain.ArchiveInfo

	// Info returns the archive record for one session, or nil.
	Info(source domain.Source, id string) *domain.ArchiveInfo
}
