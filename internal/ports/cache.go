package ports

import "sessionkeeper/internal/domain"

// CatalogCache is the warm cache behind the hydrate path: lightweight
// sessions and the signature baseline survive process restarts so a cold
// start can skip the disk scan.
type CatalogCache interface {
	// Lifecycle
	Open(cachePath string) error
	Close() error

	// LoadSessions returns the cached lightweight sessions for a source.
	// An empty result is not an error; it simply forces a scan.
	LoadSessions(source domain.Source) ([]*domain.Session, error)

	// StoreSessions replaces the cached sessions for a source.
	StoreSessions(source domain.Source, sessions []*domain.Session) error

	// LoadSignatures returns the persisted signature baseline for a source.
	LoadSignatures(source domain.Source) (map[string]domain.FileSignature, error)

	// StoreSignatures replaces the persisted baseline for a source.
	StoreSignatures(source domain.Source, sigs map[string]domain.FileSignature) error
}
