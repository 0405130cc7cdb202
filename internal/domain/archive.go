package domain

import "time"

// ArchiveStatus tracks the lifecycle of one pinned session's archive.
type ArchiveStatus string

const (
	ArchiveNone    ArchiveStatus = "none"
	ArchiveStaging ArchiveStatus = "staging"
	ArchiveSyncing ArchiveStatus = "syncing"
	ArchiveFinal   ArchiveStatus = "final"
	ArchiveError   ArchiveStatus = "error"
)

// ArchiveInfo is the persisted record for one pinned session. The
// denormalized display fields let the UI show an archived-only session
// without re-parsing its data.
type ArchiveInfo struct {
	SessionID       string        `json:"sessionId"`
	Source          Source        `json:"source"`
	UpstreamPath    string        `json:"upstreamPath"`
	UpstreamIsDir   bool          `json:"upstreamIsDir"`
	PrimaryRelPath  string        `json:"primaryRelPath"` // main data file inside data/
	PinnedAt        time.Time     `json:"pinnedAt"`
	LastSyncedAt    time.Time     `json:"lastSyncedAt,omitzero"`
	LastChangedAt   time.Time     `json:"lastChangedAt,omitzero"` // last detected upstream change
	UpstreamMissing bool          `json:"upstreamMissing"`
	Status          ArchiveStatus `json:"status"`
	LastError       string        `json:"lastError,omitempty"`

	// Denormalized display fields.
	Title         string    `json:"title,omitempty"`
	Model         string    `json:"model,omitempty"`
	CWD           string    `json:"cwd,omitempty"`
	StartedAt     time.Time `json:"startedAt,omitzero"`
	EndedAt       time.Time `json:"endedAt,omitzero"`
	EstimatedSize int64     `json:"estimatedSize,omitempty"`
}

// ManifestEntry describes one file inside an archived snapshot.
type ManifestEntry struct {
	RelativePath string `json:"relativePath"`
	SizeBytes    int64  `json:"sizeBytes"`
	MtimeSeconds int64  `json:"mtimeSeconds"`
	Hash         string `json:"hash,omitempty"` // sha256, only for small files
}

// ArchiveManifest is the ordered byte-level description of a snapshot.
// Two manifests comparing equal means the upstream did not change while
// it was being copied.
type ArchiveManifest struct {
	Entries []ManifestEntry `json:"entries"`
}

// Equal reports structural equality of two manifests. Order matters:
// entries are produced in a deterministic walk order, so a permutation
// means the upstream changed shape.
func (m ArchiveManifest) Equal(other ArchiveManifest) bool {
	if len(m.Entries) != len(other.Entries) {
		return false
	}
	for i, e := range m.Entries {
		if e != other.Entries[i] {
			return false
		}
	}
	return true
}

// TotalSize returns the summed size of all manifest entries.
func (m ArchiveManifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Entries {
		total += e.SizeBytes
	}
	return total
}
