package domain

import (
	"os"
	"time"
)

// FileSignature is a cheap proxy for "file unchanged": modification time
// and size. Immutable value; equality is its only correctness-critical
// operation.
type FileSignature struct {
	MtimeNS int64 // modification time, unix nanoseconds
	Size    int64
}

// SignatureOf builds a signature from a stat result.
func SignatureOf(info os.FileInfo) FileSignature {
	return FileSignature{MtimeNS: info.ModTime().UnixNano(), Size: info.Size()}
}

// Mtime returns the modification time carried by the signature.
func (f FileSignature) Mtime() time.Time {
	return time.Unix(0, f.MtimeNS)
}

// DiscoveryDelta is the result of one discovery pass: which files changed
// since the previous baseline, which tracked paths disappeared, the fresh
// baseline for the next pass, and whether enumeration was capped and may
// have missed changes.
type DiscoveryDelta struct {
	ChangedFiles  []string
	RemovedPaths  []string
	CurrentByPath map[string]FileSignature
	DriftDetected bool
}
