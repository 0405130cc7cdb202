package archive

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"sessionkeeper/internal/domain"
)

// Snapshot builds a manifest describing the exact byte-level shape of an
// upstream path. For a directory every regular file is listed by relative
// path in sorted order; for a single file the manifest has one entry.
// Files at or below hashThreshold bytes also get a content hash, so small
// files that round-trip to the same {mtime, size} are still compared by
// content.
func Snapshot(upstreamPath string, hashThreshold int64) (domain.ArchiveManifest, error) {
	info, err := os.Stat(upstreamPath)
	if err != nil {
		return domain.ArchiveManifest{}, err
	}

	if !info.IsDir() {
		entry, err := manifestEntry(upstreamPath, filepath.Base(upstreamPath), info, hashThreshold)
		if err != nil {
			return domain.ArchiveManifest{}, err
		}
		return domain.ArchiveManifest{Entries: []domain.ManifestEntry{entry}}, nil
	}

	var entries []domain.ManifestEntry
	err = filepath.WalkDir(upstreamPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(upstreamPath, path)
		if err != nil {
			return err
		}
		entry, err := manifestEntry(path, filepath.ToSlash(rel), fi, hashThreshold)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return domain.ArchiveManifest{}, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})
	return domain.ArchiveManifest{Entries: entries}, nil
}

func manifestEntry(path, rel string, info fs.FileInfo, hashThreshold int64) (domain.ManifestEntry, error) {
	entry := domain.ManifestEntry{
		RelativePath: rel,
		SizeBytes:    info.Size(),
		MtimeSeconds: info.ModTime().Unix(),
	}
	if hashThreshold > 0 && info.Size() <= hashThreshold {
		hash, err := hashFile(path)
		if err != nil {
			return entry, err
		}
		entry.Hash = hash
	}
	return entry, nil
}

// hashFile returns the hex sha256 of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
