// Package archive maintains durable local copies of pinned sessions. The
// upstream file may still be appended to by its owning tool, so every
// copy runs under an optimistic snapshot-compare-and-retry protocol and
// is committed with an atomic directory swap.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

const (
	infoFile     = "archive.json"
	manifestFile = "manifest.json"
	dataDir      = "data"
	registryFile = "pins.json"
	stagePrefix  = ".stage-"
	oldInfix     = ".old-"
)

// Options configures a Manager.
type Options struct {
	// Root is the archive tree root. One subdirectory per source, one
	// per pinned session under that.
	Root string
	// Quiescence is how long the upstream must stay unchanged before a
	// consistent archive is promoted to final.
	Quiescence time.Duration
	// MaxCopyAttempts bounds the snapshot-compare-and-retry loop.
	MaxCopyAttempts int
	// HashThreshold is the max file size that still gets a content hash
	// in manifest snapshots.
	HashThreshold int64
	// ResyncInterval is the steady period between automatic resyncs of
	// every pinned session.
	ResyncInterval time.Duration
	// InitialDelay postpones the first automatic resync after Start.
	InitialDelay time.Duration
}

// DefaultOptions returns the production defaults for the given root.
func DefaultOptions(root string) Options {
	return Options{
		Root:            root,
		Quiescence:      30 * time.Minute,
		MaxCopyAttempts: 4,
		HashThreshold:   1 << 20,
		ResyncInterval:  15 * time.Minute,
		InitialDelay:    10 * time.Second,
	}
}

// task is one unit of work on the sequential archive queue.
type task func()

// Manager owns the archive tree. All disk mutation goes through a single
// sequential queue so staging names and atomic swaps never race across
// sessions. Construct one per process and pass it by reference.
type Manager struct {
	opts Options

	mu   sync.RWMutex
	pins map[string]*domain.ArchiveInfo // keyed by source/id

	queue  chan task
	cancel context.CancelFunc
	done   chan struct{}

	// afterCopy, when set, runs between a copy attempt and its post-copy
	// snapshot. Test seam for exercising mid-copy upstream mutation.
	afterCopy func(attempt int)
	// beforeSwap, when set, runs in the commit window after the previous
	// canonical directory has been displaced but before the stage is
	// renamed into place. Test seam for simulating a crash mid-commit.
	beforeSwap func() error
}

var _ ports.ArchivePinner = (*Manager)(nil)

// NewManager creates a Manager rooted at opts.Root. Call Start before
// using it.
func NewManager(opts Options) *Manager {
	if opts.Quiescence <= 0 {
		opts.Quiescence = 30 * time.Minute
	}
	if opts.MaxCopyAttempts <= 0 {
		opts.MaxCopyAttempts = 4
	}
	return &Manager{
		opts:  opts,
		pins:  make(map[string]*domain.ArchiveInfo),
		queue: make(chan task, 64),
		done:  make(chan struct{}),
	}
}

// Start initializes the on-disk root, loads the pin registry, removes
// leftover staging debris from a previous crash, and starts the queue
// worker plus the periodic resync timer.
func (m *Manager) Start(ctx context.Context) error {
	if err := os.MkdirAll(m.opts.Root, 0755); err != nil {
		return fmt.Errorf("create archive root: %w", err)
	}
	if err := m.loadRegistry(); err != nil {
		return fmt.Errorf("load pin registry: %w", err)
	}
	m.cleanupLeftovers()

	ctx, m.cancel = context.WithCancel(ctx)
	go m.run(ctx)
	return nil
}

// Stop shuts the queue down and waits for the in-flight task, if any.
// A sync already running goes to a terminal state before the worker
// exits; syncs are never abandoned mid-copy.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	var timer *time.Timer
	if m.opts.ResyncInterval > 0 {
		timer = time.NewTimer(m.opts.InitialDelay)
		defer timer.Stop()
	} else {
		timer = time.NewTimer(time.Hour)
		timer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			// Drain work accepted before shutdown so an already-queued
			// sync still reaches a terminal state.
			for {
				select {
				case t := <-m.queue:
					t()
				default:
					return
				}
			}
		case t := <-m.queue:
			t()
		case <-timer.C:
			m.syncAll()
			timer.Reset(m.opts.ResyncInterval)
		}
	}
}

// errStopped rejects work submitted after Stop.
var errStopped = errors.New("archive manager stopped")

// enqueue runs fn on the sequential queue and waits for it. Once the
// worker has exited, callers get errStopped instead of blocking on a
// queue nobody drains.
func (m *Manager) enqueue(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case m.queue <- func() { errc <- fn() }:
	case <-m.done:
		return errStopped
	}
	select {
	case err := <-errc:
		return err
	case <-m.done:
		// The worker may have drained and run the task on its way out.
		select {
		case err := <-errc:
			return err
		default:
			return errStopped
		}
	}
}

func key(source domain.Source, id string) string {
	return string(source) + "/" + id
}

// Pin marks a session for durable archival and runs its first sync.
func (m *Manager) Pin(session *domain.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("cannot pin a session without an id")
	}

	info := &domain.ArchiveInfo{
		SessionID:     session.ID,
		Source:        session.Source,
		UpstreamPath:  session.FilePath,
		PinnedAt:      time.Now(),
		Status:        domain.ArchiveStaging,
		Title:         session.Title(),
		Model:         session.Model,
		CWD:           session.CWD,
		StartedAt:     session.StartedAt,
		EndedAt:       session.EndedAt,
		EstimatedSize: session.FileSize,
	}
	if fi, err := os.Stat(session.FilePath); err == nil {
		info.UpstreamIsDir = fi.IsDir()
	}
	// For a directory upstream the primary file is only known once the
	// first snapshot has been taken; sync fills it in.
	if !info.UpstreamIsDir {
		info.PrimaryRelPath = filepath.Base(session.FilePath)
	}

	m.mu.Lock()
	m.pins[key(session.Source, session.ID)] = info
	m.mu.Unlock()

	return m.enqueue(func() error {
		if err := m.saveRegistry(); err != nil {
			return err
		}
		return m.syncOne(key(session.Source, session.ID))
	})
}

// Unpin removes a session from the pin set. With removeArchive the
// committed archive tree is deleted outright; this is a plain recursive
// remove, not subject to the sync protocol.
func (m *Manager) Unpin(source domain.Source, id string, removeArchive bool) error {
	m.mu.Lock()
	_, ok := m.pins[key(source, id)]
	delete(m.pins, key(source, id))
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s/%s is not pinned", source, id)
	}

	return m.enqueue(func() error {
		if err := m.saveRegistry(); err != nil {
			return err
		}
		if removeArchive {
			return os.RemoveAll(m.canonicalDir(source, id))
		}
		return nil
	})
}

// EnsureSynced runs one sync pass for a pinned session and returns once
// it reaches a terminal state for this pass.
func (m *Manager) EnsureSynced(source domain.Source, id string) error {
	return m.enqueue(func() error { return m.syncOne(key(source, id)) })
}

// SyncAll resyncs every pinned session sequentially, waiting for all of
// them. Per-session failures are recorded on their ArchiveInfo and do
// not stop the sweep.
func (m *Manager) SyncAll() error {
	return m.enqueue(func() error {
		m.syncAll()
		return nil
	})
}

// syncAll must run on the queue worker.
func (m *Manager) syncAll() {
	m.mu.RLock()
	keys := make([]string, 0, len(m.pins))
	for k := range m.pins {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		if err := m.syncOne(k); err != nil {
			log.Printf("archive: sync %s: %v", k, err)
		}
	}
}

// Pinned returns copies of the ArchiveInfo records for one source, or for
// every source when source is empty.
func (m *Manager) Pinned(source domain.Source) []*domain.ArchiveInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var infos []*domain.ArchiveInfo
	for _, info := range m.pins {
		if source == "" || info.Source == source {
			c := *info
			infos = append(infos, &c)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].SessionID < infos[j].SessionID })
	return infos
}

// Info returns a copy of one pinned session's record, or nil.
func (m *Manager) Info(source domain.Source, id string) *domain.ArchiveInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.pins[key(source, id)]
	if !ok {
		return nil
	}
	c := *info
	return &c
}

// --- sync protocol ---

// syncOne runs the full sync algorithm for one pinned session. It always
// drives the record to a terminal state for this pass; I/O failures are
// recorded as status error and retried on the next periodic tick.
func (m *Manager) syncOne(k string) error {
	m.mu.RLock()
	info, ok := m.pins[k]
	m.mu.RUnlock()
	if !ok {
		return nil // unpinned while queued
	}

	err := m.sync(info)
	if err != nil {
		m.update(info, func(i *domain.ArchiveInfo) {
			i.Status = domain.ArchiveError
			i.LastError = err.Error()
		})
	}
	if regErr := m.saveRegistry(); regErr != nil {
		log.Printf("archive: save registry: %v", regErr)
	}
	return err
}

func (m *Manager) sync(info *domain.ArchiveInfo) error {
	canonical := m.canonicalDir(info.Source, info.SessionID)

	// Missing upstream is an expected steady state, not an error: once
	// the originating tool deletes its file, the archive is the only
	// copy left and must not be touched.
	if _, err := os.Stat(info.UpstreamPath); os.IsNotExist(err) {
		committed := m.committedPresent(info)
		m.update(info, func(i *domain.ArchiveInfo) {
			i.UpstreamMissing = true
			if committed {
				i.Status = domain.ArchiveFinal
				i.LastError = ""
			} else {
				i.Status = domain.ArchiveError
				i.LastError = "upstream disappeared before the first successful sync"
			}
		})
		return nil
	}

	before, err := Snapshot(info.UpstreamPath, m.opts.HashThreshold)
	if err != nil {
		return fmt.Errorf("snapshot upstream: %w", err)
	}

	committed, haveCommitted := m.loadManifest(canonical)
	if haveCommitted && committed.Equal(before) && m.committedPresent(info) {
		// Nothing to copy. final vs syncing is decided purely by elapsed
		// time since the last detected change.
		m.update(info, func(i *domain.ArchiveInfo) {
			i.UpstreamMissing = false
			i.LastSyncedAt = time.Now()
			i.LastError = ""
			if i.LastChangedAt.IsZero() || time.Since(i.LastChangedAt) >= m.opts.Quiescence {
				i.Status = domain.ArchiveFinal
			} else {
				i.Status = domain.ArchiveSyncing
			}
		})
		return nil
	}

	m.update(info, func(i *domain.ArchiveInfo) {
		i.UpstreamMissing = false
		i.Status = domain.ArchiveSyncing
		i.LastChangedAt = time.Now()
	})

	stage := filepath.Join(m.opts.Root, string(info.Source), stagePrefix+uuid.NewString())
	defer os.RemoveAll(stage)

	var advisory string
	snapshot := before
	stable := false
	for attempt := 0; attempt < m.opts.MaxCopyAttempts; attempt++ {
		if err := copyUpstream(info.UpstreamPath, info.UpstreamIsDir, filepath.Join(stage, dataDir)); err != nil {
			return fmt.Errorf("copy upstream: %w", err)
		}
		if m.afterCopy != nil {
			m.afterCopy(attempt)
		}
		after, err := Snapshot(info.UpstreamPath, m.opts.HashThreshold)
		if err != nil {
			return fmt.Errorf("snapshot upstream after copy: %w", err)
		}
		if after.Equal(snapshot) {
			stable = true
			break
		}
		// Upstream moved mid-copy: the new snapshot becomes the target
		// and the whole copy runs again.
		snapshot = after
	}
	if !stable {
		// Upstream is being continuously written. Commit the last copy
		// with its post-copy snapshot best-effort: availability over
		// perfection, and the advisory makes the caveat visible.
		advisory = fmt.Sprintf("upstream kept changing during %d copy attempts; archived a best-effort snapshot", m.opts.MaxCopyAttempts)
	}

	m.update(info, func(i *domain.ArchiveInfo) {
		i.LastSyncedAt = time.Now()
		i.LastError = advisory
		i.EstimatedSize = snapshot.TotalSize()
		if info.UpstreamIsDir {
			// Directory contents are copied relative to the directory
			// root, so the primary path must name a manifest entry, not
			// the directory itself.
			i.PrimaryRelPath = primaryRelPath(snapshot)
		} else {
			i.PrimaryRelPath = filepath.Base(info.UpstreamPath)
		}
	})

	if err := m.writeStageMetadata(stage, info, snapshot); err != nil {
		return fmt.Errorf("write archive metadata: %w", err)
	}
	if err := m.commit(stage, canonical); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}

	m.update(info, func(i *domain.ArchiveInfo) {
		i.Status = domain.ArchiveSyncing // freshly changed, quiescence pending
	})
	return nil
}

// writeStageMetadata completes the staged tree: metadata record plus
// manifest record alongside the copied data.
func (m *Manager) writeStageMetadata(stage string, info *domain.ArchiveInfo, manifest domain.ArchiveManifest) error {
	snapshot := m.Info(info.Source, info.SessionID)
	if snapshot == nil {
		return fmt.Errorf("pin record vanished for %s/%s", info.Source, info.SessionID)
	}
	if err := writeJSON(filepath.Join(stage, infoFile), snapshot); err != nil {
		return err
	}
	return writeJSON(filepath.Join(stage, manifestFile), manifest)
}

// commit atomically replaces the canonical directory with the staged
// tree. A concurrent reader of the canonical path sees either the old
// complete state or the new one, never a half-written mix; the displaced
// directory is removed after the swap, not before.
func (m *Manager) commit(stage, canonical string) error {
	if err := os.MkdirAll(filepath.Dir(canonical), 0755); err != nil {
		return err
	}

	old := canonical + oldInfix + uuid.NewString()
	displaced := false
	if _, err := os.Stat(canonical); err == nil {
		if err := os.Rename(canonical, old); err != nil {
			return err
		}
		displaced = true
	}

	if m.beforeSwap != nil {
		if err := m.beforeSwap(); err != nil {
			return err
		}
	}

	if err := os.Rename(stage, canonical); err != nil {
		if displaced {
			// Put the previous committed state back; the canonical path
			// must never be left absent when a commit fails.
			if rbErr := os.Rename(old, canonical); rbErr != nil {
				return fmt.Errorf("swap failed (%v) and rollback failed: %w", err, rbErr)
			}
		}
		return err
	}

	if displaced {
		os.RemoveAll(old)
	}
	return nil
}

// committedPresent reports whether the canonical directory holds a
// committed manifest and its primary data file. An empty primary path
// (a directory upstream that held no regular files) only requires the
// data directory itself.
func (m *Manager) committedPresent(info *domain.ArchiveInfo) bool {
	canonical := m.canonicalDir(info.Source, info.SessionID)
	if _, ok := m.loadManifest(canonical); !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(canonical, dataDir, filepath.FromSlash(info.PrimaryRelPath)))
	return err == nil
}

// primaryRelPath picks the manifest entry a placeholder session should
// point at: the first session log when one exists, else the first entry.
func primaryRelPath(manifest domain.ArchiveManifest) string {
	for _, e := range manifest.Entries {
		if strings.HasSuffix(e.RelativePath, ".jsonl") {
			return e.RelativePath
		}
	}
	if len(manifest.Entries) > 0 {
		return manifest.Entries[0].RelativePath
	}
	return ""
}

func (m *Manager) canonicalDir(source domain.Source, id string) string {
	return filepath.Join(m.opts.Root, string(source), id)
}

// DataPath returns the absolute path of a pinned session's primary data
// file inside the committed archive.
func (m *Manager) DataPath(info *domain.ArchiveInfo) string {
	return filepath.Join(m.canonicalDir(info.Source, info.SessionID), dataDir, filepath.FromSlash(info.PrimaryRelPath))
}

func (m *Manager) loadManifest(canonical string) (domain.ArchiveManifest, bool) {
	var manifest domain.ArchiveManifest
	data, err := os.ReadFile(filepath.Join(canonical, manifestFile))
	if err != nil {
		return manifest, false
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, false
	}
	return manifest, true
}

// update applies fn to the live pin record under the write lock.
func (m *Manager) update(info *domain.ArchiveInfo, fn func(*domain.ArchiveInfo)) {
	m.mu.Lock()
	fn(info)
	m.mu.Unlock()
}

// --- registry ---

func (m *Manager) loadRegistry() error {
	data, err := os.ReadFile(filepath.Join(m.opts.Root, registryFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var infos []*domain.ArchiveInfo
	if err := json.Unmarshal(data, &infos); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range infos {
		m.pins[key(info.Source, info.SessionID)] = info
	}
	return nil
}

// saveRegistry persists the pin set with a write-temp-then-rename so a
// crash never leaves a torn registry.
func (m *Manager) saveRegistry() error {
	m.mu.RLock()
	infos := make([]*domain.ArchiveInfo, 0, len(m.pins))
	for _, info := range m.pins {
		c := *info
		infos = append(infos, &c)
	}
	m.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool {
		return key(infos[i].Source, infos[i].SessionID) < key(infos[j].Source, infos[j].SessionID)
	})

	return writeJSON(filepath.Join(m.opts.Root, registryFile), infos)
}

// cleanupLeftovers removes staging and displaced directories orphaned by
// a crash mid-commit.
func (m *Manager) cleanupLeftovers() {
	sources, err := os.ReadDir(m.opts.Root)
	if err != nil {
		return
	}
	for _, src := range sources {
		if !src.IsDir() {
			continue
		}
		srcDir := filepath.Join(m.opts.Root, src.Name())
		entries, err := os.ReadDir(srcDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			switch {
			case strings.HasPrefix(name, stagePrefix):
				os.RemoveAll(filepath.Join(srcDir, name))
			case strings.Contains(name, oldInfix):
				// A crash between the two commit renames leaves the last
				// committed state under the displaced name with nothing at
				// the canonical path. Put it back rather than lose it.
				canonical := filepath.Join(srcDir, name[:strings.Index(name, oldInfix)])
				if _, err := os.Stat(canonical); os.IsNotExist(err) {
					os.Rename(filepath.Join(srcDir, name), canonical)
				} else {
					os.RemoveAll(filepath.Join(srcDir, name))
				}
			}
		}
	}
}

// writeJSON writes v as indented JSON via a temp file and atomic rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
