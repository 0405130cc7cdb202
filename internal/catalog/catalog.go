// Package catalog orchestrates refresh cycles: delta discovery feeds the
// hydrate-or-scan engine, scan output is merged with previously known
// sessions and archive fallbacks, and the result is published as the
// current session list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"sessionkeeper/internal/archive"
	"sessionkeeper/internal/discovery"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/engine"
	"sessionkeeper/internal/ports"
)

// Options wires a Catalog's collaborators. Sources is required; Cache and
// Archives are optional and disable hydration / fallback merging when nil.
type Options struct {
	Sources    []ports.SessionSource
	Cache      ports.CatalogCache
	Archives   *archive.Manager
	Profile    engine.Profile
	RetryDelay time.Duration
	// OnProgress receives scan progress per source. Called from scan
	// goroutines; must be safe for concurrent use.
	OnProgress func(source domain.Source, processed, total int)
}

// Catalog is the in-memory session index across all sources.
type Catalog struct {
	opts    Options
	sources map[domain.Source]ports.SessionSource

	mu       sync.RWMutex
	bySource map[domain.Source]*sourceState
}

// sourceState is the per-source refresh bookkeeping. The signature map is
// only mutated by the refresh that owns this source's gate.
type sourceState struct {
	gate       sync.Mutex    // serializes refreshes for this source
	queued     chan struct{} // capacity 1: at most one refresh waiting
	generation atomic.Uint64

	mu         sync.RWMutex
	signatures map[string]domain.FileSignature
	byPath     map[string]*domain.Session
	published  []*domain.Session
	hydrated   bool
	needFull   bool
}

var _ ports.SessionCatalog = (*Catalog)(nil)

// NewCatalog builds a catalog over the given collaborators.
func NewCatalog(opts Options) *Catalog {
	if opts.Profile.Workers == 0 {
		opts.Profile = engine.ProfileInteractive
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}

	c := &Catalog{
		opts:     opts,
		sources:  make(map[domain.Source]ports.SessionSource, len(opts.Sources)),
		bySource: make(map[domain.Source]*sourceState, len(opts.Sources)),
	}
	for _, src := range opts.Sources {
		c.sources[src.Name()] = src
		c.bySource[src.Name()] = &sourceState{
			queued:     make(chan struct{}, 1),
			signatures: make(map[string]domain.FileSignature),
			byPath:     make(map[string]*domain.Session),
		}
	}
	return c
}

// Refresh runs one refresh pass over every source. Per-source failures do
// not stop the other sources; the joined error is returned at the end.
func (c *Catalog) Refresh(ctx context.Context, scope ports.DiscoveryScope) error {
	var errs []error
	for name := range c.sources {
		if err := c.RefreshSource(ctx, name, scope); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// RefreshSource runs one refresh pass for a single source. If a refresh
// is already in flight the call waits behind it; if one is already
// waiting the call coalesces into it and returns immediately. Starting a
// refresh invalidates the generation of any in-flight scan, whose results
// are then discarded.
func (c *Catalog) RefreshSource(ctx context.Context, source domain.Source, scope ports.DiscoveryScope) error {
	src, ok := c.sources[source]
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	st := c.bySource[source]

	select {
	case st.queued <- struct{}{}:
	default:
		return nil // a refresh is already waiting; this one is covered
	}
	gen := st.generation.Add(1)

	st.gate.Lock()
	defer st.gate.Unlock()
	<-st.queued

	if st.generation.Load() != gen {
		return nil // superseded while waiting
	}
	return c.refreshLocked(ctx, src, st, gen, scope)
}

// refreshLocked runs with st.gate held.
func (c *Catalog) refreshLocked(ctx context.Context, src ports.SessionSource, st *sourceState, gen uint64, scope ports.DiscoveryScope) error {
	source := src.Name()

	// A recent pass that previously hit the enumeration cap may have
	// missed changes; honor the pending drift flag by widening now.
	st.mu.Lock()
	if st.needFull && scope == ports.ScopeRecent {
		scope = ports.ScopeFull
	}
	firstRefresh := !st.hydrated
	prev := st.signatures
	st.mu.Unlock()

	delta, err := discovery.Delta(prev, src, scope)
	if err != nil {
		// The previous published list stays visible on discovery failure.
		return fmt.Errorf("discovery: %w", err)
	}

	var hydrate engine.HydrateFunc
	if firstRefresh && c.opts.Cache != nil {
		hydrate = func(context.Context) ([]*domain.Session, error) {
			return c.opts.Cache.LoadSessions(source)
		}
	}

	cfg := engine.ScanConfig{
		DiscoverFiles:    func() []string { return delta.ChangedFiles },
		ParseLightweight: c.parseFunc(src),
		Profile:          c.opts.Profile,
		ShouldContinue:   func() bool { return st.generation.Load() == gen },
		ThrottleProgress: true,
	}
	if c.opts.OnProgress != nil {
		cfg.OnProgress = func(processed, total int) {
			c.opts.OnProgress(source, processed, total)
		}
	}

	res, err := engine.HydrateOrScan(ctx, hydrate, c.opts.RetryDelay, cfg)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	// Check-before-publish: a newer refresh owns the catalog now and the
	// stale results are dropped without error.
	if st.generation.Load() != gen {
		return nil
	}

	c.publish(src, st, scope, delta, res)
	return nil
}

// parseFunc adapts a source's lightweight parser to the engine contract:
// per-file parse failures are localized, the file is simply skipped.
func (c *Catalog) parseFunc(src ports.SessionSource) func(string) *domain.Session {
	return func(path string) *domain.Session {
		s, err := src.ParseLightweight(path)
		if err != nil {
			log.Printf("catalog: parse %s: %v", path, err)
			return nil
		}
		return s
	}
}

// publish folds a refresh result into the source state: survivors keep
// their entries, changed paths are replaced wholesale, removed paths drop
// out, archive fallbacks fill in pinned sessions whose upstream vanished.
func (c *Catalog) publish(src ports.SessionSource, st *sourceState, scope ports.DiscoveryScope, delta *domain.DiscoveryDelta, res *engine.Result) {
	source := src.Name()

	st.mu.Lock()

	if res.Kind == engine.KindHydrated {
		st.byPath = make(map[string]*domain.Session, len(res.Sessions))
		for _, s := range res.Sessions {
			st.byPath[s.FilePath] = s
		}
		if c.opts.Cache != nil {
			if sigs, err := c.opts.Cache.LoadSignatures(source); err == nil && len(sigs) > 0 {
				st.signatures = sigs
			}
		}
	} else {
		for _, path := range delta.RemovedPaths {
			delete(st.byPath, path)
			delete(st.signatures, path)
		}
		// Last writer wins by path: a re-parsed session replaces the
		// prior entry outright.
		for _, s := range res.Sessions {
			st.byPath[s.FilePath] = s
		}
		for path, sig := range delta.CurrentByPath {
			st.signatures[path] = sig
		}
		if scope == ports.ScopeFull {
			// A full pass observed everything; paths it did not see are
			// gone even if they escaped RemovedPaths via a stale baseline.
			for path := range st.signatures {
				if _, ok := delta.CurrentByPath[path]; !ok {
					delete(st.signatures, path)
					delete(st.byPath, path)
				}
			}
		}
	}

	st.hydrated = true
	st.needFull = delta.DriftDetected && scope != ports.ScopeFull

	sessions := make([]*domain.Session, 0, len(st.byPath))
	for _, s := range st.byPath {
		sessions = append(sessions, s)
	}
	if c.opts.Archives != nil {
		sessions = c.opts.Archives.MergeFallbacks(sessions, source)
	} else {
		domain.SortByRecency(sessions)
	}
	st.published = sessions

	signatures := make(map[string]domain.FileSignature, len(st.signatures))
	for k, v := range st.signatures {
		signatures[k] = v
	}
	st.mu.Unlock()

	if c.opts.Cache != nil && res.Kind == engine.KindScanned {
		persisted := make([]*domain.Session, 0, len(sessions))
		for _, s := range sessions {
			if !s.Archived {
				persisted = append(persisted, s)
			}
		}
		if err := c.opts.Cache.StoreSessions(source, persisted); err != nil {
			log.Printf("catalog: store sessions for %s: %v", source, err)
		}
		if err := c.opts.Cache.StoreSignatures(source, signatures); err != nil {
			log.Printf("catalog: store signatures for %s: %v", source, err)
		}
	}
}

// Sessions returns the current published list across all sources, most
// recently modified first.
func (c *Catalog) Sessions() []*domain.Session {
	var all []*domain.Session
	for _, st := range c.bySource {
		st.mu.RLock()
		all = append(all, st.published...)
		st.mu.RUnlock()
	}
	domain.SortByRecency(all)
	return all
}

// SessionsFor returns the current published list for one source.
func (c *Catalog) SessionsFor(source domain.Source) []*domain.Session {
	st, ok := c.bySource[source]
	if !ok {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*domain.Session, len(st.published))
	copy(out, st.published)
	return out
}

// Find returns the published session with the given id, matching by full
// id first and unique prefix second.
func (c *Catalog) Find(id string) (*domain.Session, error) {
	var prefixMatch *domain.Session
	matches := 0
	for _, s := range c.Sessions() {
		if s.ID == id {
			return s, nil
		}
		if len(id) >= 4 && len(s.ID) > len(id) && s.ID[:len(id)] == id {
			prefixMatch = s
			matches++
		}
	}
	switch matches {
	case 0:
		return nil, fmt.Errorf("no session with id %q", id)
	case 1:
		return prefixMatch, nil
	default:
		return nil, fmt.Errorf("id prefix %q is ambiguous (%d matches)", id, matches)
	}
}

// Filter returns published sessions matching a substring filter.
func (c *Catalog) Filter(filter string) []*domain.Session {
	var out []*domain.Session
	for _, s := range c.Sessions() {
		if s.MatchesFilter(filter) {
			out = append(out, s)
		}
	}
	return out
}
