// Package engine runs one indexing pass: hydrate from a warm cache when
// possible, otherwise scan changed files with a bounded worker pool that
// preserves input order.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"sessionkeeper/internal/domain"
)

// ResultKind says which path produced a Result.
type ResultKind int

const (
	// KindHydrated means the warm cache answered and no scan ran.
	KindHydrated ResultKind = iota
	// KindScanned means files were parsed from disk.
	KindScanned
)

// Result is the unified output of HydrateOrScan.
type Result struct {
	Kind       ResultKind
	Sessions   []*domain.Session
	TotalFiles int
}

// HydrateFunc is an optional warm-cache read. A nil or empty slice (or an
// error) triggers the scan fallback.
type HydrateFunc func(ctx context.Context) ([]*domain.Session, error)

// ScanConfig bundles everything one scan invocation needs. Constructed
// once per refresh and discarded after.
type ScanConfig struct {
	// DiscoverFiles returns the files to parse, already filtered to
	// "changed" by delta discovery upstream. Order is preserved in the
	// output.
	DiscoverFiles func() []string

	// ParseLightweight parses one file. A nil session means the file is
	// not a parsable log; it is skipped, never fatal.
	ParseLightweight func(path string) *domain.Session

	Profile Profile

	// ShouldContinue is polled before each batch; returning false
	// abandons the remaining files without error.
	ShouldContinue func() bool

	// OnProgress receives (processed, total) updates.
	OnProgress ProgressFunc

	// ThrottleProgress routes OnProgress through a ProgressThrottler
	// instead of reporting after every batch.
	ThrottleProgress bool

	// OnSession runs for each successfully parsed session, in input
	// order, before the final sort.
	OnSession func(*domain.Session)

	// MergeFallbacks, when set, is applied to the scanned sessions before
	// the result is returned (archive placeholder injection).
	MergeFallbacks func([]*domain.Session) []*domain.Session
}

// HydrateOrScan tries the warm cache first, then falls back to a
// concurrent bounded-worker scan of cfg.DiscoverFiles().
//
// A supplied hydrate function gets exactly two chances: one immediate
// call, and one more after retryDelay if the first returned nothing. A
// cache that is mid-write on cold start usually answers the second call.
func HydrateOrScan(ctx context.Context, hydrate HydrateFunc, retryDelay time.Duration, cfg ScanConfig) (*Result, error) {
	if hydrate != nil {
		sessions, err := hydrate(ctx)
		if err != nil || len(sessions) == 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			sessions, err = hydrate(ctx)
		}
		if err == nil && len(sessions) > 0 {
			return &Result{Kind: KindHydrated, Sessions: sessions, TotalFiles: len(sessions)}, nil
		}
	}

	return scan(ctx, cfg)
}

// indexed carries one parse result back from a worker with its original
// position, so completed work can be re-sorted before it is appended.
type indexed struct {
	index   int
	session *domain.Session
}

func scan(ctx context.Context, cfg ScanConfig) (*Result, error) {
	profile := cfg.Profile.normalized()
	files := cfg.DiscoverFiles()
	total := len(files)

	report := cfg.OnProgress
	if report == nil {
		report = func(int, int) {}
	} else if cfg.ThrottleProgress {
		report = NewProgressThrottler(100*time.Millisecond, report).Report
	}
	report(0, total)

	var sessions []*domain.Session
	processed := 0
	sinceYield := 0

	for start := 0; start < total; start += profile.Workers {
		if cfg.ShouldContinue != nil && !cfg.ShouldContinue() {
			break
		}

		end := start + profile.Workers
		if end > total {
			end = total
		}
		batch := files[start:end]

		results := make(chan indexed, len(batch))
		var wg sync.WaitGroup
		for i, path := range batch {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				results <- indexed{index: i, session: cfg.ParseLightweight(path)}
			}(i, path)
		}
		wg.Wait()
		close(results)

		// Workers finish in any order; re-sort by original index so
		// concurrency never reorders the output.
		completed := make([]indexed, 0, len(batch))
		for r := range results {
			completed = append(completed, r)
		}
		sort.Slice(completed, func(i, j int) bool {
			return completed[i].index < completed[j].index
		})

		for _, r := range completed {
			if r.session == nil {
				continue
			}
			if cfg.OnSession != nil {
				cfg.OnSession(r.session)
			}
			sessions = append(sessions, r.session)
		}

		processed += len(batch)
		sinceYield += len(batch)
		report(processed, total)

		if profile.InterSliceYield > 0 && sinceYield >= profile.SliceSize && processed < total {
			sinceYield = 0
			select {
			case <-time.After(profile.InterSliceYield):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	domain.SortByRecency(sessions)
	if cfg.MergeFallbacks != nil {
		sessions = cfg.MergeFallbacks(sessions)
	}

	return &Result{Kind: KindScanned, Sessions: sessions, TotalFiles: total}, nil
}
