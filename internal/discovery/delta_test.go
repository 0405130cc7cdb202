package discovery

import (
	"reflect"
	"testing"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// stubSource returns a canned enumeration per scope.
type stubSource struct {
	enum ports.Enumeration
	err  error
}

func (s *stubSource) Name() domain.Source { return domain.SourceClaude }

func (s *stubSource) Enumerate(ports.DiscoveryScope) (ports.Enumeration, error) {
	return s.enum, s.err
}

func (s *stubSource) ParseLightweight(string) (*domain.Session, error) { return nil, nil }

func sig(mtime, size int64) domain.FileSignature {
	return domain.FileSignature{MtimeNS: mtime, Size: size}
}

func TestDeltaFirstPassEverythingChanged(t *testing.T) {
	src := &stubSource{enum: ports.Enumeration{Files: []ports.FileStat{
		{Path: "/logs/b.jsonl", Signature: sig(200, 10)},
		{Path: "/logs/a.jsonl", Signature: sig(100, 5)},
	}}}

	delta, err := Delta(nil, src, ports.ScopeFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"/logs/b.jsonl", "/logs/a.jsonl"}
	if !reflect.DeepEqual(delta.ChangedFiles, want) {
		t.Errorf("ChangedFiles = %v, want %v (enumeration order preserved)", delta.ChangedFiles, want)
	}
	if len(delta.RemovedPaths) != 0 {
		t.Errorf("RemovedPaths = %v, want empty", delta.RemovedPaths)
	}
	if len(delta.CurrentByPath) != 2 {
		t.Errorf("CurrentByPath has %d entries, want 2", len(delta.CurrentByPath))
	}
}

func TestDeltaIdempotent(t *testing.T) {
	enum := ports.Enumeration{Files: []ports.FileStat{
		{Path: "/logs/a.jsonl", Signature: sig(100, 5)},
	}}
	src := &stubSource{enum: enum}

	first, err := Delta(nil, src, ports.ScopeFull)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second, err := Delta(first.CurrentByPath, src, ports.ScopeFull)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(second.ChangedFiles) != 0 {
		t.Errorf("unchanged filesystem must yield no changes, got %v", second.ChangedFiles)
	}
}

func TestDeltaDetectsSignatureChange(t *testing.T) {
	prev := map[string]domain.FileSignature{"/logs/a.jsonl": sig(100, 100)}

	tests := []struct {
		name string
		next domain.FileSignature
		want int
	}{
		{"size grew", sig(100, 140), 1},
		{"mtime advanced", sig(200, 100), 1},
		{"identical", sig(100, 100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{enum: ports.Enumeration{Files: []ports.FileStat{
				{Path: "/logs/a.jsonl", Signature: tt.next},
			}}}
			delta, err := Delta(prev, src, ports.ScopeFull)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(delta.ChangedFiles) != tt.want {
				t.Errorf("got %d changed files, want %d", len(delta.ChangedFiles), tt.want)
			}
		})
	}
}

func TestDeltaRemovedFullScope(t *testing.T) {
	prev := map[string]domain.FileSignature{
		"/logs/a.jsonl": sig(100, 5),
		"/logs/b.jsonl": sig(200, 6),
	}
	src := &stubSource{enum: ports.Enumeration{Files: []ports.FileStat{
		{Path: "/logs/a.jsonl", Signature: sig(100, 5)},
	}}}

	delta, err := Delta(prev, src, ports.ScopeFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(delta.RemovedPaths, []string{"/logs/b.jsonl"}) {
		t.Errorf("RemovedPaths = %v, want [/logs/b.jsonl]", delta.RemovedPaths)
	}
}

func TestDeltaRecentScopeRestrictsRemoval(t *testing.T) {
	// b.jsonl lives outside the scanned window; it must not be declared
	// removed just because this pass did not look at it.
	prev := map[string]domain.FileSignature{
		"/logs/recent/a.jsonl": sig(100, 5),
		"/logs/old/b.jsonl":    sig(50, 3),
	}
	src := &stubSource{enum: ports.Enumeration{
		Files:       nil, // a.jsonl gone from the window
		ScannedDirs: []string{"/logs/recent"},
	}}

	delta, err := Delta(prev, src, ports.ScopeRecent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(delta.RemovedPaths, []string{"/logs/recent/a.jsonl"}) {
		t.Errorf("RemovedPaths = %v, want only the in-window path", delta.RemovedPaths)
	}
}

func TestDeltaDriftFlag(t *testing.T) {
	src := &stubSource{enum: ports.Enumeration{Capped: true}}

	delta, err := Delta(nil, src, ports.ScopeRecent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !delta.DriftDetected {
		t.Error("capped enumeration must set DriftDetected")
	}
}
