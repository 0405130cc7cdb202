package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sessionkeeper/internal/domain"
)

func TestWriteTriggersDebouncedRefresh(t *testing.T) {
	root := t.TempDir()

	var mu sync.Mutex
	var calls []domain.Source
	w, err := New(func(source domain.Source) {
		mu.Lock()
		calls = append(calls, source)
		mu.Unlock()
	}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.AddRoot(domain.SourceClaude, root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A burst of writes must collapse into one refresh.
	path := filepath.Join(root, "s.jsonl")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(calls)
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("refresh never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Allow a residual timer to fire, then check coalescing.
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(calls) > 2 {
		t.Errorf("burst produced %d refreshes, want 1 (2 tolerated)", len(calls))
	}
	for _, source := range calls {
		if source != domain.SourceClaude {
			t.Errorf("refresh for %s, want claude", source)
		}
	}
}

func TestMissingRootIsSkipped(t *testing.T) {
	w, err := New(func(domain.Source) {}, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.fsw.Close()

	if err := w.AddRoot(domain.SourceCodex, filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Errorf("missing root must be skipped, got %v", err)
	}
}
