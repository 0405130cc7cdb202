package engine

import (
	"sync"
	"time"
)

// ProgressFunc receives catalog-facing progress updates.
type ProgressFunc func(processed, total int)

// ProgressThrottler coalesces a burst of progress events into a bounded
// rate of UI-facing updates. The final event (processed == total) is
// always delivered so consumers can rely on seeing completion.
type ProgressThrottler struct {
	minInterval time.Duration
	fn          ProgressFunc

	mu   sync.Mutex
	last time.Time
}

// NewProgressThrottler wraps fn so it fires at most once per minInterval.
func NewProgressThrottler(minInterval time.Duration, fn ProgressFunc) *ProgressThrottler {
	return &ProgressThrottler{minInterval: minInterval, fn: fn}
}

// Report forwards the event if enough time has passed since the last
// forwarded one, or if this is the terminal event. Dropped events are
// coalesced, not queued.
func (t *ProgressThrottler) Report(processed, total int) {
	if t.fn == nil {
		return
	}

	t.mu.Lock()
	now := time.Now()
	final := processed >= total
	if !final && now.Sub(t.last) < t.minInterval {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()

	t.fn(processed, total)
}
