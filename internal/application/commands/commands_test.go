package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// fakeCatalog serves a fixed session list and records refresh calls.
type fakeCatalog struct {
	sessions  []*domain.Session
	refreshed []string // "source/scope" per call, "*" for all-source refreshes
	err       error
}

var _ ports.SessionCatalog = (*fakeCatalog)(nil)

func (f *fakeCatalog) Refresh(ctx context.Context, scope ports.DiscoveryScope) error {
	f.refreshed = append(f.refreshed, "*/"+scope.String())
	return f.err
}

func (f *fakeCatalog) RefreshSource(ctx context.Context, source domain.Source, scope ports.DiscoveryScope) error {
	f.refreshed = append(f.refreshed, string(source)+"/"+scope.String())
	return f.err
}

func (f *fakeCatalog) Sessions() []*domain.Session {
	out := make([]*domain.Session, len(f.sessions))
	copy(out, f.sessions)
	domain.SortByRecency(out)
	return out
}

func (f *fakeCatalog) SessionsFor(source domain.Source) []*domain.Session {
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.Source == source {
			out = append(out, s)
		}
	}
	domain.SortByRecency(out)
	return out
}

func (f *fakeCatalog) Find(id string) (*domain.Session, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	var match *domain.Session
	matches := 0
	for _, s := range f.sessions {
		if len(id) >= 4 && strings.HasPrefix(s.ID, id) {
			match = s
			matches++
		}
	}
	if matches == 1 {
		return match, nil
	}
	return nil, fmt.Errorf("no session with id %q", id)
}

func (f *fakeCatalog) Filter(filter string) []*domain.Session {
	var out []*domain.Session
	for _, s := range f.Sessions() {
		if s.MatchesFilter(filter) {
			out = append(out, s)
		}
	}
	return out
}

// fakePinner tracks pins in memory.
type fakePinner struct {
	pins    map[string]*domain.ArchiveInfo
	pinErr  error
	removed []string
}

var _ ports.ArchivePinner = (*fakePinner)(nil)

func newFakePinner() *fakePinner {
	return &fakePinner{pins: make(map[string]*domain.ArchiveInfo)}
}

func (f *fakePinner) Pin(session *domain.Session) error {
	if f.pinErr != nil {
		return f.pinErr
	}
	f.pins[string(session.Source)+"/"+session.ID] = &domain.ArchiveInfo{
		SessionID:    session.ID,
		Source:       session.Source,
		UpstreamPath: session.FilePath,
		PinnedAt:     time.Now(),
	}
	return nil
}

func (f *fakePinner) Unpin(source domain.Source, id string, removeArchive bool) error {
	k := string(source) + "/" + id
	if _, ok := f.pins[k]; !ok {
		return fmt.Errorf("session %s is not pinned", id)
	}
	delete(f.pins, k)
	if removeArchive {
		f.removed = append(f.removed, k)
	}
	return nil
}

func (f *fakePinner) EnsureSynced(source domain.Source, id string) error { return nil }

func (f *fakePinner) Pinned(source domain.Source) []*domain.ArchiveInfo {
	var out []*domain.ArchiveInfo
	for _, info := range f.pins {
		if source == "" || info.Source == source {
			out = append(out, info)
		}
	}
	return out
}

func (f *fakePinner) Info(source domain.Source, id string) *domain.ArchiveInfo {
	return f.pins[string(source)+"/"+id]
}

func testSession(id string, source domain.Source, summary string, startedAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        id,
		Source:    source,
		Summary:   summary,
		StartedAt: startedAt,
		FilePath:  "/tmp/" + id + ".jsonl",
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
