package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionkeeper/internal/application"
	"sessionkeeper/internal/domain"
)

func TestUnpinCommand_Execute(t *testing.T) {
	now := time.Now()
	session := testSession("aaaa-1111-2222", domain.SourceClaude, "fix auth bug", now)
	catalog := &fakeCatalog{sessions: []*domain.Session{session}}

	t.Run("unpins a pinned session", func(t *testing.T) {
		pinner := newFakePinner()
		if err := pinner.Pin(session); err != nil {
			t.Fatal(err)
		}
		res, err := NewUnpinCommand(catalog, pinner, session.ID, false).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ID != session.ID {
			t.Errorf("expected %s, got %s", session.ID, res.ID)
		}
		if pinner.Info(session.Source, session.ID) != nil {
			t.Error("session still pinned after unpin")
		}
		if len(pinner.removed) != 0 {
			t.Error("archive removed without RemoveArchive")
		}
	})

	t.Run("removes archive on request", func(t *testing.T) {
		pinner := newFakePinner()
		if err := pinner.Pin(session); err != nil {
			t.Fatal(err)
		}
		res, err := NewUnpinCommand(catalog, pinner, session.ID, true).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !contains(res.Message, "removed its archive") {
			t.Errorf("message should mention archive removal: %q", res.Message)
		}
		if len(pinner.removed) != 1 {
			t.Errorf("expected 1 removal, got %d", len(pinner.removed))
		}
	})

	t.Run("not pinned", func(t *testing.T) {
		pinner := newFakePinner()
		_, err := NewUnpinCommand(catalog, pinner, session.ID, false).Execute(context.Background())
		if !errors.Is(err, application.ErrNotPinned) {
			t.Errorf("expected ErrNotPinned, got %v", err)
		}
	})

	t.Run("resolves from registry when catalog is stale", func(t *testing.T) {
		// The upstream log is gone and the catalog was never refreshed,
		// so only the registry knows about the session.
		pinner := newFakePinner()
		if err := pinner.Pin(session); err != nil {
			t.Fatal(err)
		}
		empty := &fakeCatalog{}
		res, err := NewUnpinCommand(empty, pinner, session.ID, false).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Source != domain.SourceClaude {
			t.Errorf("expected claude, got %s", res.Source)
		}
	})

	t.Run("registry prefix match", func(t *testing.T) {
		pinner := newFakePinner()
		if err := pinner.Pin(session); err != nil {
			t.Fatal(err)
		}
		empty := &fakeCatalog{}
		res, err := NewUnpinCommand(empty, pinner, "aaaa", false).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ID != session.ID {
			t.Errorf("prefix resolved to wrong session: %s", res.ID)
		}
	})
}
