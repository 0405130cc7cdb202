package commands

import (
	"context"
	"testing"
	"time"

	"sessionkeeper/internal/domain"
)

func TestRefreshCommand_Validate(t *testing.T) {
	tests := []struct {
		name      string
		sourceTag string
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "empty source means all",
			sourceTag: "",
			wantErr:   false,
		},
		{
			name:      "claude",
			sourceTag: "claude",
			wantErr:   false,
		},
		{
			name:      "codex",
			sourceTag: "codex",
			wantErr:   false,
		},
		{
			name:      "unknown source",
			sourceTag: "cursor",
			wantErr:   true,
			errMsg:    "unknown source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &RefreshCommand{SourceTag: tt.sourceTag}
			err := cmd.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRefreshCommand_Execute(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{sessions: []*domain.Session{
		testSession("aaaa-1111", domain.SourceClaude, "first", now),
		testSession("bbbb-2222", domain.SourceCodex, "second", now),
	}}

	t.Run("all sources, recent scope", func(t *testing.T) {
		catalog.refreshed = nil
		res, err := NewRefreshCommand(catalog, "", false).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Sessions != 2 {
			t.Errorf("expected 2 sessions, got %d", res.Sessions)
		}
		if len(catalog.refreshed) != 1 || catalog.refreshed[0] != "*/recent" {
			t.Errorf("expected one recent all-source refresh, got %v", catalog.refreshed)
		}
	})

	t.Run("single source, full scope", func(t *testing.T) {
		catalog.refreshed = nil
		res, err := NewRefreshCommand(catalog, "codex", true).Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Sessions != 1 {
			t.Errorf("expected 1 codex session, got %d", res.Sessions)
		}
		if len(catalog.refreshed) != 1 || catalog.refreshed[0] != "codex/full" {
			t.Errorf("expected one full codex refresh, got %v", catalog.refreshed)
		}
	})
}
