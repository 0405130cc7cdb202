package commands

import (
	"context"
	"testing"
	"time"

	"sessionkeeper/internal/domain"
)

func TestListCommand_Execute(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{sessions: []*domain.Session{
		testSession("aaaa-1111", domain.SourceClaude, "fix auth bug", now.Add(-1*time.Hour)),
		testSession("bbbb-2222", domain.SourceClaude, "refactor parser", now),
		testSession("cccc-3333", domain.SourceCodex, "auth middleware", now.Add(-2*time.Hour)),
	}}

	tests := []struct {
		name      string
		sourceTag string
		filter    string
		limit     int
		wantIDs   []string
	}{
		{
			name:    "all sessions most recent first",
			wantIDs: []string{"bbbb-2222", "aaaa-1111", "cccc-3333"},
		},
		{
			name:      "narrowed by source",
			sourceTag: "codex",
			wantIDs:   []string{"cccc-3333"},
		},
		{
			name:    "substring filter over summaries",
			filter:  "auth",
			wantIDs: []string{"aaaa-1111", "cccc-3333"},
		},
		{
			name:    "limit truncates after sorting",
			limit:   2,
			wantIDs: []string{"bbbb-2222", "aaaa-1111"},
		},
		{
			name:    "filter matches nothing",
			filter:  "nonexistent",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewListCommand(catalog, tt.sourceTag, tt.filter, tt.limit)
			got, err := cmd.Execute(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d sessions, got %d", len(tt.wantIDs), len(got))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("position %d: expected %s, got %s", i, want, got[i].ID)
				}
			}
		})
	}
}

func TestListCommand_Validate(t *testing.T) {
	cmd := NewListCommand(&fakeCatalog{}, "vim", "", 0)
	if err := cmd.Validate(); err == nil {
		t.Error("expected error for unknown source, got nil")
	}
}
