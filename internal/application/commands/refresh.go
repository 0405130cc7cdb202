package commands

import (
	"context"
	"fmt"

	"sessionkeeper/internal/application"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// RefreshResult contains the result of a catalog refresh
type RefreshResult struct {
	Sessions int
	Message  string
}

// RefreshCommand re-indexes one source, or all of them
type RefreshCommand struct {
	catalog   ports.SessionCatalog
	SourceTag string // empty means all sources
	Full      bool   // force a full pass instead of the recent window
}

// NewRefreshCommand creates a new RefreshCommand
func NewRefreshCommand(catalog ports.SessionCatalog, sourceTag string, full bool) *RefreshCommand {
	return &RefreshCommand{
		catalog:   catalog,
		SourceTag: sourceTag,
		Full:      full,
	}
}

// Validate checks the refresh parameters
func (c *RefreshCommand) Validate() error {
	return application.ValidateSource("source", c.SourceTag)
}

// Execute runs the refresh command
func (c *RefreshCommand) Execute(ctx context.Context) (*RefreshResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	scope := ports.ScopeRecent
	if c.Full {
		scope = ports.ScopeFull
	}

	if c.SourceTag == "" {
		if err := c.catalog.Refresh(ctx, scope); err != nil {
			return nil, fmt.Errorf("failed to refresh catalog: %w", err)
		}
		n := len(c.catalog.Sessions())
		return &RefreshResult{
			Sessions: n,
			Message:  fmt.Sprintf("Indexed %d sessions", n),
		}, nil
	}

	source := domain.ParseSource(c.SourceTag)
	if err := c.catalog.RefreshSource(ctx, source, scope); err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", source, err)
	}
	n := len(c.catalog.SessionsFor(source))
	return &RefreshResult{
		Sessions: n,
		Message:  fmt.Sprintf("Indexed %d %s sessions", n, source),
	}, nil
}
