package commands

import (
	"context"

	"sessionkeeper/internal/application"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// ListCommand returns indexed sessions, optionally narrowed by source and
// a substring filter
type ListCommand struct {
	catalog   ports.SessionCatalog
	SourceTag string // empty means all sources
	Filter    string
	Limit     int // 0 means no limit
}

// NewListCommand creates a new ListCommand
func NewListCommand(catalog ports.SessionCatalog, sourceTag, filter string, limit int) *ListCommand {
	return &ListCommand{
		catalog:   catalog,
		SourceTag: sourceTag,
		Filter:    filter,
		Limit:     limit,
	}
}

// Validate checks the list parameters
func (c *ListCommand) Validate() error {
	return application.ValidateSource("source", c.SourceTag)
}

// Execute runs the list command and returns sessions most recent first
func (c *ListCommand) Execute(ctx context.Context) ([]*domain.Session, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var sessions []*domain.Session
	if c.SourceTag == "" {
		sessions = c.catalog.Sessions()
	} else {
		sessions = c.catalog.SessionsFor(domain.ParseSource(c.SourceTag))
	}

	if c.Filter != "" {
		filtered := sessions[:0:0]
		for _, s := range sessions {
			if s.MatchesFilter(c.Filter) {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}

	if c.Limit > 0 && len(sessions) > c.Limit {
		sessions = sessions[:c.Limit]
	}
	return sessions, nil
}
