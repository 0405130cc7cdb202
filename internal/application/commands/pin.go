package commands

import (
	"context"
	"fmt"

	"sessionkeeper/internal/application"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// PinResult contains the result of pinning a session
type PinResult struct {
	Session *domain.Session
	Info    *domain.ArchiveInfo
	Message string
}

// PinCommand registers a session for durable archival
type PinCommand struct {
	catalog   ports.SessionCatalog
	archives  ports.ArchivePinner
	SessionID string
}

// NewPinCommand creates a new PinCommand
func NewPinCommand(catalog ports.SessionCatalog, archives ports.ArchivePinner, sessionID string) *PinCommand {
	return &PinCommand{
		catalog:   catalog,
		archives:  archives,
		SessionID: sessionID,
	}
}

// Validate checks if the session can be pinned
func (c *PinCommand) Validate() error {
	return application.ValidateRequired("sessionID", c.SessionID)
}

// Execute runs the pin command
func (c *PinCommand) Execute(ctx context.Context) (*PinResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	session, err := c.catalog.Find(c.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrNotFound, err)
	}

	if c.archives.Info(session.Source, session.ID) != nil {
		return nil, fmt.Errorf("%w: %s", application.ErrAlreadyPinned, session.ID)
	}

	if err := c.archives.Pin(session); err != nil {
		return nil, fmt.Errorf("failed to pin session: %w", err)
	}

	return &PinResult{
		Session: session,
		Info:    c.archives.Info(session.Source, session.ID),
		Message: fmt.Sprintf("Pinned %s (%s)", session.ID, session.Title()),
	}, nil
}
