package commands

import (
	"context"
	"fmt"

	"sessionkeeper/internal/application"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// UnpinResult contains the result of unpinning a session
type UnpinResult struct {
	Source  domain.Source
	ID      string
	Message string
}

// UnpinCommand removes a session from the archive registry
type UnpinCommand struct {
	catalog       ports.SessionCatalog
	archives      ports.ArchivePinner
	SessionID     string
	RemoveArchive bool // also delete the on-disk archive
}

// NewUnpinCommand creates a new UnpinCommand
func NewUnpinCommand(catalog ports.SessionCatalog, archives ports.ArchivePinner, sessionID string, removeArchive bool) *UnpinCommand {
	return &UnpinCommand{
		catalog:       catalog,
		archives:      archives,
		SessionID:     sessionID,
		RemoveArchive: removeArchive,
	}
}

// Validate checks if the unpin parameters are usable
func (c *UnpinCommand) Validate() error {
	return application.ValidateRequired("sessionID", c.SessionID)
}

// Execute runs the unpin command
func (c *UnpinCommand) Execute(ctx context.Context) (*UnpinResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	source, id, err := c.resolve()
	if err != nil {
		return nil, err
	}

	if err := c.archives.Unpin(source, id, c.RemoveArchive); err != nil {
		return nil, fmt.Errorf("failed to unpin session: %w", err)
	}

	msg := fmt.Sprintf("Unpinned %s", id)
	if c.RemoveArchive {
		msg = fmt.Sprintf("Unpinned %s and removed its archive", id)
	}
	return &UnpinResult{Source: source, ID: id, Message: msg}, nil
}

// resolve finds the pinned session behind an exact ID or prefix. The
// catalog is consulted first; the registry itself is the fallback so a
// session can still be unpinned when the catalog has not been refreshed.
func (c *UnpinCommand) resolve() (domain.Source, string, error) {
	if session, err := c.catalog.Find(c.SessionID); err == nil {
		if c.archives.Info(session.Source, session.ID) == nil {
			return "", "", fmt.Errorf("%w: %s", application.ErrNotPinned, session.ID)
		}
		return session.Source, session.ID, nil
	}

	var match *domain.ArchiveInfo
	matches := 0
	for _, info := range c.archives.Pinned("") {
		if info.SessionID == c.SessionID {
			return info.Source, info.SessionID, nil
		}
		if len(c.SessionID) >= 4 && len(info.SessionID) > len(c.SessionID) &&
			info.SessionID[:len(c.SessionID)] == c.SessionID {
			match = info
			matches++
		}
	}
	switch matches {
	case 1:
		return match.Source, match.SessionID, nil
	case 0:
		return "", "", fmt.Errorf("%w: %s", application.ErrNotPinned, c.SessionID)
	default:
		return "", "", fmt.Errorf("id prefix %q is ambiguous (%d pinned matches)", c.SessionID, matches)
	}
}
