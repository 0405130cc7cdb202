package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sessionkeeper/internal/application/commands"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

// RegisterReadTools adds all read-only catalog tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, catalog ports.SessionCatalog, archives ports.ArchivePinner) {
	s.AddTool(listSessionsTool(), listSessionsHandler(catalog))
	s.AddTool(sessionInfoTool(), sessionInfoHandler(catalog, archives))
	s.AddTool(searchSessionsTool(), searchSessionsHandler(catalog))
	s.AddTool(listPinnedTool(), listPinnedHandler(archives))
	s.AddTool(refreshTool(), refreshHandler(catalog))
}

// --- list_sessions ---

func listSessionsTool() mcp.Tool {
	return mcp.NewTool("list_sessions",
		mcp.WithDescription("List indexed coding sessions, most recent first. Optionally narrow to one source."),
		mcp.WithString("source",
			mcp.Description("Source to list (claude or codex). Omit to list all sources."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of sessions to return. Defaults to 20."),
		),
	)
}

func listSessionsHandler(catalog ports.SessionCatalog) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source := req.GetString("source", "")
		limit := req.GetInt("limit", 20)

		cmd := commands.NewListCommand(catalog, source, "", limit)
		sessions, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatSessions(sessions)
	}
}

// --- session_info ---

func sessionInfoTool() mcp.Tool {
	return mcp.NewTool("session_info",
		mcp.WithDescription("Show details for one session by ID or unambiguous ID prefix."),
		mcp.WithString("id",
			mcp.Description("Session ID or prefix (at least 4 characters)"),
			mcp.Required(),
		),
	)
}

func sessionInfoHandler(catalog ports.SessionCatalog, archives ports.ArchivePinner) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("id", "")
		if id == "" {
			return toolError(fmt.Errorf("id is required"))
		}

		session, err := catalog.Find(id)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "ID:      %s\n", session.ID)
		fmt.Fprintf(&sb, "Source:  %s\n", session.Source)
		fmt.Fprintf(&sb, "Title:   %s\n", session.Title())
		if session.Model != "" {
			fmt.Fprintf(&sb, "Model:   %s\n", session.Model)
		}
		if session.CWD != "" {
			fmt.Fprintf(&sb, "CWD:     %s\n", session.CWD)
		}
		if !session.StartedAt.IsZero() {
			fmt.Fprintf(&sb, "Started: %s\n", session.StartedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(&sb, "Path:    %s\n", session.FilePath)
		if session.EventCount > 0 {
			fmt.Fprintf(&sb, "Events:  %d\n", session.EventCount)
		}
		if archives != nil {
			if info := archives.Info(session.Source, session.ID); info != nil {
				fmt.Fprintf(&sb, "Pinned:  %s (%s)\n", info.PinnedAt.Format("2006-01-02 15:04"), info.Status)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- search_sessions ---

func searchSessionsTool() mcp.Tool {
	return mcp.NewTool("search_sessions",
		mcp.WithDescription("Search sessions by keyword over title, repository and working directory."),
		mcp.WithString("query",
			mcp.Description("Search query"),
			mcp.Required(),
		),
	)
}

func searchSessionsHandler(catalog ports.SessionCatalog) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}
		return formatSessions(catalog.Filter(query))
	}
}

// --- list_pinned ---

func listPinnedTool() mcp.Tool {
	return mcp.NewTool("list_pinned",
		mcp.WithDescription("List pinned sessions and their archive sync status."),
		mcp.WithString("source",
			mcp.Description("Source to list (claude or codex). Omit to list all sources."),
		),
	)
}

func listPinnedHandler(archives ports.ArchivePinner) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source := domain.ParseSource(req.GetString("source", ""))
		infos := archives.Pinned(source)
		if len(infos) == 0 {
			return mcp.NewToolResultText("No pinned sessions."), nil
		}
		var sb strings.Builder
		for _, info := range infos {
			fmt.Fprintf(&sb, "%s  %-7s  %-7s  %s\n", info.SessionID, info.Source, info.Status, info.Title)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- refresh ---

func refreshTool() mcp.Tool {
	return mcp.NewTool("refresh",
		mcp.WithDescription("Re-index session logs. A recent pass scans the newest activity; a full pass scans everything."),
		mcp.WithString("source",
			mcp.Description("Source to refresh (claude or codex). Omit to refresh all sources."),
		),
		mcp.WithBoolean("full",
			mcp.Description("Force a full pass instead of the recent window."),
		),
	)
}

func refreshHandler(catalog ports.SessionCatalog) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRefreshCommand(catalog, req.GetString("source", ""), req.GetBool("full", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatSessions(sessions []*domain.Session) (*mcp.CallToolResult, error) {
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No sessions."), nil
	}
	var sb strings.Builder
	for _, s := range sessions {
		when := ""
		if t := s.ModifiedAt(); !t.IsZero() {
			when = t.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "%s  %-7s  %-16s  %s\n", s.ID, s.Source, when, s.Title())
	}
	return mcp.NewToolResultText(sb.String()), nil
}
