package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sessionkeeper/internal/application/commands"
	"sessionkeeper/internal/ports"
)

// RegisterWriteTools adds the archive-mutating tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, catalog ports.SessionCatalog, archives ports.ArchivePinner) {
	s.AddTool(pinTool(), pinHandler(catalog, archives))
	s.AddTool(unpinTool(), unpinHandler(catalog, archives))
}

// --- pin_session ---

func pinTool() mcp.Tool {
	return mcp.NewTool("pin_session",
		mcp.WithDescription("Pin a session so a durable copy is kept even after the originating tool deletes its log."),
		mcp.WithString("id",
			mcp.Description("Session ID or unambiguous prefix (at least 4 characters)"),
			mcp.Required(),
		),
	)
}

func pinHandler(catalog ports.SessionCatalog, archives ports.ArchivePinner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewPinCommand(catalog, archives, req.GetString("id", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- unpin_session ---

func unpinTool() mcp.Tool {
	return mcp.NewTool("unpin_session",
		mcp.WithDescription("Unpin a session. The on-disk archive is kept unless remove_archive is set."),
		mcp.WithString("id",
			mcp.Description("Session ID or unambiguous prefix"),
			mcp.Required(),
		),
		mcp.WithBoolean("remove_archive",
			mcp.Description("Also delete the archived copy from disk."),
		),
	)
}

func unpinHandler(catalog ports.SessionCatalog, archives ports.ArchivePinner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewUnpinCommand(catalog, archives, req.GetString("id", ""), req.GetBool("remove_archive", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
