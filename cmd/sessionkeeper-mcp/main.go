package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sessionkeeper/internal/adapters/claudelog"
	"sessionkeeper/internal/adapters/codexlog"
	mcpadapter "sessionkeeper/internal/adapters/mcp"
	"sessionkeeper/internal/adapters/sqlite"
	"sessionkeeper/internal/archive"
	"sessionkeeper/internal/catalog"
	"sessionkeeper/internal/config"
	"sessionkeeper/internal/engine"
	"sessionkeeper/internal/ports"
)

func main() {
	claudeFlag := flag.String("claude-root", config.ClaudeRoot(), "Claude Code projects directory")
	codexFlag := flag.String("codex-root", config.CodexRoot(), "Codex sessions directory")
	dataFlag := flag.String("data-dir", config.DataDir(), "directory for the cache and archives")
	flag.Parse()

	cache := sqlite.NewCache()
	if err := cache.Open(config.CachePathIn(*dataFlag)); err != nil {
		log.Fatalf("sessionkeeper-mcp: open cache: %v", err)
	}
	defer cache.Close()

	archives := archive.NewManager(archive.DefaultOptions(config.ArchiveRootIn(*dataFlag)))
	if err := archives.Start(context.Background()); err != nil {
		log.Fatalf("sessionkeeper-mcp: start archive manager: %v", err)
	}
	defer archives.Stop()

	cat := catalog.NewCatalog(catalog.Options{
		Sources: []ports.SessionSource{
			claudelog.NewScanner(*claudeFlag),
			codexlog.NewScanner(*codexFlag),
		},
		Cache:    cache,
		Archives: archives,
		// Tool calls run inside an agent turn; keep the scan light.
		Profile: engine.ProfileLightBackground,
	})

	mcpServer := server.NewMCPServer(
		"sessionkeeper-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, cat, archives)
	mcpadapter.RegisterWriteTools(mcpServer, cat, archives)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("sessionkeeper-mcp: %v", err)
	}
}
