package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/adapters/claudelog"
	"sessionkeeper/internal/adapters/codexlog"
	"sessionkeeper/internal/adapters/sqlite"
	"sessionkeeper/internal/adapters/watcher"
	"sessionkeeper/internal/archive"
	"sessionkeeper/internal/catalog"
	"sessionkeeper/internal/config"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/engine"
	"sessionkeeper/internal/ports"
)

var (
	claudeRoot   string
	codexRoot    string
	dataDir      string
	debounceMS   int
	fullInterval time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sessionkeeperd",
		Short: "Background indexer and archive syncer for coding sessions",
		Long: `sessionkeeperd watches the session log directories, keeps the
catalog cache warm, and syncs the archives of pinned sessions.`,
		RunE: runDaemon,
	}

	rootCmd.Flags().StringVar(&claudeRoot, "claude-root", config.ClaudeRoot(), "Claude Code projects directory")
	rootCmd.Flags().StringVar(&codexRoot, "codex-root", config.CodexRoot(), "Codex sessions directory")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", config.DataDir(), "directory for the cache and archives")
	rootCmd.Flags().IntVar(&debounceMS, "debounce", 500, "watcher debounce in milliseconds")
	rootCmd.Flags().DurationVar(&fullInterval, "full-interval", 30*time.Minute, "interval between full index passes")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Printf("starting: claude=%s codex=%s data=%s", claudeRoot, codexRoot, dataDir)

	cache := sqlite.NewCache()
	if err := cache.Open(config.CachePathIn(dataDir)); err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	archives := archive.NewManager(archive.DefaultOptions(config.ArchiveRootIn(dataDir)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := archives.Start(ctx); err != nil {
		return fmt.Errorf("start archive manager: %w", err)
	}
	defer archives.Stop()

	cat := catalog.NewCatalog(catalog.Options{
		Sources: []ports.SessionSource{
			claudelog.NewScanner(claudeRoot),
			codexlog.NewScanner(codexRoot),
		},
		Cache:    cache,
		Archives: archives,
		Profile:  engine.ProfileLightBackground,
	})

	w, err := watcher.New(func(source domain.Source) {
		if err := cat.RefreshSource(ctx, source, ports.ScopeRecent); err != nil {
			log.Printf("refresh %s: %v", source, err)
		}
	}, time.Duration(debounceMS)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.AddRoot(domain.SourceClaude, claudeRoot); err != nil {
		log.Printf("watch %s: %v", claudeRoot, err)
	}
	if err := w.AddRoot(domain.SourceCodex, codexRoot); err != nil {
		log.Printf("watch %s: %v", codexRoot, err)
	}
	go w.Run(ctx)

	// Initial pass walks everything so the cache starts complete.
	if err := cat.Refresh(ctx, ports.ScopeFull); err != nil {
		log.Printf("initial index: %v", err)
	}

	// Periodic full passes pick up whatever the watcher and the recent
	// window missed.
	fullTicker := time.NewTicker(fullInterval)
	defer fullTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Println("running")
	for {
		select {
		case <-fullTicker.C:
			if err := cat.Refresh(ctx, ports.ScopeFull); err != nil {
				log.Printf("full index: %v", err)
			}
		case sig := <-sigCh:
			log.Printf("received %v, shutting down", sig)
			cancel()
			return nil
		}
	}
}
