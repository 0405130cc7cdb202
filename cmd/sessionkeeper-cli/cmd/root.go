package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/adapters/claudelog"
	"sessionkeeper/internal/adapters/codexlog"
	"sessionkeeper/internal/adapters/sqlite"
	"sessionkeeper/internal/archive"
	"sessionkeeper/internal/catalog"
	"sessionkeeper/internal/config"
	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"
)

var (
	claudeRoot string
	codexRoot  string
	dataDir    string

	cache      *sqlite.Cache
	archives   *archive.Manager
	sessionCat ports.SessionCatalog

	// showProgress enables scan progress on stderr; set by commands that
	// want it before they execute.
	showProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "sessionkeeper-cli",
	Short: "CLI for browsing and archiving coding sessions",
	Long: `sessionkeeper-cli indexes the session logs written by Claude Code and
Codex, keeps a warm cache for instant listings, and maintains durable
archives of pinned sessions that survive upstream cleanup.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		teardown()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&claudeRoot, "claude-root", config.ClaudeRoot(), "Claude Code projects directory")
	rootCmd.PersistentFlags().StringVar(&codexRoot, "codex-root", config.CodexRoot(), "Codex sessions directory")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", config.DataDir(), "directory for the cache and archives")
}

func setup() error {
	cache = sqlite.NewCache()
	if err := cache.Open(config.CachePathIn(dataDir)); err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	archives = archive.NewManager(archive.DefaultOptions(config.ArchiveRootIn(dataDir)))
	if err := archives.Start(context.Background()); err != nil {
		return fmt.Errorf("start archive manager: %w", err)
	}

	sessionCat = catalog.NewCatalog(catalog.Options{
		Sources: []ports.SessionSource{
			claudelog.NewScanner(claudeRoot),
			codexlog.NewScanner(codexRoot),
		},
		Cache:    cache,
		Archives: archives,
		OnProgress: func(source domain.Source, processed, total int) {
			if !showProgress {
				return
			}
			fmt.Fprintf(os.Stderr, "\r%s: %d/%d", source, processed, total)
			if processed >= total {
				fmt.Fprintln(os.Stderr)
			}
		},
	})
	return nil
}

func teardown() {
	if archives != nil {
		archives.Stop()
		archives = nil
	}
	if cache != nil {
		cache.Close()
		cache = nil
	}
}

// GetCatalog returns the initialized catalog
func GetCatalog() ports.SessionCatalog {
	return sessionCat
}

// GetArchives returns the initialized archive manager
func GetArchives() ports.ArchivePinner {
	return archives
}
