package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/domain"
)

var archivesSource string

var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List pinned sessions and their sync status",
	Long: `List every pinned session with its archive status.

Status values:
  staging  first copy is still being taken
  syncing  upstream changed recently, archive tracks it
  final    archive is quiescent or the upstream is gone
  error    last sync attempt failed (retried periodically)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := GetArchives().Pinned(domain.ParseSource(archivesSource))
		if len(infos) == 0 {
			fmt.Println("No pinned sessions.")
			return nil
		}
		for _, info := range infos {
			synced := "never"
			if !info.LastSyncedAt.IsZero() {
				synced = info.LastSyncedAt.Format("2006-01-02 15:04")
			}
			missing := ""
			if info.UpstreamMissing {
				missing = dimStyle.Render("  (upstream gone)")
			}
			fmt.Printf("%s  %s  %-7s  synced %s  %s%s\n",
				dimStyle.Render(shortID(info.SessionID)), sourceTag(string(info.Source)),
				statusTag(string(info.Status)), synced, info.Title, missing)
			if info.LastError != "" {
				fmt.Printf("          %s\n", errStyle.Render(info.LastError))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archivesCmd)
	archivesCmd.Flags().StringVarP(&archivesSource, "source", "s", "", "only list this source (claude or codex)")
}
