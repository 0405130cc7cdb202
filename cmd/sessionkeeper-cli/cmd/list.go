package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/application/commands"
)

var (
	listSource string
	listFilter string
	listLimit  int
	listFull   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed sessions, most recent first",
	Long: `List indexed sessions across all sources.

The index is refreshed before listing: a recent pass by default,
a full pass with --full.

Examples:
  sessionkeeper-cli list
  sessionkeeper-cli list --source codex --limit 10
  sessionkeeper-cli list --filter myrepo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		refresh := commands.NewRefreshCommand(GetCatalog(), listSource, listFull)
		if _, err := refresh.Execute(ctx); err != nil {
			return err
		}

		list := commands.NewListCommand(GetCatalog(), listSource, listFilter, listLimit)
		sessions, err := list.Execute(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}

		archives := GetArchives()
		for _, s := range sessions {
			when := ""
			if t := s.ModifiedAt(); !t.IsZero() {
				when = t.Format("2006-01-02 15:04")
			}
			pin := "  "
			if archives.Info(s.Source, s.ID) != nil {
				pin = pinnedStyle.Render("* ")
			}
			fmt.Printf("%s%s  %s  %s  %s\n",
				pin, dimStyle.Render(shortID(s.ID)), sourceTag(string(s.Source)), when, s.Title())
		}
		return nil
	},
}

// shortID trims a session ID for column display; Find accepts the prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSource, "source", "s", "", "only list this source (claude or codex)")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "substring filter over title, repo and cwd")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum sessions to show")
	listCmd.Flags().BoolVar(&listFull, "full", false, "run a full index pass before listing")
}
