package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/application/commands"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details for one session",
	Long: `Show details for a session by its ID or an unambiguous prefix
of at least four characters.

Examples:
  sessionkeeper-cli show 3f2a91cc
  sessionkeeper-cli show 3f2a91cc-0b1d-4c6e-9a77-d41a2b3c4d5e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		refresh := commands.NewRefreshCommand(GetCatalog(), "", false)
		if _, err := refresh.Execute(ctx); err != nil {
			return err
		}

		s, err := GetCatalog().Find(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %s\n", s.ID)
		fmt.Printf("Source:  %s\n", sourceTag(string(s.Source)))
		fmt.Printf("Title:   %s\n", s.Title())
		if s.Model != "" {
			fmt.Printf("Model:   %s\n", s.Model)
		}
		if s.Repo != "" {
			fmt.Printf("Repo:    %s\n", s.Repo)
		}
		if s.CWD != "" {
			fmt.Printf("CWD:     %s\n", s.CWD)
		}
		if !s.StartedAt.IsZero() {
			fmt.Printf("Started: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
		}
		if !s.EndedAt.IsZero() {
			fmt.Printf("Ended:   %s\n", s.EndedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Path:    %s\n", s.FilePath)
		if s.EventCount > 0 {
			fmt.Printf("Events:  %d\n", s.EventCount)
		}
		if s.Archived {
			fmt.Println(pinnedStyle.Render("Archived copy (upstream log is gone)"))
		}
		if info := GetArchives().Info(s.Source, s.ID); info != nil {
			fmt.Printf("Pinned:  %s  status %s\n", info.PinnedAt.Format("2006-01-02 15:04"), statusTag(string(info.Status)))
			if info.LastError != "" {
				fmt.Printf("Sync:    %s\n", errStyle.Render(info.LastError))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
