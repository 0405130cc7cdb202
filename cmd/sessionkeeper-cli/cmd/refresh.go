package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/application/commands"
)

var (
	refreshSource string
	refreshFull   bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-index session logs",
	Long: `Re-index session logs and persist the result to the warm cache.

A recent pass only scans the newest activity; --full walks every
candidate file.

Examples:
  sessionkeeper-cli refresh
  sessionkeeper-cli refresh --full
  sessionkeeper-cli refresh --source claude`,
	RunE: func(cmd *cobra.Command, args []string) error {
		showProgress = true
		refresh := commands.NewRefreshCommand(GetCatalog(), refreshSource, refreshFull)
		result, err := refresh.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().StringVarP(&refreshSource, "source", "s", "", "only refresh this source (claude or codex)")
	refreshCmd.Flags().BoolVar(&refreshFull, "full", false, "walk every candidate file, not just recent activity")
}
