package cmd

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"sessionkeeper/internal/application/commands"
)

var pathCopy bool

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Print the log file path of a session",
	Long: `Print the absolute path of a session's log file. For archived-only
sessions this is the durable copy under the archive tree.

Examples:
  sessionkeeper-cli path 3f2a91cc
  sessionkeeper-cli path 3f2a91cc --copy`,
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

		fmt.Println(s.FilePath)
		if pathCopy {
			if err := clipboard.WriteAll(s.FilePath); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
	pathCmd.Flags().BoolVarP(&pathCopy, "copy", "c", false, "also copy the path to the clipboard")
}
