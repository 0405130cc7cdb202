package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sessionkeeper/internal/application/commands"
)

var pinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin a session for durable archival",
	Long: `Pin a session so a durable copy of its log is kept under the
archive tree, surviving cleanup by the originating tool.

Examples:
  sessionkeeper-cli pin 3f2a91cc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		refresh := commands.NewRefreshCommand(GetCatalog(), "", false)
		if _, err := refresh.Execute(ctx); err != nil {
			return err
		}

		pin := commands.NewPinCommand(GetCatalog(), GetArchives(), args[0])
		result, err := pin.Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var (
	unpinRemove bool
)

var unpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Unpin a session",
	Long: `Unpin a session. The archived copy stays on disk unless --remove
is given.

Examples:
  sessionkeeper-cli unpin 3f2a91cc
  sessionkeeper-cli unpin 3f2a91cc --remove`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unpin := commands.NewUnpinCommand(GetCatalog(), GetArchives(), args[0], unpinRemove)
		result, err := unpin.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(unpinCmd)
	unpinCmd.Flags().BoolVar(&unpinRemove, "remove", false, "also delete the archived copy from disk")
}
