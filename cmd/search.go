package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/ui"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [message]",
	Short: "Answer one search message, e.g. \"bluetooth speaker, amazon\"",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("format", "cards", "Output format: cards, table, json")
	rankingFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}

	message := strings.Join(args, " ")
	format, _ := cmd.Flags().GetString("format")

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching %q...", message))
	ctx := platform.WithProgress(context.Background(), spin.Update)
	reply := a.service.HandleMessage(ctx, message)
	spin.Stop()

	return printReply(cmd.OutOrStdout(), reply, format)
}
