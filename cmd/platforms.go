package cmd

import (
	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/spf13/cobra"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms and their aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(assistant.Options{})
		if err != nil {
			return err
		}
		printPlatformsTable(cmd.OutOrStdout(), a.registry, a.tracker.Snapshot())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}
