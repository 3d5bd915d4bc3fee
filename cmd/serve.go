package cmd

import (
	"fmt"

	"github.com/lukman83/shopgenie/internal/assistant"
	mcpserver "github.com/lukman83/shopgenie/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(assistant.Options{})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting ShopGenie MCP server on stdio...")
	if err := mcpserver.Serve(a.tools()); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

func (a *app) tools() *mcpserver.Tools {
	return &mcpserver.Tools{
		Assistant: a.service,
		Platforms: a.registry,
		Status:    a.tracker,
	}
}
