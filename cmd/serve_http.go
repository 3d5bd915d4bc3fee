package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/lukman83/shopgenie/internal/assistant"
	mcpserver "github.com/lukman83/shopgenie/mcp"
	"github.com/spf13/cobra"
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over HTTP for remote access (e.g. from Fly.io).",
	RunE:  runServeHTTP,
}

func init() {
	serveHTTPCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	a, err := newApp(assistant.Options{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcpserver.ServeHTTP(ctx, listenAddr(cmd), cfg.APIKey, a.tools(), logger)
}

// listenAddr prefers the --port flag over the configured port.
func listenAddr(cmd *cobra.Command) string {
	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	return fmt.Sprintf(":%s", port)
}
