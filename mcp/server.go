// Package mcp exposes the product search as Model Context Protocol tools
// over stdio or streamable HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "shopgenie"
	serverVersion = "1.0.0"
)

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	t.register(s)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(t *Tools) error {
	return server.ServeStdio(NewServer(t))
}
