package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/status"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Assistant is the search pipeline the tools call into.
type Assistant interface {
	HandleMessage(ctx context.Context, text string) assistant.Reply
	Search(ctx context.Context, item, platformToken string) assistant.Reply
}

// Platforms lists what can be searched.
type Platforms interface {
	List() []platform.ID
	DisplayName(token string) string
	Aliases(id platform.ID) []string
}

// StatusSource reports recent platform outcomes.
type StatusSource interface {
	Snapshot() map[string]status.Entry
}

// Tools holds the dependencies shared by every tool handler.
type Tools struct {
	Assistant Assistant
	Platforms Platforms
	Status    StatusSource
}

// PlatformInfo is one entry of the list_platforms result.
type PlatformInfo struct {
	ID          platform.ID   `json:"id"`
	DisplayName string        `json:"display_name"`
	Aliases     []string      `json:"aliases,omitempty"`
	Status      *status.Entry `json:"status,omitempty"`
}

func (t *Tools) register(s *server.MCPServer) {
	// search_products
	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search a marketplace for an item and return the top ranked products"),
		mcp.WithString("item",
			mcp.Required(),
			mcp.Description("What to search for, e.g. \"bluetooth speaker\""),
		),
		mcp.WithString("platform",
			mcp.Required(),
			mcp.Description("Marketplace id or alias, e.g. amazon, ebay"),
		),
	)
	s.AddTool(searchTool, t.handleSearchProducts)

	// chat_message
	chatTool := mcp.NewTool("chat_message",
		mcp.WithDescription("Answer a free-text shopping request such as \"laptop on amazon\""),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The user's message"),
		),
	)
	s.AddTool(chatTool, t.handleChatMessage)

	// list_platforms
	listTool := mcp.NewTool("list_platforms",
		mcp.WithDescription("List supported marketplaces with their aliases and recent status"),
	)
	s.AddTool(listTool, t.handleListPlatforms)

	// platform_status
	statusTool := mcp.NewTool("platform_status",
		mcp.WithDescription("Show how each marketplace behaved in the last few minutes"),
	)
	s.AddTool(statusTool, t.handlePlatformStatus)
}

func (t *Tools) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item := request.GetString("item", "")
	if item == "" {
		return mcp.NewToolResultError("item is required"), nil
	}
	platformName := request.GetString("platform", "")
	if platformName == "" {
		return mcp.NewToolResultError("platform is required"), nil
	}
	return replyResult(t.Assistant.Search(ctx, item, platformName))
}

func (t *Tools) handleChatMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	return replyResult(t.Assistant.HandleMessage(ctx, text))
}

func (t *Tools) handleListPlatforms(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.Status.Snapshot()
	var out []PlatformInfo
	for _, id := range t.Platforms.List() {
		info := PlatformInfo{
			ID:          id,
			DisplayName: t.Platforms.DisplayName(string(id)),
			Aliases:     t.Platforms.Aliases(id),
		}
		if e, ok := snap[string(id)]; ok {
			info.Status = &e
		}
		out = append(out, info)
	}
	return jsonResult(out)
}

func (t *Tools) handlePlatformStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.Status.Snapshot())
}

// replyResult returns results as JSON and every other reply kind as an
// error result carrying the user-facing message.
func replyResult(reply assistant.Reply) (*mcp.CallToolResult, error) {
	if reply.Kind != assistant.KindResults {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", reply.Kind, reply.Message)), nil
	}
	return jsonResult(reply)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
