package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/handlers"
)

// NewSyncMCPServer registers the sync tools on a stdio-ready MCP server
func NewSyncMCPServer(s handlers.Syncer, logger *logrus.Logger) *server.DefaultServer {
	syncHandler := handlers.NewSyncHandler(s, logger)

	srv := server.NewDefaultServer("Sleeper League Sync", "1.0.0")
	if srv == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	srv.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		tools := ListTools(syncHandler)
		logger.WithField("tools_count", len(tools)).Info("Listing available tools")
		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	srv.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		return CallTool(ctx, syncHandler, logger, name, arguments)
	})

	logger.Info("All tools registered successfully")
	return srv
}

// ListTools returns every tool the server exposes
func ListTools(h *handlers.SyncHandler) []mcp.Tool {
	return []mcp.Tool{
		h.InitializeUserDataTool(),
		h.SyncPlayoffMatchupsTool(),
	}
}

// CallTool routes a tool call to its handler
func CallTool(ctx context.Context, h *handlers.SyncHandler, logger *logrus.Logger, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	logger.WithFields(logrus.Fields{
		"tool": name,
		"args": arguments,
	}).Info("Tool called")

	switch name {
	case "initialize_user_data":
		return h.HandleInitializeUserData(ctx, arguments)
	case "sync_playoff_matchups":
		return h.HandleSyncPlayoffMatchups(ctx, arguments)
	default:
		logger.WithField("tool", name).Warn("Unknown tool called")
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Type: "text",
					Text: "Unknown tool: " + name,
				},
			},
			IsError: true,
		}, nil
	}
}
