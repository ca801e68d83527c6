package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/sleeper-sync/internal/handlers"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper/sleepertest"
	"github.com/sam-maryland/sleeper-sync/internal/store/memory"
	"github.com/sam-maryland/sleeper-sync/internal/syncer"
)

func newHandler() *handlers.SyncHandler {
	logger, _ := test.NewNullLogger()
	client := &sleepertest.MockClient{
		GetStateFunc: func() (*sleeper.State, error) {
			return &sleeper.State{Season: "2024", LeagueSeason: "2024", Week: 10}, nil
		},
	}
	svc := syncer.NewService(client, memory.New(), logger, syncer.DefaultOptions())
	return handlers.NewSyncHandler(svc, logger)
}

func TestNewSyncMCPServer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := syncer.NewService(&sleepertest.MockClient{}, memory.New(), logger, syncer.DefaultOptions())

	if srv := NewSyncMCPServer(svc, logger); srv == nil {
		t.Fatal("Expected server instance")
	}
}

func TestListTools(t *testing.T) {
	h := newHandler()
	tools := ListTools(h)

	want := map[string]bool{"initialize_user_data": true, "sync_playoff_matchups": true}
	if len(tools) != len(want) {
		t.Fatalf("Expected %d tools, got %d", len(want), len(tools))
	}
	for _, tool := range tools {
		if !want[tool.Name] {
			t.Errorf("Unexpected tool %q", tool.Name)
		}
	}
}

func TestCallTool_Unknown(t *testing.T) {
	h := newHandler()
	logger, _ := test.NewNullLogger()

	result, err := CallTool(context.Background(), h, logger, "get_league_standings", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected error result for unknown tool")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "Unknown tool: get_league_standings" {
		t.Errorf("Unexpected content: %+v", result.Content[0])
	}
}

func TestCallTool_RoutesSync(t *testing.T) {
	h := newHandler()
	logger, _ := test.NewNullLogger()

	result, err := CallTool(context.Background(), h, logger, "sync_playoff_matchups", map[string]interface{}{"auth_user_id": "auth-1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Error("Expected playoff sync with no leagues to succeed")
	}
}
