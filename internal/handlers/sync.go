package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/syncer"
)

// Syncer is the slice of syncer.Service the tools call
type Syncer interface {
	InitializeUserData(ctx context.Context, authUserID, username string) syncer.Result
	SyncPlayoffs(ctx context.Context, authUserID string) syncer.Result
}

// SyncHandler exposes the sync entry points as MCP tools
type SyncHandler struct {
	syncer Syncer
	logger *logrus.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(s Syncer, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: s,
		logger: logger,
	}
}

// UnitFailure is one league or week that did not make it into the store
type UnitFailure struct {
	Phase    string `json:"phase"`
	LeagueID string `json:"league_id"`
	Week     int    `json:"week,omitempty"`
	Error    string `json:"error"`
}

// SyncSummary is the data payload of a sync response
type SyncSummary struct {
	Phase           string        `json:"phase"`
	Partial         bool          `json:"partial"`
	LeaguesIngested []string      `json:"leagues_ingested,omitempty"`
	BrokenHistories []string      `json:"broken_histories,omitempty"`
	Matchups        int64         `json:"matchups"`
	PlayoffMatchups int64         `json:"playoff_matchups"`
	PlayersSkipped  bool          `json:"players_skipped"`
	Failures        []UnitFailure `json:"failures,omitempty"`
}

// InitializeUserDataTool returns the tool definition for initialize_user_data
func (h *SyncHandler) InitializeUserDataTool() mcp.Tool {
	return mcp.Tool{
		Name:        "initialize_user_data",
		Description: "Sync a user's Sleeper leagues, league history, members, weekly matchups and playoff brackets into the store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"auth_user_id": map[string]interface{}{
					"type":        "string",
					"description": "The authenticated account the leagues belong to",
					"required":    true,
				},
				"sleeper_username": map[string]interface{}{
					"type":        "string",
					"description": "The user's Sleeper username",
					"required":    true,
				},
			},
		},
	}
}

// SyncPlayoffMatchupsTool returns the tool definition for sync_playoff_matchups
func (h *SyncHandler) SyncPlayoffMatchupsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_playoff_matchups",
		Description: "Re-resolve playoff brackets for every league the user can access",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"auth_user_id": map[string]interface{}{
					"type":        "string",
					"description": "The authenticated account the leagues belong to",
					"required":    true,
				},
			},
		},
	}
}

// HandleInitializeUserData handles the initialize_user_data tool call
func (h *SyncHandler) HandleInitializeUserData(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling initialize_user_data")

	authUserID, err := stringArg(args, "auth_user_id")
	if err != nil {
		return nil, err
	}
	username, err := stringArg(args, "sleeper_username")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := h.syncer.InitializeUserData(ctx, authUserID, username)
	return h.respond(res, authUserID, start, fmt.Sprintf("Synced Sleeper data for %s", username))
}

// HandleSyncPlayoffMatchups handles the sync_playoff_matchups tool call
func (h *SyncHandler) HandleSyncPlayoffMatchups(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling sync_playoff_matchups")

	authUserID, err := stringArg(args, "auth_user_id")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := h.syncer.SyncPlayoffs(ctx, authUserID)
	return h.respond(res, authUserID, start, "Synced playoff matchups")
}

func (h *SyncHandler) respond(res syncer.Result, authUserID string, start time.Time, summary string) (*mcp.CallToolResult, error) {
	response := APIResponse{
		Success: res.Success,
		Data:    summarize(res),
		Summary: summary,
		Metadata: Metadata{
			Timestamp:  time.Now(),
			Source:     "sleeper_sync",
			AuthUserID: authUserID,
			Duration:   time.Since(start).Round(time.Millisecond).String(),
		},
	}
	if !res.Success {
		response.Summary = "Sync failed"
		response.Error = res.Error
		response.Code = string(res.Code)
	} else if res.Partial {
		response.Summary = summary + " (some leagues failed, see failures)"
	}

	jsonResponse, err := formatJSONResponse(response)
	if err != nil {
		h.logger.WithError(err).Error("Failed to format response")
		return textResult(fmt.Sprintf("Error formatting response: %s", err.Error()), true), nil
	}

	return textResult(jsonResponse, !res.Success), nil
}

func summarize(res syncer.Result) SyncSummary {
	out := SyncSummary{
		Phase:   string(res.Phase),
		Partial: res.Partial,
	}
	r := res.Report
	if r == nil {
		return out
	}

	out.LeaguesIngested = r.LeaguesIngested
	out.BrokenHistories = r.BrokenGroups
	out.Matchups = r.Matchups.Value()
	out.PlayoffMatchups = r.PlayoffRows.Value()
	out.PlayersSkipped = r.PlayersSkipped
	for _, f := range r.Failures() {
		out.Failures = append(out.Failures, UnitFailure{
			Phase:    string(f.Phase),
			LeagueID: f.LeagueID,
			Week:     f.Week,
			Error:    f.Err.Error(),
		})
	}
	return out
}
