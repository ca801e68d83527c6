package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// APIResponse represents the standard response format for our tools
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Summary  string      `json:"summary"`
	Error    string      `json:"error,omitempty"`
	Code     string      `json:"code,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	AuthUserID string    `json:"auth_user_id,omitempty"`
	Duration   string    `json:"duration,omitempty"`
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
		IsError: isError,
	}
}

// stringArg reads a required string argument
func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("%s is required and must be a string", name)
	}
	return v, nil
}
