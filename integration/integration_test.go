//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/sleeper-sync/internal/handlers"
	mcpserver "github.com/sam-maryland/sleeper-sync/internal/mcp"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store/memory"
	"github.com/sam-maryland/sleeper-sync/internal/syncer"
)

// Integration tests that drive the HTTP client end to end.
// Run with: go test -tags=integration ./integration/...

const leagueJSON = `{
	"league_id": "L1",
	"previous_league_id": null,
	"name": "Dynasty",
	"season": "2024",
	"total_rosters": 4,
	"roster_positions": ["QB", "RB"],
	"scoring_settings": {"rec": 1},
	"settings": {"playoff_week_start": 3, "playoff_teams": 4, "type": 2}
}`

func week(pairs string) string { return "[" + pairs + "]" }

func result(roster, pairing int, points string) string {
	return fmt.Sprintf(`{"roster_id": %d, "matchup_id": %d, "points": %s, "players": ["p%d"], "starters": ["p%d"]}`,
		roster, pairing, points, roster, roster)
}

func sleeperStub(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/user/sam":                 `{"user_id": "u1", "username": "sam", "display_name": "Sam", "avatar": "av1"}`,
		"/state/nfl":                `{"season": "2024", "league_season": "2024", "week": 18}`,
		"/players/nfl":              `{"p1": {"full_name": "One"}, "p2": {"full_name": "Two"}}`,
		"/user/u1/leagues/nfl/2024": "[" + leagueJSON + "]",
		"/league/L1":                leagueJSON,
		"/league/L1/rosters": `[
			{"roster_id": 1, "owner_id": "u1"}, {"roster_id": 2, "owner_id": "u2"},
			{"roster_id": 3, "owner_id": "u3"}, {"roster_id": 4, "owner_id": "u4"}]`,
		"/league/L1/users": `[
			{"user_id": "u1", "display_name": "Sam"}, {"user_id": "u2", "display_name": "Two"},
			{"user_id": "u3", "display_name": "Three"}, {"user_id": "u4", "display_name": "Four"}]`,
		"/league/L1/matchups/1": week(result(1, 1, "100") + "," + result(2, 1, "90") + "," + result(3, 2, "95") + "," + result(4, 2, "99")),
		"/league/L1/matchups/2": week(result(1, 1, "101") + "," + result(2, 1, "91") + "," + result(3, 2, "96") + "," + result(4, 2, "98")),
		"/league/L1/matchups/3": week(result(1, 1, "120") + "," + result(4, 1, "90") + "," + result(2, 2, "110") + "," + result(3, 2, "100")),
		"/league/L1/matchups/4": week(result(1, 1, "130") + "," + result(2, 1, "125") + "," + result(3, 2, "80") + "," + result(4, 2, "85")),
		"/league/L1/winners_bracket": `[
			{"m": 1, "r": 1, "t1": 1, "t2": 4, "w": 1, "l": 4},
			{"m": 2, "r": 1, "t1": 2, "t2": 3, "w": 2, "l": 3},
			{"m": 3, "r": 2, "t1": 1, "t2": 2, "w": 1, "l": 2, "p": 1, "t1_from": {"w": 1}, "t2_from": {"w": 2}}]`,
		"/league/L1/losers_bracket": `[]`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, result *mcp.CallToolResult) handlers.APIResponse {
	t.Helper()
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content")
	}
	var resp handlers.APIResponse
	if err := json.Unmarshal([]byte(text.Text), &resp); err != nil {
		t.Fatalf("Expected JSON response: %v", err)
	}
	return resp
}

func TestIntegration_InitializeUserData_OverHTTP(t *testing.T) {
	srv := sleeperStub(t)
	logger, _ := test.NewNullLogger()

	client := sleeper.NewHTTPClient(logger, sleeper.WithBaseURL(srv.URL), sleeper.WithTimeout(5*time.Second))
	st := memory.New()
	svc := syncer.NewService(client, st, logger, syncer.DefaultOptions())
	h := handlers.NewSyncHandler(svc, logger)

	ctx := context.Background()
	for run := 0; run < 2; run++ {
		result, err := mcpserver.CallTool(ctx, h, logger, "initialize_user_data", map[string]interface{}{
			"auth_user_id":     "auth-1",
			"sleeper_username": "sam",
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("Expected success on run %d, got %+v", run, decode(t, result))
		}
		if resp := decode(t, result); !resp.Success {
			t.Fatalf("Expected success response on run %d", run)
		}

		if got := st.MatchupCount(); got != 8 {
			t.Errorf("Expected 8 matchups after run %d, got %d", run, got)
		}
		if got := st.PlayoffCount(); got != 3 {
			t.Errorf("Expected 3 playoff matchups after run %d, got %d", run, got)
		}
		if got := len(st.Members("L1")); got != 4 {
			t.Errorf("Expected 4 members after run %d, got %d", run, got)
		}
	}

	if got := st.PlayerCount(); got != 2 {
		t.Errorf("Expected 2 players, got %d", got)
	}
	if _, ok := st.User("auth-1"); !ok {
		t.Error("Expected user to be stored")
	}
}

func TestIntegration_UnknownUsername_OverHTTP(t *testing.T) {
	srv := sleeperStub(t)
	logger, _ := test.NewNullLogger()

	client := sleeper.NewHTTPClient(logger, sleeper.WithBaseURL(srv.URL))
	svc := syncer.NewService(client, memory.New(), logger, syncer.DefaultOptions())

	res := svc.InitializeUserData(context.Background(), "auth-1", "nobody")
	if res.Success {
		t.Fatal("Expected failure for unknown username")
	}
	if res.Code != syncer.CodeInvalidUsername {
		t.Errorf("Expected %s, got %s", syncer.CodeInvalidUsername, res.Code)
	}
}

// TestIntegration_SleeperAPI_State calls the live API.
func TestIntegration_SleeperAPI_State(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("SLEEPER_LIVE") == "" {
		t.Skip("SLEEPER_LIVE environment variable not set, skipping live API test")
	}

	logger, _ := test.NewNullLogger()
	client := sleeper.NewHTTPClient(logger)

	state, err := client.GetState(context.Background())
	if err != nil {
		t.Fatalf("Failed to get state: %v", err)
	}
	if state.Season == "" {
		t.Error("Expected season to be set")
	}
}
