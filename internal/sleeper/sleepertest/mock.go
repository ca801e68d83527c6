// Package sleepertest provides a func-field fake of sleeper.Client for tests.
package sleepertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// MockClient is a mock implementation of the sleeper.Client interface.
// Unset funcs answer with sleeper.ErrNotFound. Calls are counted per method
// and safe for concurrent use.
type MockClient struct {
	GetUserFunc          func(usernameOrID string) (*sleeper.User, error)
	GetUserLeaguesFunc   func(userID, season string) ([]sleeper.League, error)
	GetLeagueFunc        func(leagueID string) (*sleeper.League, error)
	GetLeagueUsersFunc   func(leagueID string) ([]sleeper.User, error)
	GetLeagueRostersFunc func(leagueID string) ([]sleeper.Roster, error)
	GetMatchupsFunc      func(leagueID string, week int) ([]sleeper.Matchup, error)
	GetBracketFunc       func(leagueID string, bracket sleeper.BracketType) ([]sleeper.BracketMatchup, error)
	GetAllPlayersFunc    func() (map[string]sleeper.Player, error)
	GetStateFunc         func() (*sleeper.State, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ sleeper.Client = (*MockClient)(nil)

func (m *MockClient) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, sleeper.ErrNotFound)
}

func (m *MockClient) GetUser(_ context.Context, usernameOrID string) (*sleeper.User, error) {
	m.record("GetUser")
	if m.GetUserFunc != nil {
		return m.GetUserFunc(usernameOrID)
	}
	return nil, notFound("user " + usernameOrID)
}

func (m *MockClient) GetUserLeagues(_ context.Context, userID, season string) ([]sleeper.League, error) {
	m.record("GetUserLeagues")
	if m.GetUserLeaguesFunc != nil {
		return m.GetUserLeaguesFunc(userID, season)
	}
	return nil, notFound("leagues for " + userID)
}

func (m *MockClient) GetLeague(_ context.Context, leagueID string) (*sleeper.League, error) {
	m.record("GetLeague")
	if m.GetLeagueFunc != nil {
		return m.GetLeagueFunc(leagueID)
	}
	return nil, notFound("league " + leagueID)
}

func (m *MockClient) GetLeagueUsers(_ context.Context, leagueID string) ([]sleeper.User, error) {
	m.record("GetLeagueUsers")
	if m.GetLeagueUsersFunc != nil {
		return m.GetLeagueUsersFunc(leagueID)
	}
	return nil, notFound("users for " + leagueID)
}

func (m *MockClient) GetLeagueRosters(_ context.Context, leagueID string) ([]sleeper.Roster, error) {
	m.record("GetLeagueRosters")
	if m.GetLeagueRostersFunc != nil {
		return m.GetLeagueRostersFunc(leagueID)
	}
	return nil, notFound("rosters for " + leagueID)
}

func (m *MockClient) GetMatchups(_ context.Context, leagueID string, week int) ([]sleeper.Matchup, error) {
	m.record("GetMatchups")
	if m.GetMatchupsFunc != nil {
		return m.GetMatchupsFunc(leagueID, week)
	}
	return nil, notFound(fmt.Sprintf("matchups for %s week %d", leagueID, week))
}

func (m *MockClient) GetBracket(_ context.Context, leagueID string, bracket sleeper.BracketType) ([]sleeper.BracketMatchup, error) {
	m.record("GetBracket")
	if m.GetBracketFunc != nil {
		return m.GetBracketFunc(leagueID, bracket)
	}
	return nil, notFound(fmt.Sprintf("%s bracket for %s", bracket, leagueID))
}

func (m *MockClient) GetAllPlayers(_ context.Context) (map[string]sleeper.Player, error) {
	m.record("GetAllPlayers")
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return nil, notFound("players")
}

func (m *MockClient) GetState(_ context.Context) (*sleeper.State, error) {
	m.record("GetState")
	if m.GetStateFunc != nil {
		return m.GetStateFunc()
	}
	return nil, notFound("state")
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
