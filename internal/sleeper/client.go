package sleeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	BaseURL        = "https://api.sleeper.app/v1"
	DefaultTimeout = 10 * time.Second
	DefaultSport   = "nfl"
)

// ErrNotFound is returned when Sleeper answers with an empty (null) payload
// or a 404. Callers treat it the same as any other absent record.
var ErrNotFound = errors.New("sleeper: not found")

// Client defines the interface for interacting with the Sleeper API
type Client interface {
	// User methods
	GetUser(ctx context.Context, usernameOrID string) (*User, error)
	GetUserLeagues(ctx context.Context, userID, season string) ([]League, error)

	// League methods
	GetLeague(ctx context.Context, leagueID string) (*League, error)
	GetLeagueUsers(ctx context.Context, leagueID string) ([]User, error)
	GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error)
	GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error)
	GetBracket(ctx context.Context, leagueID string, bracket BracketType) ([]BracketMatchup, error)

	// Global methods
	GetAllPlayers(ctx context.Context) (map[string]Player, error)
	GetState(ctx context.Context) (*State, error)
}

// HTTPClient implements the Client interface using HTTP requests
type HTTPClient struct {
	baseURL    string
	sport      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option customises an HTTPClient
type Option func(*HTTPClient)

// WithBaseURL points the client at a different API root
func WithBaseURL(url string) Option {
	return func(c *HTTPClient) { c.baseURL = url }
}

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = timeout }
}

// WithSport selects the sport used in user-league and state lookups
func WithSport(sport string) Option {
	return func(c *HTTPClient) { c.sport = sport }
}

// NewHTTPClient creates a new HTTP client for the Sleeper API
func NewHTTPClient(logger *logrus.Logger, opts ...Option) Client {
	c := &HTTPClient{
		baseURL: BaseURL,
		sport:   DefaultSport,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// makeRequest performs an HTTP GET request to the Sleeper API and decodes the
// body into result. A JSON null body leaves result untouched and reports
// ErrNotFound.
func (c *HTTPClient) makeRequest(ctx context.Context, endpoint string, result interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	c.logger.WithField("url", url).Debug("Making API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("HTTP request failed")
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read response body")
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Warn("API request failed")

		return &SleeperError{
			Type:       "api_error",
			Message:    fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)),
			StatusCode: resp.StatusCode,
		}
	}

	if isNull(body) {
		return ErrNotFound
	}

	if err := json.Unmarshal(body, result); err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("Failed to unmarshal response")
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("API request completed successfully")
	return nil
}

func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// GetUser retrieves a user by username or user ID
func (c *HTTPClient) GetUser(ctx context.Context, usernameOrID string) (*User, error) {
	endpoint := fmt.Sprintf("/user/%s", usernameOrID)
	var user User

	if err := c.makeRequest(ctx, endpoint, &user); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", usernameOrID, err)
	}

	return &user, nil
}

// GetUserLeagues retrieves all leagues for a user in the configured sport and a given season
func (c *HTTPClient) GetUserLeagues(ctx context.Context, userID, season string) ([]League, error) {
	endpoint := fmt.Sprintf("/user/%s/leagues/%s/%s", userID, c.sport, season)
	var leagues []League

	if err := c.makeRequest(ctx, endpoint, &leagues); err != nil {
		return nil, fmt.Errorf("failed to get leagues for user %s: %w", userID, err)
	}

	return leagues, nil
}

// GetLeague retrieves comprehensive league information
func (c *HTTPClient) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	endpoint := fmt.Sprintf("/league/%s", leagueID)
	var league League

	if err := c.makeRequest(ctx, endpoint, &league); err != nil {
		return nil, fmt.Errorf("failed to get league %s: %w", leagueID, err)
	}

	return &league, nil
}

// GetLeagueUsers retrieves all users in a league
func (c *HTTPClient) GetLeagueUsers(ctx context.Context, leagueID string) ([]User, error) {
	endpoint := fmt.Sprintf("/league/%s/users", leagueID)
	var users []User

	if err := c.makeRequest(ctx, endpoint, &users); err != nil {
		return nil, fmt.Errorf("failed to get users for league %s: %w", leagueID, err)
	}

	return users, nil
}

// GetLeagueRosters retrieves all rosters in a league
func (c *HTTPClient) GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	endpoint := fmt.Sprintf("/league/%s/rosters", leagueID)
	var rosters []Roster

	if err := c.makeRequest(ctx, endpoint, &rosters); err != nil {
		return nil, fmt.Errorf("failed to get rosters for league %s: %w", leagueID, err)
	}

	return rosters, nil
}

// GetMatchups retrieves matchups for a specific week
func (c *HTTPClient) GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	endpoint := fmt.Sprintf("/league/%s/matchups/%d", leagueID, week)
	var matchups []Matchup

	if err := c.makeRequest(ctx, endpoint, &matchups); err != nil {
		return nil, fmt.Errorf("failed to get matchups for league %s week %d: %w", leagueID, week, err)
	}

	return matchups, nil
}

// GetBracket retrieves the winners or losers bracket for a league
func (c *HTTPClient) GetBracket(ctx context.Context, leagueID string, bracket BracketType) ([]BracketMatchup, error) {
	endpoint := fmt.Sprintf("/league/%s/%s_bracket", leagueID, bracket)
	var nodes []BracketMatchup

	if err := c.makeRequest(ctx, endpoint, &nodes); err != nil {
		return nil, fmt.Errorf("failed to get %s bracket for league %s: %w", bracket, leagueID, err)
	}

	return nodes, nil
}

// GetAllPlayers retrieves all players for the configured sport (use sparingly)
func (c *HTTPClient) GetAllPlayers(ctx context.Context) (map[string]Player, error) {
	endpoint := fmt.Sprintf("/players/%s", c.sport)
	var players map[string]Player

	if err := c.makeRequest(ctx, endpoint, &players); err != nil {
		return nil, fmt.Errorf("failed to get all players: %w", err)
	}

	return players, nil
}

// GetState retrieves the provider's current season and week
func (c *HTTPClient) GetState(ctx context.Context) (*State, error) {
	endpoint := fmt.Sprintf("/state/%s", c.sport)
	var state State

	if err := c.makeRequest(ctx, endpoint, &state); err != nil {
		return nil, fmt.Errorf("failed to get %s state: %w", c.sport, err)
	}

	return &state, nil
}
