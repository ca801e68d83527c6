// Package store persists reconciled league history.
//
// Every write is an idempotent upsert keyed by the natural or synthetic key of
// its table, so replaying a partial sync converges on the same rows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
)

// ErrNotFound is returned by single-record reads that match nothing
var ErrNotFound = errors.New("store: not found")

// PlayersSource is the sync_state key for the global player table
const PlayersSource = "players"

// User links an authenticated account to its Sleeper identity
type User struct {
	ID            string
	SleeperUserID string
	Username      string
	AvatarID      string
}

// Member is one owner of one roster in one league
type Member struct {
	LeagueID       string
	RosterID       int
	SleeperUserID  string
	LeagueUsername *string
}

// Player is one row of the global player table
type Player struct {
	PlayerID         string
	FullName         string
	FirstName        string
	LastName         string
	Team             *string
	Position         string
	FantasyPositions []string
	Number           *int
	Age              *int
	BirthDate        *string
	College          *string
	RookieYear       *string
	Weight           *string
	Height           *string
	YearsExp         *int
}

// Store is the relational store used by the sync
type Store interface {
	UpsertUser(ctx context.Context, u User) error

	// ExistingLeagueIDs returns the subset of ids already stored
	ExistingLeagueIDs(ctx context.Context, ids []string) ([]string, error)
	// GroupIDsForLeagues returns the lineage group ids of the given leagues
	GroupIDsForLeagues(ctx context.Context, leagueIDs []string) ([]string, error)
	// LeagueIDsInGroups returns every league id in the given lineage groups
	LeagueIDsInGroups(ctx context.Context, groupIDs []string) ([]string, error)
	GetLeague(ctx context.Context, leagueID string) (*league.League, error)
	UpsertLeagues(ctx context.Context, leagues []league.League) error
	MarkBrokenHistories(ctx context.Context, groupIDs []string) error

	UpsertUserLeagues(ctx context.Context, userID string, leagueIDs []string) error
	UserLeagueIDs(ctx context.Context, userID string) ([]string, error)
	UpsertMembers(ctx context.Context, members []Member) error

	UpsertMatchups(ctx context.Context, matchups []matchup.Matchup) error
	UpsertMatchupPlayers(ctx context.Context, entries []matchup.PlayerEntry) error
	// MatchupsInWeeks returns a league's matchups for weeks from..to inclusive,
	// ordered by week
	MatchupsInWeeks(ctx context.Context, leagueID string, from, to int) ([]matchup.Matchup, error)
	UpsertPlayoffMatchups(ctx context.Context, rows []bracket.Row) error

	UpsertPlayers(ctx context.Context, players []Player) error
	// LastSynced reports when source was last refreshed; ok is false when it
	// never was
	LastSynced(ctx context.Context, source string) (at time.Time, ok bool, err error)
	TouchSynced(ctx context.Context, source string, at time.Time) error
}
