//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store"
	"github.com/sam-maryland/sleeper-sync/internal/store/migrations"
)

func setupPostgres(t *testing.T) *store.Postgres {
	t.Helper()
	ctx := context.Background()

	const user, password, dbName = "testuser", "testpass", "testdb"
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)
			}).WithStartupTimeout(45*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := store.Open(dsn)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Run(ctx, db)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	return store.NewPostgres(db, logger)
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pg := setupPostgres(t)
	logger, _ := test.NewNullLogger()

	group := "5f0c3c1e-3f8a-4c57-9a53-0e0bb0d0c001"
	raw := &sleeper.League{
		LeagueID:        "L1",
		Name:            "Dynasty",
		Season:          "2024",
		RosterPositions: []string{"QB", "RB", "SUPER_FLEX"},
		ScoringSettings: map[string]float64{"rec": 1},
		Settings:        sleeper.LeagueSettings{PlayoffWeekStart: 15, PlayoffTeams: 4, PlayoffRoundType: 1, Type: 2},
	}
	l := league.FromSleeper(logger, raw, group)

	require.NoError(t, pg.UpsertLeagues(ctx, []league.League{l}))
	require.NoError(t, pg.UpsertLeagues(ctx, []league.League{l}), "upsert must be idempotent")

	got, err := pg.GetLeague(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, league.PPRSuperFlex, got.ScoringFormat)
	assert.Equal(t, []int{16, 17}, got.Weeks.WeekMap[league.Finals])
	assert.Equal(t, []league.RoundName{league.Semifinals, league.Finals}, got.Weeks.Rounds)

	_, err = pg.GetLeague(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	existing, err := pg.ExistingLeagueIDs(ctx, []string{"L1", "L2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, existing)

	groups, err := pg.GroupIDsForLeagues(ctx, []string{"L1"})
	require.NoError(t, err)
	assert.Equal(t, []string{group}, groups)

	require.NoError(t, pg.MarkBrokenHistories(ctx, []string{group}))
	require.NoError(t, pg.MarkBrokenHistories(ctx, []string{group}))

	require.NoError(t, pg.UpsertUserLeagues(ctx, "auth-1", []string{"L1", "L1"}))
	ids, err := pg.UserLeagueIDs(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, ids)

	week := matchup.Group(matchup.WeekInput{
		LeagueID: "L1", Season: "2024", Week: 15, FirstPlayoffWeek: 15,
		RosterPositions: []string{"QB"},
		Cursor:          matchup.Cursor{Season: "2025", Week: 1},
		Results: []sleeper.Matchup{
			{RosterID: 1, MatchupID: sleeperInt(1), Points: 112.3, Players: []string{"p1"}, Starters: []string{"p1"}, PlayersPoints: map[string]float64{"p1": 112.3}},
			{RosterID: 2, MatchupID: sleeperInt(1), Points: 98.75},
		},
	})
	require.NoError(t, pg.UpsertMatchups(ctx, week.Matchups))
	require.NoError(t, pg.UpsertMatchups(ctx, week.Matchups))
	require.NoError(t, pg.UpsertMatchupPlayers(ctx, week.Players))

	stored, err := pg.MatchupsInWeeks(ctx, "L1", 15, 17)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, week.Matchups[0], stored[0])

	final := league.Finals
	src := bracket.FromWinner
	require.NoError(t, pg.UpsertPlayoffMatchups(ctx, []bracket.Row{{
		MatchupID:   stored[0].ID,
		RoundName:   &final,
		BracketType: sleeper.WinnersBracket,
		SourceType:  &src,
	}}))

	_, ok, err := pg.LastSynced(ctx, store.PlayersSource)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pg.UpsertPlayers(ctx, []store.Player{{PlayerID: "p1", FullName: "Some Player", FantasyPositions: []string{"QB"}}}))
	now := time.Now().Truncate(time.Second)
	require.NoError(t, pg.TouchSynced(ctx, store.PlayersSource, now))
	at, ok, err := pg.LastSynced(ctx, store.PlayersSource)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.WithinDuration(t, now, at, time.Second)
}

func sleeperInt(v int) *int { return &v }
