package lineage

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper/sleepertest"
)

func chainClient(leagues map[string]*sleeper.League) *sleepertest.MockClient {
	return &sleepertest.MockClient{
		GetLeagueFunc: func(id string) (*sleeper.League, error) {
			if l, ok := leagues[id]; ok {
				return l, nil
			}
			return nil, sleeper.ErrNotFound
		},
	}
}

func raw(id, season string, previous *string) *sleeper.League {
	return &sleeper.League{
		LeagueID:         id,
		Season:           season,
		PreviousLeagueID: previous,
		Settings:         sleeper.LeagueSettings{PlayoffWeekStart: 15, PlayoffTeams: 6},
	}
}

func fixedGroup() Option {
	return WithGroupIDs(func() string { return "group-1" })
}

func TestResolve_CompleteChain(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{
		"A": raw("A", "2024", sleepertest.String("B")),
		"B": raw("B", "2023", sleepertest.String("C")),
		"C": raw("C", "2022", nil),
	})

	chain, err := NewResolver(client, logger, fixedGroup()).Resolve(context.Background(), "A")
	require.NoError(t, err)

	assert.False(t, chain.Broken)
	assert.Equal(t, []string{"A", "B", "C"}, chain.LeagueIDs())
	for _, l := range chain.Leagues {
		assert.Equal(t, "group-1", l.LeagueGroupID)
	}
	assert.Equal(t, 3, client.Calls("GetLeague"))
}

func TestResolve_BrokenChain(t *testing.T) {
	logger, hook := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{
		"A": raw("A", "2024", sleepertest.String("B")),
		"B": raw("B", "2023", sleepertest.String("gone")),
	})

	chain, err := NewResolver(client, logger, fixedGroup()).Resolve(context.Background(), "A")
	require.NoError(t, err)

	assert.True(t, chain.Broken)
	assert.Equal(t, []string{"A", "B"}, chain.LeagueIDs())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "gone", hook.LastEntry().Data["missing_league_id"])
}

func TestResolve_ZeroPredecessorEndsChain(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{
		"A": raw("A", "2024", sleepertest.String("0")),
	})

	chain, err := NewResolver(client, logger).Resolve(context.Background(), "A")
	require.NoError(t, err)

	assert.False(t, chain.Broken)
	assert.Equal(t, []string{"A"}, chain.LeagueIDs())
	assert.NotEmpty(t, chain.GroupID)
}

func TestResolve_Loop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{
		"A": raw("A", "2024", sleepertest.String("B")),
		"B": raw("B", "2023", sleepertest.String("A")),
	})

	chain, err := NewResolver(client, logger).Resolve(context.Background(), "A")
	require.NoError(t, err)

	assert.True(t, chain.Broken)
	assert.Equal(t, []string{"A", "B"}, chain.LeagueIDs())
}

func TestResolve_DistinctGroups(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{
		"A": raw("A", "2024", nil),
		"X": raw("X", "2024", nil),
	})
	resolver := NewResolver(client, logger)

	a, err := resolver.Resolve(context.Background(), "A")
	require.NoError(t, err)
	x, err := resolver.Resolve(context.Background(), "X")
	require.NoError(t, err)

	assert.NotEqual(t, a.GroupID, x.GroupID)
}

func TestResolve_CancelledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := chainClient(map[string]*sleeper.League{"A": raw("A", "2024", nil)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(client, logger).Resolve(ctx, "A")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.Calls("GetLeague"))
}
