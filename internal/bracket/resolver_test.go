package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper/sleepertest"
)

var intp = sleepertest.Int

func persisted(week, one int, two *int) matchup.Matchup {
	return matchup.Matchup{
		ID:          matchup.ID("L1", "2024", week, one, two),
		LeagueID:    "L1",
		Season:      "2024",
		Week:        week,
		RosterOneID: one,
		RosterTwoID: two,
	}
}

func TestResolve_WinnerPredecessor(t *testing.T) {
	week1 := persisted(1, 1, intp(2))
	week2 := persisted(2, 2, intp(3))

	res := Resolve(Input{
		Weeks:     league.MapWeekInfo(1, 4, league.OneWeekPerRound),
		RoundType: league.OneWeekPerRound,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(2), Winner: intp(2), Loser: intp(1)},
			{MatchupID: 2, Round: 2, Team1: intp(2), Team2: intp(3), Team1From: &sleeper.BracketSource{Winner: intp(1)}, Position: intp(1)},
		},
		Matchups: []matchup.Matchup{week1, week2},
	})

	require.Len(t, res.Rows, 2)
	assert.Zero(t, res.Unmatched)

	first := res.Rows[0]
	assert.Equal(t, week1.ID, first.MatchupID)
	assert.Nil(t, first.PreviousMatchupOne)
	assert.Nil(t, first.PreviousMatchupTwo)
	assert.Nil(t, first.RoundName)
	assert.Nil(t, first.SourceType)

	final := res.Rows[1]
	assert.Equal(t, week2.ID, final.MatchupID)
	require.NotNil(t, final.PreviousMatchupOne)
	assert.Equal(t, week1.ID, *final.PreviousMatchupOne)
	assert.Nil(t, final.PreviousMatchupTwo)
	require.NotNil(t, final.RoundName)
	assert.Equal(t, league.Finals, *final.RoundName)
	require.NotNil(t, final.SourceType)
	assert.Equal(t, FromWinner, *final.SourceType)
	assert.Equal(t, sleeper.WinnersBracket, final.BracketType)
	assert.Equal(t, 1, *final.PlayoffPosition)
}

func TestResolve_UnfilledSlotUsesSourceOutcome(t *testing.T) {
	week1 := persisted(1, 1, intp(2))
	week2 := persisted(2, 3, intp(2))

	res := Resolve(Input{
		Weeks:     league.MapWeekInfo(1, 4, league.OneWeekPerRound),
		RoundType: league.OneWeekPerRound,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(2), Winner: intp(2), Loser: intp(1)},
			{MatchupID: 2, Round: 2, Team2: intp(3), Team1From: &sleeper.BracketSource{Winner: intp(1)}},
		},
		Matchups: []matchup.Matchup{week1, week2},
	})

	require.Len(t, res.Rows, 2)
	assert.Equal(t, week2.ID, res.Rows[1].MatchupID)
	assert.Equal(t, week1.ID, *res.Rows[1].PreviousMatchupOne)
}

func TestResolve_LosersConsolation(t *testing.T) {
	// Six team bracket: week 15 quarterfinals, 16 semis, 17 finals.
	weeks := league.MapWeekInfo(15, 6, league.OneWeekPerRound)
	qf := persisted(15, 3, intp(6))
	semi := persisted(16, 1, intp(3))
	consolation := persisted(16, 6, intp(4))

	res := Resolve(Input{
		Weeks:     weeks,
		RoundType: league.OneWeekPerRound,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(3), Team2: intp(6), Winner: intp(3), Loser: intp(6)},
			{MatchupID: 3, Round: 2, Team1: intp(1), Team2: intp(3), Team2From: &sleeper.BracketSource{Winner: intp(1)}},
			{MatchupID: 5, Round: 2, Team1: intp(6), Team2: intp(4), Team1From: &sleeper.BracketSource{Loser: intp(1)}, Position: intp(5)},
		},
		Matchups: []matchup.Matchup{qf, semi, consolation},
	})

	require.Len(t, res.Rows, 3)

	byID := make(map[string]Row)
	for _, r := range res.Rows {
		byID[r.MatchupID] = r
	}

	s := byID[semi.ID]
	assert.Equal(t, league.Semifinals, *s.RoundName)
	assert.Nil(t, s.PreviousMatchupOne)
	assert.Equal(t, qf.ID, *s.PreviousMatchupTwo)

	c := byID[consolation.ID]
	assert.Nil(t, c.RoundName)
	assert.Equal(t, FromLoser, *c.SourceType)
	assert.Equal(t, qf.ID, *c.PreviousMatchupOne)
	assert.Equal(t, 5, *c.PlayoffPosition)
}

func TestResolve_TwoWeekChampionship(t *testing.T) {
	weeks := league.MapWeekInfo(15, 4, league.TwoWeekChampionship)
	semiA := persisted(15, 1, intp(4))
	semiB := persisted(15, 2, intp(3))
	finalWk1 := persisted(16, 1, intp(2))
	finalWk2 := persisted(17, 1, intp(2))
	third := persisted(16, 4, intp(3))

	res := Resolve(Input{
		Weeks:     weeks,
		RoundType: league.TwoWeekChampionship,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(4), Winner: intp(1), Loser: intp(4)},
			{MatchupID: 2, Round: 1, Team1: intp(2), Team2: intp(3), Winner: intp(2), Loser: intp(3)},
			{
				MatchupID: 3, Round: 2, Position: intp(1),
				Team1: intp(1), Team2: intp(2),
				Team1From: &sleeper.BracketSource{Winner: intp(1)},
				Team2From: &sleeper.BracketSource{Winner: intp(2)},
			},
			{
				MatchupID: 4, Round: 2, Position: intp(3),
				Team1: intp(4), Team2: intp(3),
				Team1From: &sleeper.BracketSource{Loser: intp(1)},
				Team2From: &sleeper.BracketSource{Loser: intp(2)},
			},
		},
		Matchups: []matchup.Matchup{semiA, semiB, finalWk1, finalWk2, third},
	})

	require.Len(t, res.Rows, 5)
	weeksSeen := make(map[string]bool)
	for _, r := range res.Rows {
		weeksSeen[r.MatchupID] = true
	}
	assert.True(t, weeksSeen[finalWk1.ID])
	assert.True(t, weeksSeen[finalWk2.ID])
	assert.True(t, weeksSeen[third.ID])

	// Rows are ordered by week.
	assert.Equal(t, finalWk2.ID, res.Rows[len(res.Rows)-1].MatchupID)
	last := res.Rows[len(res.Rows)-1]
	assert.Equal(t, semiA.ID, *last.PreviousMatchupOne)
	assert.Equal(t, semiB.ID, *last.PreviousMatchupTwo)
	assert.Equal(t, league.Finals, *last.RoundName)
}

func TestResolve_UnmatchedNodesSkipped(t *testing.T) {
	res := Resolve(Input{
		Weeks:     league.MapWeekInfo(15, 4, league.OneWeekPerRound),
		RoundType: league.OneWeekPerRound,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(4)},
			{MatchupID: 2, Round: 2, Team1From: &sleeper.BracketSource{Winner: intp(1)}},
		},
	})

	assert.Empty(t, res.Rows)
	assert.Equal(t, 2, res.Unmatched)
}

func TestResolve_DuplicateMatchupKeepsWinnersRow(t *testing.T) {
	m := persisted(15, 1, intp(2))

	res := Resolve(Input{
		Weeks:     league.MapWeekInfo(15, 4, league.OneWeekPerRound),
		RoundType: league.OneWeekPerRound,
		Winners:   []sleeper.BracketMatchup{{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(2)}},
		Losers:    []sleeper.BracketMatchup{{MatchupID: 1, Round: 1, Team1: intp(2), Team2: intp(1)}},
		Matchups:  []matchup.Matchup{m},
	})

	require.Len(t, res.Rows, 1)
	assert.Equal(t, sleeper.WinnersBracket, res.Rows[0].BracketType)
}

func TestResolve_TwoWeeksPerRound(t *testing.T) {
	// Semis on weeks 15 and 16, finals on 17 and 18.
	weeks := league.MapWeekInfo(15, 4, league.TwoWeeksPerRound)
	semiA15 := persisted(15, 1, intp(4))
	semiA16 := persisted(16, 1, intp(4))
	semiB15 := persisted(15, 2, intp(3))
	semiB16 := persisted(16, 2, intp(3))
	final17 := persisted(17, 1, intp(2))
	final18 := persisted(18, 1, intp(2))

	res := Resolve(Input{
		Weeks:     weeks,
		RoundType: league.TwoWeeksPerRound,
		Winners: []sleeper.BracketMatchup{
			{MatchupID: 1, Round: 1, Team1: intp(1), Team2: intp(4), Winner: intp(1), Loser: intp(4)},
			{MatchupID: 2, Round: 1, Team1: intp(2), Team2: intp(3), Winner: intp(2), Loser: intp(3)},
			{
				MatchupID: 3, Round: 2, Position: intp(1),
				Team1: intp(1), Team2: intp(2),
				Team1From: &sleeper.BracketSource{Winner: intp(1)},
				Team2From: &sleeper.BracketSource{Winner: intp(2)},
			},
		},
		Matchups: []matchup.Matchup{semiA15, semiA16, semiB15, semiB16, final17, final18},
	})

	require.Len(t, res.Rows, 6)
	assert.Zero(t, res.Unmatched)

	byID := make(map[string]Row)
	for _, r := range res.Rows {
		byID[r.MatchupID] = r
	}

	for _, m := range []matchup.Matchup{semiA15, semiA16, semiB15, semiB16} {
		row, ok := byID[m.ID]
		require.True(t, ok, "week %d semifinal missing", m.Week)
		assert.Nil(t, row.PreviousMatchupOne)
		assert.Nil(t, row.SourceType)
	}

	for _, m := range []matchup.Matchup{final17, final18} {
		row, ok := byID[m.ID]
		require.True(t, ok, "week %d final missing", m.Week)
		require.NotNil(t, row.RoundName)
		assert.Equal(t, league.Finals, *row.RoundName)
		// Predecessors come from the last week of the source round.
		require.NotNil(t, row.PreviousMatchupOne)
		assert.Equal(t, semiA16.ID, *row.PreviousMatchupOne)
		require.NotNil(t, row.PreviousMatchupTwo)
		assert.Equal(t, semiB16.ID, *row.PreviousMatchupTwo)
	}
}
