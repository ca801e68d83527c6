// Package matchup groups one league-week of raw Sleeper results into
// matchup records and per-player rows.
package matchup

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// BenchSlot is the lineup slot recorded for players outside the starters
const BenchSlot = "BN"

// namespace for deterministic matchup ids
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://api.sleeper.app/v1/matchups"))

// Matchup is one scheduled pairing for one league-week. A bye has no second
// roster and its only roster as the winner.
type Matchup struct {
	ID                string
	LeagueID          string
	Status            Status
	Season            string
	Week              int
	ProviderMatchupID *int
	RosterOneID       int
	RosterTwoID       *int
	RosterOneScore    float64
	RosterTwoScore    *float64
	WinningRosterID   *int
}

// IsBye reports whether the matchup has a single participant
func (m Matchup) IsBye() bool {
	return m.RosterTwoID == nil
}

// Margin is the absolute score difference, zero for a bye
func (m Matchup) Margin() float64 {
	if m.RosterTwoScore == nil {
		return 0
	}
	d := m.RosterOneScore - *m.RosterTwoScore
	if d < 0 {
		d = -d
	}
	return league.Round2(d)
}

// PlayerEntry is one player's line on one side of a matchup
type PlayerEntry struct {
	MatchupID      string
	RosterID       int
	PlayerID       string
	RosterPosition string
	Started        bool
	Points         float64
	OpposingTeam   *string
}

// WeekInput is everything needed to group one league-week
type WeekInput struct {
	LeagueID         string
	Season           string
	Week             int
	FirstPlayoffWeek int
	RosterPositions  []string
	Results          []sleeper.Matchup
	Cursor           Cursor
}

// Week is the grouped output for one league-week
type Week struct {
	Matchups []Matchup
	Players  []PlayerEntry
	// Dropped counts results that could not be grouped: entries without a
	// pairing id outside the first playoff week and oversized groups.
	Dropped int
}

// ID derives the stable matchup id from the league, season, week and the
// unordered roster pair.
func ID(leagueID, season string, week, rosterOne int, rosterTwo *int) string {
	lo, hi := rosterOne, 0
	if rosterTwo != nil {
		lo, hi = min(rosterOne, *rosterTwo), max(rosterOne, *rosterTwo)
	}
	name := fmt.Sprintf("%s|%s|%d|%d|%d", leagueID, season, week, lo, hi)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

type groupKey struct {
	matchupID int
	byeRoster int
	bye       bool
}

// Group partitions a week's results by pairing id. Entries without one are
// byes during the first playoff week and are discarded otherwise.
func Group(in WeekInput) Week {
	var out Week

	groups := make(map[groupKey][]sleeper.Matchup)
	var order []groupKey
	for _, r := range in.Results {
		var key groupKey
		switch {
		case r.MatchupID != nil:
			key = groupKey{matchupID: *r.MatchupID}
		case in.Week == in.FirstPlayoffWeek:
			key = groupKey{byeRoster: r.RosterID, bye: true}
		default:
			out.Dropped++
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.bye != b.bye {
			return !a.bye
		}
		if a.bye {
			return a.byeRoster < b.byeRoster
		}
		return a.matchupID < b.matchupID
	})

	status := MapStatus(in.Season, in.Week, in.Cursor)
	for _, key := range order {
		pair := groups[key]
		if len(pair) > 2 {
			out.Dropped += len(pair)
			continue
		}

		m := buildMatchup(in, pair, status)
		out.Matchups = append(out.Matchups, m)
		for _, side := range pair {
			out.Players = append(out.Players, playerEntries(m.ID, side, in.RosterPositions)...)
		}
	}

	return out
}

func buildMatchup(in WeekInput, pair []sleeper.Matchup, status Status) Matchup {
	a := pair[0]
	m := Matchup{
		LeagueID:       in.LeagueID,
		Status:         status,
		Season:         in.Season,
		Week:           in.Week,
		RosterOneID:    a.RosterID,
		RosterOneScore: league.Round2(a.Points),
	}

	one := a.RosterID
	if len(pair) == 1 {
		m.WinningRosterID = &one
		m.ID = ID(in.LeagueID, in.Season, in.Week, a.RosterID, nil)
		return m
	}

	b := pair[1]
	two := b.RosterID
	twoScore := league.Round2(b.Points)
	m.ProviderMatchupID = a.MatchupID
	m.RosterTwoID = &two
	m.RosterTwoScore = &twoScore

	switch {
	case m.RosterOneScore > twoScore:
		m.WinningRosterID = &one
	case twoScore > m.RosterOneScore:
		m.WinningRosterID = m.RosterTwoID
	}

	m.ID = ID(in.LeagueID, in.Season, in.Week, a.RosterID, &two)
	return m
}

func playerEntries(matchupID string, side sleeper.Matchup, positions []string) []PlayerEntry {
	starterAt := make(map[string]int, len(side.Starters))
	for i, id := range side.Starters {
		if _, dup := starterAt[id]; !dup {
			starterAt[id] = i
		}
	}

	entries := make([]PlayerEntry, 0, len(side.Players))
	for _, playerID := range side.Players {
		idx, started := starterAt[playerID]
		slot := BenchSlot
		if started && idx < len(positions) {
			slot = positions[idx]
		}

		entries = append(entries, PlayerEntry{
			MatchupID:      matchupID,
			RosterID:       side.RosterID,
			PlayerID:       playerID,
			RosterPosition: slot,
			Started:        started,
			Points:         league.Round2(side.PlayersPoints[playerID]),
		})
	}
	return entries
}

// LookupKey identifies a matchup by week and unordered participants. A missing
// participant is recorded as roster zero.
type LookupKey struct {
	Week int
	Low  int
	High int
}

// KeyFor builds the ordering-insensitive lookup key
func KeyFor(week int, a, b *int) LookupKey {
	x, y := deref(a), deref(b)
	return LookupKey{Week: week, Low: min(x, y), High: max(x, y)}
}

// Key is the lookup key for a persisted matchup
func (m Matchup) Key() LookupKey {
	return KeyFor(m.Week, &m.RosterOneID, m.RosterTwoID)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// String renders the key as week|low|high
func (k LookupKey) String() string {
	return strconv.Itoa(k.Week) + "|" + strconv.Itoa(k.Low) + "|" + strconv.Itoa(k.High)
}
