// Package league holds the classification rules that turn raw Sleeper
// settings into the enumerated structure the rest of the sync relies on.
package league

import "slices"

// ScoringFormat is the derived scoring tier of a league
type ScoringFormat string

const (
	Standard          ScoringFormat = "Standard"
	PPR               ScoringFormat = "PPR"
	HalfPPR           ScoringFormat = "Half PPR"
	StandardSuperFlex ScoringFormat = "Standard Super Flex"
	PPRSuperFlex      ScoringFormat = "PPR Super Flex"
	HalfPPRSuperFlex  ScoringFormat = "Half PPR Super Flex"
)

// Format is the keeper rule set of a league
type Format string

const (
	Redraft Format = "redraft"
	Keeper  Format = "keeper"
	Dynasty Format = "dynasty"
)

// WaiverType is the waiver processing scheme
type WaiverType string

const (
	RollingWaivers   WaiverType = "rolling_waivers"
	ReverseStandings WaiverType = "reverse_standings"
	FAABBidding      WaiverType = "faab_bidding"
)

// RosterType distinguishes managed lineups from best ball
type RosterType string

const (
	Classic  RosterType = "classic"
	BestBall RosterType = "best ball"
)

// RoundType is the playoff week cadence
type RoundType string

const (
	OneWeekPerRound     RoundType = "one_week_per_round"
	TwoWeekChampionship RoundType = "two_week_championship"
	TwoWeeksPerRound    RoundType = "two_weeks_per_round"
)

// RoundName names one playoff round
type RoundName string

const (
	Quarterfinals RoundName = "quarterfinals"
	Semifinals    RoundName = "semifinals"
	Finals        RoundName = "finals"
)

const superFlexSlot = "SUPER_FLEX"

// DetermineScoringFormat picks the PPR tier from the "rec" setting and upgrades
// it to the SuperFlex variant when the roster layout has a SUPER_FLEX slot.
func DetermineScoringFormat(rosterPositions []string, scoring map[string]float64) ScoringFormat {
	base := Standard
	switch scoring["rec"] {
	case 1:
		base = PPR
	case 0.5:
		base = HalfPPR
	}

	if !slices.Contains(rosterPositions, superFlexSlot) {
		return base
	}
	switch base {
	case PPR:
		return PPRSuperFlex
	case HalfPPR:
		return HalfPPRSuperFlex
	default:
		return StandardSuperFlex
	}
}

// DetermineFormat maps Sleeper's settings.type. Unknown codes fall back to
// Redraft and report ok=false.
func DetermineFormat(code int) (Format, bool) {
	switch code {
	case 0:
		return Redraft, true
	case 1:
		return Keeper, true
	case 2:
		return Dynasty, true
	}
	return Redraft, false
}

// DetermineWaiverType maps settings.waiver_type. Unknown codes fall back to
// rolling waivers and report ok=false.
func DetermineWaiverType(code int) (WaiverType, bool) {
	switch code {
	case 0:
		return RollingWaivers, true
	case 1:
		return ReverseStandings, true
	case 2:
		return FAABBidding, true
	}
	return RollingWaivers, false
}

// DetermineRoundType maps settings.playoff_round_type. Unknown codes fall back
// to one week per round and report ok=false.
func DetermineRoundType(code int) (RoundType, bool) {
	switch code {
	case 0:
		return OneWeekPerRound, true
	case 1:
		return TwoWeekChampionship, true
	case 2:
		return TwoWeeksPerRound, true
	}
	return OneWeekPerRound, false
}

// DetermineRosterType maps the best_ball flag
func DetermineRosterType(bestBall int) RosterType {
	if bestBall == 0 {
		return Classic
	}
	return BestBall
}

// ByeTeamCount returns how many seeds sit out the first playoff round
func ByeTeamCount(playoffTeams int) int {
	switch playoffTeams {
	case 5:
		return 3
	case 6:
		return 2
	case 7:
		return 1
	default:
		return 0
	}
}

// Rounds returns the ordered playoff round names for a bracket size
func Rounds(playoffTeams int) []RoundName {
	if playoffTeams <= 4 {
		return []RoundName{Semifinals, Finals}
	}
	return []RoundName{Quarterfinals, Semifinals, Finals}
}

// RoundDuration is the number of calendar weeks a round spans
func RoundDuration(roundType RoundType, round RoundName) int {
	switch roundType {
	case TwoWeeksPerRound:
		return 2
	case TwoWeekChampionship:
		if round == Finals {
			return 2
		}
	}
	return 1
}

// WeekInfo is the calendar layout of a season
type WeekInfo struct {
	RegularSeasonWeeks int
	TotalWeeks         int
	Rounds             []RoundName
	WeekMap            map[RoundName][]int
}

// MapWeekInfo lays out the playoff rounds on calendar weeks starting at
// playoffStart. It is the single source of truth for week to round mapping.
func MapWeekInfo(playoffStart, playoffTeams int, roundType RoundType) WeekInfo {
	rounds := Rounds(playoffTeams)
	weekMap := make(map[RoundName][]int, len(rounds))

	week := playoffStart
	for _, r := range rounds {
		weekMap[r] = WeeksForRound(week, roundType, r)
		week += RoundDuration(roundType, r)
	}

	return WeekInfo{
		RegularSeasonWeeks: playoffStart - 1,
		TotalWeeks:         week - 1,
		Rounds:             rounds,
		WeekMap:            weekMap,
	}
}

// WeeksForRound returns the consecutive weeks a round beginning at start spans
// under roundType.
func WeeksForRound(start int, roundType RoundType, round RoundName) []int {
	weeks := make([]int, RoundDuration(roundType, round))
	for i := range weeks {
		weeks[i] = start + i
	}
	return weeks
}

// RoundAt returns the round name for a 1-based bracket round index
func (w WeekInfo) RoundAt(index int) (RoundName, bool) {
	if index < 1 || index > len(w.Rounds) {
		return "", false
	}
	return w.Rounds[index-1], true
}

// FirstPlayoffWeek is the first calendar week of the playoffs
func (w WeekInfo) FirstPlayoffWeek() int {
	return w.RegularSeasonWeeks + 1
}
