package league

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// League is one season's configuration plus every derived structural field.
// Raw Sleeper payloads never travel past FromSleeper.
type League struct {
	LeagueID      string
	LeagueGroupID string
	Name          string
	Season        string
	Status        string
	AvatarID      *string
	TotalRosters  int

	RosterPositions []string
	ScoringSettings map[string]float64

	WaiverBudget    int
	WaiverType      WaiverType
	WaiverDayOfWeek int
	TradeDeadline   int
	DraftRounds     int
	ReserveSlots    int
	TaxiSlots       int
	TaxiDeadline    int
	TaxiYears       int

	ScoringFormat ScoringFormat
	Format        Format
	RosterType    RosterType

	PlayoffWeekStart     int
	PlayoffTeams         int
	PlayoffRoundType     RoundType
	PlayoffByeTeamsCount int
	Weeks                WeekInfo
}

// FromSleeper classifies a raw league and stamps it with groupID. Unknown
// setting codes are logged and replaced by their documented defaults.
func FromSleeper(logger *logrus.Logger, raw *sleeper.League, groupID string) League {
	s := raw.Settings
	log := logger.WithField("league_id", raw.LeagueID)

	scoring := RoundScoring(raw.ScoringSettings)

	format, ok := DetermineFormat(s.Type)
	if !ok {
		log.WithField("type", s.Type).Warn("Unknown league type, defaulting to redraft")
	}
	waivers, ok := DetermineWaiverType(s.WaiverType)
	if !ok {
		log.WithField("waiver_type", s.WaiverType).Warn("Unknown waiver type, defaulting to rolling waivers")
	}
	roundType, ok := DetermineRoundType(s.PlayoffRoundType)
	if !ok {
		log.WithField("playoff_round_type", s.PlayoffRoundType).Warn("Unknown playoff round type, defaulting to one week per round")
	}

	return League{
		LeagueID:        raw.LeagueID,
		LeagueGroupID:   groupID,
		Name:            raw.Name,
		Season:          raw.Season,
		Status:          raw.Status,
		AvatarID:        raw.Avatar,
		TotalRosters:    raw.TotalRosters,
		RosterPositions: raw.RosterPositions,
		ScoringSettings: scoring,

		WaiverBudget:    s.WaiverBudget,
		WaiverType:      waivers,
		WaiverDayOfWeek: s.WaiverDayOfWeek,
		TradeDeadline:   s.TradeDeadline,
		DraftRounds:     s.DraftRounds,
		ReserveSlots:    s.ReserveSlots,
		TaxiSlots:       s.TaxiSlots,
		TaxiDeadline:    s.TaxiDeadline,
		TaxiYears:       s.TaxiYears,

		ScoringFormat: DetermineScoringFormat(raw.RosterPositions, scoring),
		Format:        format,
		RosterType:    DetermineRosterType(s.BestBall),

		PlayoffWeekStart:     s.PlayoffWeekStart,
		PlayoffTeams:         s.PlayoffTeams,
		PlayoffRoundType:     roundType,
		PlayoffByeTeamsCount: ByeTeamCount(s.PlayoffTeams),
		Weeks:                MapWeekInfo(s.PlayoffWeekStart, s.PlayoffTeams, roundType),
	}
}

// RoundScoring copies scoring settings rounded to two decimals
func RoundScoring(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = Round2(v)
	}
	return out
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
