package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// UserRow is an authenticated account mapped to a Sleeper user
type UserRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string    `bun:"id,pk,type:varchar(64)"`
	SleeperUserID string    `bun:"sleeper_user_id,notnull,type:varchar(32)"`
	Username      string    `bun:"sleeper_username,notnull"`
	AvatarID      string    `bun:"avatar_id,nullzero"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// LeagueRow is one season of a league with its derived structure
type LeagueRow struct {
	bun.BaseModel `bun:"table:leagues,alias:l"`
	LeagueID      string  `bun:"league_id,pk,type:varchar(32)"`
	LeagueGroupID string  `bun:"league_group_id,notnull,type:uuid"`
	Name          string  `bun:"league_name,notnull"`
	Season        string  `bun:"season,notnull,type:varchar(8)"`
	Status        string  `bun:"status,notnull"`
	AvatarID      *string `bun:"avatar_id"`
	TotalRosters  int     `bun:"total_rosters,notnull"`

	RosterPositions []string           `bun:"roster_positions,array"`
	ScoringSettings map[string]float64 `bun:"scoring_settings,type:jsonb"`

	WaiverBudget    int    `bun:"waiver_budget,notnull"`
	WaiverType      string `bun:"waiver_type,notnull"`
	WaiverDayOfWeek int    `bun:"waiver_day_of_week,notnull"`
	TradeDeadline   int    `bun:"trade_deadline,notnull"`
	DraftRounds     int    `bun:"draft_rounds,notnull"`
	ReserveSlots    int    `bun:"reserve_slots,notnull"`
	TaxiSlots       int    `bun:"taxi_slots,notnull"`
	TaxiDeadline    int    `bun:"taxi_deadline,notnull"`
	TaxiYears       int    `bun:"taxi_years,notnull"`

	ScoringFormat string `bun:"scoring_format,notnull"`
	LeagueFormat  string `bun:"league_format,notnull"`
	RosterType    string `bun:"roster_type,notnull"`

	PlayoffWeekStart     int              `bun:"playoff_week_start,notnull"`
	PlayoffTeams         int              `bun:"playoff_teams,notnull"`
	PlayoffRoundType     string           `bun:"playoff_round_type,notnull"`
	RegularSeasonWeeks   int              `bun:"regular_season_weeks,notnull"`
	TotalWeeks           int              `bun:"total_weeks,notnull"`
	PlayoffRounds        []string         `bun:"playoff_rounds,array"`
	PlayoffWeekMap       map[string][]int `bun:"playoff_week_map,type:jsonb"`
	PlayoffByeTeamsCount int              `bun:"playoff_bye_teams_count,notnull"`

	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// BrokenLeagueHistoryRow marks a lineage group whose backward walk stopped early
type BrokenLeagueHistoryRow struct {
	bun.BaseModel `bun:"table:broken_league_histories,alias:blh"`
	LeagueGroupID string    `bun:"league_group_id,pk,type:uuid"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// UserLeagueRow grants a user access to a league
type UserLeagueRow struct {
	bun.BaseModel `bun:"table:user_leagues,alias:ul"`
	UserID        string `bun:"user_id,pk,type:varchar(64)"`
	LeagueID      string `bun:"league_id,pk,type:varchar(32)"`
}

// LeagueMemberRow is one owner of one roster
type LeagueMemberRow struct {
	bun.BaseModel  `bun:"table:league_members,alias:lm"`
	LeagueID       string  `bun:"league_id,pk,type:varchar(32)"`
	RosterID       int     `bun:"roster_id,pk"`
	SleeperUserID  string  `bun:"sleeper_user_id,pk,type:varchar(32)"`
	LeagueUsername *string `bun:"league_username"`
}

// MatchupRow is one league-week pairing
type MatchupRow struct {
	bun.BaseModel   `bun:"table:matchups,alias:m"`
	MatchupID       string   `bun:"matchup_id,pk,type:uuid"`
	LeagueID        string   `bun:"league_id,notnull,type:varchar(32)"`
	Status          string   `bun:"matchup_status,notnull"`
	Season          string   `bun:"season,notnull,type:varchar(8)"`
	Week            int      `bun:"week,notnull"`
	ProviderID      *int     `bun:"provider_matchup_id"`
	RosterOneID     int      `bun:"roster_one_id,notnull"`
	RosterTwoID     *int     `bun:"roster_two_id"`
	RosterOneScore  float64  `bun:"roster_one_score,notnull"`
	RosterTwoScore  *float64 `bun:"roster_two_score"`
	WinningRosterID *int     `bun:"winning_roster_id"`
}

// MatchupPlayerRow is one player's line in one matchup
type MatchupPlayerRow struct {
	bun.BaseModel  `bun:"table:matchup_players,alias:mp"`
	MatchupID      string  `bun:"matchup_id,pk,type:uuid"`
	RosterID       int     `bun:"roster_id,pk"`
	PlayerID       string  `bun:"player_id,pk,type:varchar(16)"`
	RosterPosition string  `bun:"roster_position,notnull"`
	Started        bool    `bun:"started,notnull"`
	Points         float64 `bun:"points,notnull"`
	OpposingTeam   *string `bun:"opposing_team"`
}

// PlayoffMatchupRow gives a matchup its bracket semantics
type PlayoffMatchupRow struct {
	bun.BaseModel      `bun:"table:playoff_matchups,alias:pm"`
	MatchupID          string  `bun:"matchup_id,pk,type:uuid"`
	RoundName          *string `bun:"round_name"`
	BracketType        string  `bun:"bracket_type,notnull"`
	PlayoffPosition    *int    `bun:"playoff_position"`
	PreviousMatchupOne *string `bun:"previous_matchup_one,type:uuid"`
	PreviousMatchupTwo *string `bun:"previous_matchup_two,type:uuid"`
	SourceType         *string `bun:"source_type"`
}

// PlayerRow is one player in the global table
type PlayerRow struct {
	bun.BaseModel    `bun:"table:players,alias:p"`
	PlayerID         string    `bun:"player_id,pk,type:varchar(16)"`
	FullName         string    `bun:"full_name"`
	FirstName        string    `bun:"first_name"`
	LastName         string    `bun:"last_name"`
	Team             *string   `bun:"team"`
	Position         string    `bun:"position"`
	FantasyPositions []string  `bun:"fantasy_positions,array"`
	Number           *int      `bun:"number"`
	Age              *int      `bun:"age"`
	BirthDate        *string   `bun:"birth_date"`
	College          *string   `bun:"college"`
	RookieYear       *string   `bun:"rookie_year"`
	Weight           *string   `bun:"weight"`
	Height           *string   `bun:"height"`
	YearsExp         *int      `bun:"years_exp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SyncStateRow records when a global source was last refreshed
type SyncStateRow struct {
	bun.BaseModel `bun:"table:sync_state,alias:ss"`
	Source        string    `bun:"source,pk"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func toLeagueRow(l league.League) LeagueRow {
	rounds := make([]string, len(l.Weeks.Rounds))
	for i, r := range l.Weeks.Rounds {
		rounds[i] = string(r)
	}
	weekMap := make(map[string][]int, len(l.Weeks.WeekMap))
	for name, weeks := range l.Weeks.WeekMap {
		weekMap[string(name)] = weeks
	}

	return LeagueRow{
		LeagueID:             l.LeagueID,
		LeagueGroupID:        l.LeagueGroupID,
		Name:                 l.Name,
		Season:               l.Season,
		Status:               l.Status,
		AvatarID:             l.AvatarID,
		TotalRosters:         l.TotalRosters,
		RosterPositions:      l.RosterPositions,
		ScoringSettings:      l.ScoringSettings,
		WaiverBudget:         l.WaiverBudget,
		WaiverType:           string(l.WaiverType),
		WaiverDayOfWeek:      l.WaiverDayOfWeek,
		TradeDeadline:        l.TradeDeadline,
		DraftRounds:          l.DraftRounds,
		ReserveSlots:         l.ReserveSlots,
		TaxiSlots:            l.TaxiSlots,
		TaxiDeadline:         l.TaxiDeadline,
		TaxiYears:            l.TaxiYears,
		ScoringFormat:        string(l.ScoringFormat),
		LeagueFormat:         string(l.Format),
		RosterType:           string(l.RosterType),
		PlayoffWeekStart:     l.PlayoffWeekStart,
		PlayoffTeams:         l.PlayoffTeams,
		PlayoffRoundType:     string(l.PlayoffRoundType),
		RegularSeasonWeeks:   l.Weeks.RegularSeasonWeeks,
		TotalWeeks:           l.Weeks.TotalWeeks,
		PlayoffRounds:        rounds,
		PlayoffWeekMap:       weekMap,
		PlayoffByeTeamsCount: l.PlayoffByeTeamsCount,
	}
}

func (r *LeagueRow) toLeague() *league.League {
	rounds := make([]league.RoundName, len(r.PlayoffRounds))
	for i, name := range r.PlayoffRounds {
		rounds[i] = league.RoundName(name)
	}
	weekMap := make(map[league.RoundName][]int, len(r.PlayoffWeekMap))
	for name, weeks := range r.PlayoffWeekMap {
		weekMap[league.RoundName(name)] = weeks
	}

	return &league.League{
		LeagueID:             r.LeagueID,
		LeagueGroupID:        r.LeagueGroupID,
		Name:                 r.Name,
		Season:               r.Season,
		Status:               r.Status,
		AvatarID:             r.AvatarID,
		TotalRosters:         r.TotalRosters,
		RosterPositions:      r.RosterPositions,
		ScoringSettings:      r.ScoringSettings,
		WaiverBudget:         r.WaiverBudget,
		WaiverType:           league.WaiverType(r.WaiverType),
		WaiverDayOfWeek:      r.WaiverDayOfWeek,
		TradeDeadline:        r.TradeDeadline,
		DraftRounds:          r.DraftRounds,
		ReserveSlots:         r.ReserveSlots,
		TaxiSlots:            r.TaxiSlots,
		TaxiDeadline:         r.TaxiDeadline,
		TaxiYears:            r.TaxiYears,
		ScoringFormat:        league.ScoringFormat(r.ScoringFormat),
		Format:               league.Format(r.LeagueFormat),
		RosterType:           league.RosterType(r.RosterType),
		PlayoffWeekStart:     r.PlayoffWeekStart,
		PlayoffTeams:         r.PlayoffTeams,
		PlayoffRoundType:     league.RoundType(r.PlayoffRoundType),
		PlayoffByeTeamsCount: r.PlayoffByeTeamsCount,
		Weeks: league.WeekInfo{
			RegularSeasonWeeks: r.RegularSeasonWeeks,
			TotalWeeks:         r.TotalWeeks,
			Rounds:             rounds,
			WeekMap:            weekMap,
		},
	}
}

func toMatchupRow(m matchup.Matchup) MatchupRow {
	return MatchupRow{
		MatchupID:       m.ID,
		LeagueID:        m.LeagueID,
		Status:          string(m.Status),
		Season:          m.Season,
		Week:            m.Week,
		ProviderID:      m.ProviderMatchupID,
		RosterOneID:     m.RosterOneID,
		RosterTwoID:     m.RosterTwoID,
		RosterOneScore:  m.RosterOneScore,
		RosterTwoScore:  m.RosterTwoScore,
		WinningRosterID: m.WinningRosterID,
	}
}

func (r *MatchupRow) toMatchup() matchup.Matchup {
	return matchup.Matchup{
		ID:                r.MatchupID,
		LeagueID:          r.LeagueID,
		Status:            matchup.Status(r.Status),
		Season:            r.Season,
		Week:              r.Week,
		ProviderMatchupID: r.ProviderID,
		RosterOneID:       r.RosterOneID,
		RosterTwoID:       r.RosterTwoID,
		RosterOneScore:    r.RosterOneScore,
		RosterTwoScore:    r.RosterTwoScore,
		WinningRosterID:   r.WinningRosterID,
	}
}

func toMatchupPlayerRow(e matchup.PlayerEntry) MatchupPlayerRow {
	return MatchupPlayerRow{
		MatchupID:      e.MatchupID,
		RosterID:       e.RosterID,
		PlayerID:       e.PlayerID,
		RosterPosition: e.RosterPosition,
		Started:        e.Started,
		Points:         e.Points,
		OpposingTeam:   e.OpposingTeam,
	}
}

func toPlayoffMatchupRow(r bracket.Row) PlayoffMatchupRow {
	row := PlayoffMatchupRow{
		MatchupID:          r.MatchupID,
		BracketType:        string(r.BracketType),
		PlayoffPosition:    r.PlayoffPosition,
		PreviousMatchupOne: r.PreviousMatchupOne,
		PreviousMatchupTwo: r.PreviousMatchupTwo,
	}
	if r.RoundName != nil {
		name := string(*r.RoundName)
		row.RoundName = &name
	}
	if r.SourceType != nil {
		src := string(*r.SourceType)
		row.SourceType = &src
	}
	return row
}

func toPlayerRow(p Player) PlayerRow {
	return PlayerRow{
		PlayerID:         p.PlayerID,
		FullName:         p.FullName,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Team:             p.Team,
		Position:         p.Position,
		FantasyPositions: p.FantasyPositions,
		Number:           p.Number,
		Age:              p.Age,
		BirthDate:        p.BirthDate,
		College:          p.College,
		RookieYear:       p.RookieYear,
		Weight:           p.Weight,
		Height:           p.Height,
		YearsExp:         p.YearsExp,
	}
}

// PlayerFromSleeper maps a Sleeper player record to a player row
func PlayerFromSleeper(id string, p sleeper.Player) Player {
	out := Player{
		PlayerID:         id,
		FullName:         p.FullName,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Team:             p.Team,
		Position:         p.Position,
		FantasyPositions: p.FantasyPositions,
		Number:           p.Number,
		Age:              p.Age,
		BirthDate:        p.BirthDate,
		College:          p.College,
		Weight:           p.Weight,
		Height:           p.Height,
		YearsExp:         p.YearsExp,
	}
	if p.Metadata != nil && p.Metadata.RookieYear != "" {
		year := p.Metadata.RookieYear
		out.RookieYear = &year
	}
	return out
}
