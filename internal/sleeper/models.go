package sleeper

// League represents a Sleeper fantasy league
type League struct {
	LeagueID         string             `json:"league_id"`
	PreviousLeagueID *string            `json:"previous_league_id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Sport            string             `json:"sport"`
	Season           string             `json:"season"`
	Settings         LeagueSettings     `json:"settings"`
	ScoringSettings  map[string]float64 `json:"scoring_settings"`
	RosterPositions  []string           `json:"roster_positions"`
	TotalRosters     int                `json:"total_rosters"`
	DraftID          string             `json:"draft_id"`
	Avatar           *string            `json:"avatar"`
}

// HasPrevious reports whether the league points at a prior season.
func (l *League) HasPrevious() bool {
	return l.PreviousLeagueID != nil && *l.PreviousLeagueID != "" && *l.PreviousLeagueID != "0"
}

// LeagueSettings contains league configuration
type LeagueSettings struct {
	PlayoffTeams     int `json:"playoff_teams"`
	PlayoffWeekStart int `json:"playoff_week_start"`
	PlayoffRoundType int `json:"playoff_round_type"`
	PlayoffSeedType  int `json:"playoff_seed_type"`
	PlayoffType      int `json:"playoff_type"`
	NumTeams         int `json:"num_teams"`
	StartWeek        int `json:"start_week"`
	LastScoredLeg    int `json:"last_scored_leg"`
	Leg              int `json:"leg"`
	Type             int `json:"type"`
	BestBall         int `json:"best_ball"`
	MaxKeepers       int `json:"max_keepers"`
	DraftRounds      int `json:"draft_rounds"`
	TradeDeadline    int `json:"trade_deadline"`
	ReserveSlots     int `json:"reserve_slots"`
	TaxiSlots        int `json:"taxi_slots"`
	TaxiDeadline     int `json:"taxi_deadline"`
	TaxiYears        int `json:"taxi_years"`
	WaiverType       int `json:"waiver_type"`
	WaiverBudget     int `json:"waiver_budget"`
	WaiverDayOfWeek  int `json:"waiver_day_of_week"`
	DailyWaivers     int `json:"daily_waivers"`
}

// User represents a Sleeper user
type User struct {
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Avatar      string        `json:"avatar"`
	Metadata    *UserMetadata `json:"metadata"`
}

// UserMetadata holds the loosely structured per-league user fields.
type UserMetadata struct {
	TeamName string `json:"team_name,omitempty"`
}

// Roster represents a team's roster
type Roster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	CoOwners []string       `json:"co_owners"`
	Players  []string       `json:"players"`
	Starters []string       `json:"starters"`
	Reserve  []string       `json:"reserve"`
	Taxi     []string       `json:"taxi"`
	Settings RosterSettings `json:"settings"`
}

// Owners returns the primary owner followed by any co-owners.
func (r Roster) Owners() []string {
	owners := make([]string, 0, 1+len(r.CoOwners))
	if r.OwnerID != "" {
		owners = append(owners, r.OwnerID)
	}
	return append(owners, r.CoOwners...)
}

// RosterSettings contains team performance data
type RosterSettings struct {
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	Ties               int     `json:"ties"`
	FPTS               float64 `json:"fpts"`
	FPTSDecimal        float64 `json:"fpts_decimal"`
	FPTSAgainst        float64 `json:"fpts_against"`
	FPTSAgainstDecimal float64 `json:"fpts_against_decimal"`
	WaiverPosition     int     `json:"waiver_position"`
	WaiverBudgetUsed   int     `json:"waiver_budget_used"`
}

// Player represents an NFL player
type Player struct {
	PlayerID         string          `json:"player_id"`
	FullName         string          `json:"full_name"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Position         string          `json:"position"`
	Team             *string         `json:"team"`
	Status           string          `json:"status"`
	FantasyPositions []string        `json:"fantasy_positions"`
	Number           *int            `json:"number"`
	Age              *int            `json:"age"`
	BirthDate        *string         `json:"birth_date"`
	Height           *string         `json:"height"`
	Weight           *string         `json:"weight"`
	YearsExp         *int            `json:"years_exp"`
	College          *string         `json:"college"`
	Metadata         *PlayerMetadata `json:"metadata"`
}

// PlayerMetadata holds optional player attributes
type PlayerMetadata struct {
	RookieYear string `json:"rookie_year,omitempty"`
}

// Matchup represents one roster's result for a week. Rosters sharing a
// MatchupID played each other; a nil MatchupID marks a bye or an empty week.
type Matchup struct {
	RosterID       int                `json:"roster_id"`
	MatchupID      *int               `json:"matchup_id"`
	Points         float64            `json:"points"`
	Starters       []string           `json:"starters"`
	StartersPoints []float64          `json:"starters_points"`
	Players        []string           `json:"players"`
	PlayersPoints  map[string]float64 `json:"players_points"`
	CustomPoints   *float64           `json:"custom_points"`
}

// BracketType selects the winners or losers playoff bracket
type BracketType string

const (
	WinnersBracket BracketType = "winners"
	LosersBracket  BracketType = "losers"
)

// BracketMatchup represents a playoff bracket matchup from Sleeper's bracket API
type BracketMatchup struct {
	MatchupID int            `json:"m"`           // bracket node id
	Round     int            `json:"r"`           // 1-based round
	Winner    *int           `json:"w"`           // winner roster ID
	Loser     *int           `json:"l"`           // loser roster ID
	Team1     *int           `json:"t1"`          // team 1 roster ID, nil until decided
	Team2     *int           `json:"t2"`          // team 2 roster ID, nil until decided
	Position  *int           `json:"p,omitempty"` // placement decided by this game (1 = championship)
	Team1From *BracketSource `json:"t1_from,omitempty"`
	Team2From *BracketSource `json:"t2_from,omitempty"`
}

// BracketSource says a slot is filled by the winner or loser of another node.
type BracketSource struct {
	Winner *int `json:"w,omitempty"`
	Loser  *int `json:"l,omitempty"`
}

// IsWinner reports whether the slot advances the winner of its source node.
func (s *BracketSource) IsWinner() bool {
	return s != nil && s.Winner != nil
}

// Node returns the referenced bracket node id.
func (s *BracketSource) Node() (int, bool) {
	switch {
	case s == nil:
		return 0, false
	case s.Winner != nil:
		return *s.Winner, true
	case s.Loser != nil:
		return *s.Loser, true
	}
	return 0, false
}

// State is the provider's season/week cursor
type State struct {
	Week           int    `json:"week"`
	Season         string `json:"season"`
	SeasonType     string `json:"season_type"`
	LeagueSeason   string `json:"league_season"`
	DisplayWeek    int    `json:"display_week"`
	Leg            int    `json:"leg"`
	PreviousSeason string `json:"previous_season"`
}

// SleeperError represents an error from the Sleeper API
type SleeperError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *SleeperError) Error() string {
	return e.Message
}
