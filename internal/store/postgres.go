package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/retry"
)

// Open connects bun to Postgres through pgdriver
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Connect opens the database and pings it with bounded retry
func Connect(ctx context.Context, dsn string, cfg retry.Config, logger *logrus.Logger) (*bun.DB, error) {
	db := Open(dsn)
	err := retry.WithBackoff(ctx, cfg, logger, "postgres ping", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Postgres implements Store on bun
type Postgres struct {
	db     bun.IDB
	logger *logrus.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an open bun database
func NewPostgres(db bun.IDB, logger *logrus.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// excluded adds "col = EXCLUDED.col" for every column
func excluded(q *bun.InsertQuery, cols ...string) *bun.InsertQuery {
	for _, c := range cols {
		q = q.Set(c + " = EXCLUDED." + c)
	}
	return q
}

func (p *Postgres) UpsertUser(ctx context.Context, u User) error {
	row := &UserRow{
		ID:            u.ID,
		SleeperUserID: u.SleeperUserID,
		Username:      u.Username,
		AvatarID:      u.AvatarID,
		UpdatedAt:     time.Now().UTC(),
	}
	q := p.db.NewInsert().Model(row).On("CONFLICT (id) DO UPDATE")
	if _, err := excluded(q, "sleeper_user_id", "sleeper_username", "avatar_id", "updated_at").Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertUser: %w", err)
	}
	return nil
}

func (p *Postgres) ExistingLeagueIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := p.db.NewSelect().
		Model((*LeagueRow)(nil)).
		Column("league_id").
		Where("league_id IN (?)", bun.In(ids)).
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("store.ExistingLeagueIDs: %w", err)
	}
	return out, nil
}

func (p *Postgres) GroupIDsForLeagues(ctx context.Context, leagueIDs []string) ([]string, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}
	var out []string
	err := p.db.NewSelect().
		Model((*LeagueRow)(nil)).
		ColumnExpr("DISTINCT league_group_id").
		Where("league_id IN (?)", bun.In(leagueIDs)).
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("store.GroupIDsForLeagues: %w", err)
	}
	return out, nil
}

func (p *Postgres) LeagueIDsInGroups(ctx context.Context, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var out []string
	err := p.db.NewSelect().
		Model((*LeagueRow)(nil)).
		Column("league_id").
		Where("league_group_id IN (?)", bun.In(groupIDs)).
		Order("league_id").
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("store.LeagueIDsInGroups: %w", err)
	}
	return out, nil
}

func (p *Postgres) GetLeague(ctx context.Context, leagueID string) (*league.League, error) {
	var row LeagueRow
	err := p.db.NewSelect().Model(&row).Where("league_id = ?", leagueID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetLeague: %w", err)
	}
	return row.toLeague(), nil
}

// UpsertLeagues replaces every stored column of each league, derived fields
// included.
func (p *Postgres) UpsertLeagues(ctx context.Context, leagues []league.League) error {
	if len(leagues) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]LeagueRow, len(leagues))
	for i, l := range leagues {
		rows[i] = toLeagueRow(l)
		rows[i].UpdatedAt = now
	}

	q := p.db.NewInsert().Model(&rows).On("CONFLICT (league_id) DO UPDATE")
	q = excluded(q,
		"league_group_id", "league_name", "season", "status", "avatar_id", "total_rosters",
		"roster_positions", "scoring_settings", "waiver_budget", "waiver_type",
		"waiver_day_of_week", "trade_deadline", "draft_rounds", "reserve_slots",
		"taxi_slots", "taxi_deadline", "taxi_years", "scoring_format", "league_format",
		"roster_type", "playoff_week_start", "playoff_teams", "playoff_round_type",
		"regular_season_weeks", "total_weeks", "playoff_rounds", "playoff_week_map",
		"playoff_bye_teams_count", "updated_at",
	)
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertLeagues: %w", err)
	}
	return nil
}

func (p *Postgres) MarkBrokenHistories(ctx context.Context, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}
	rows := make([]BrokenLeagueHistoryRow, len(groupIDs))
	for i, id := range groupIDs {
		rows[i] = BrokenLeagueHistoryRow{LeagueGroupID: id}
	}
	if _, err := p.db.NewInsert().Model(&rows).On("CONFLICT (league_group_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("store.MarkBrokenHistories: %w", err)
	}
	return nil
}

func (p *Postgres) UpsertUserLeagues(ctx context.Context, userID string, leagueIDs []string) error {
	if len(leagueIDs) == 0 {
		return nil
	}
	rows := make([]UserLeagueRow, 0, len(leagueIDs))
	seen := make(map[string]bool, len(leagueIDs))
	for _, id := range leagueIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, UserLeagueRow{UserID: userID, LeagueID: id})
	}
	if _, err := p.db.NewInsert().Model(&rows).On("CONFLICT (user_id, league_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertUserLeagues: %w", err)
	}
	return nil
}

func (p *Postgres) UserLeagueIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := p.db.NewSelect().
		Model((*UserLeagueRow)(nil)).
		Column("league_id").
		Where("user_id = ?", userID).
		Order("league_id").
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("store.UserLeagueIDs: %w", err)
	}
	return out, nil
}

func (p *Postgres) UpsertMembers(ctx context.Context, members []Member) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]LeagueMemberRow, len(members))
	for i, m := range members {
		rows[i] = LeagueMemberRow{
			LeagueID:       m.LeagueID,
			RosterID:       m.RosterID,
			SleeperUserID:  m.SleeperUserID,
			LeagueUsername: m.LeagueUsername,
		}
	}
	q := p.db.NewInsert().Model(&rows).On("CONFLICT (league_id, roster_id, sleeper_user_id) DO UPDATE")
	if _, err := excluded(q, "league_username").Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertMembers: %w", err)
	}
	return nil
}

func (p *Postgres) UpsertMatchups(ctx context.Context, matchups []matchup.Matchup) error {
	if len(matchups) == 0 {
		return nil
	}
	rows := make([]MatchupRow, len(matchups))
	for i, m := range matchups {
		rows[i] = toMatchupRow(m)
	}
	q := p.db.NewInsert().Model(&rows).On("CONFLICT (matchup_id) DO UPDATE")
	q = excluded(q,
		"matchup_status", "provider_matchup_id", "roster_one_id", "roster_two_id",
		"roster_one_score", "roster_two_score", "winning_roster_id",
	)
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertMatchups: %w", err)
	}
	return nil
}

func (p *Postgres) UpsertMatchupPlayers(ctx context.Context, entries []matchup.PlayerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]MatchupPlayerRow, len(entries))
	for i, e := range entries {
		rows[i] = toMatchupPlayerRow(e)
	}
	q := p.db.NewInsert().Model(&rows).On("CONFLICT (matchup_id, roster_id, player_id) DO UPDATE")
	q = excluded(q, "roster_position", "started", "points", "opposing_team")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertMatchupPlayers: %w", err)
	}
	return nil
}

func (p *Postgres) MatchupsInWeeks(ctx context.Context, leagueID string, from, to int) ([]matchup.Matchup, error) {
	var rows []MatchupRow
	err := p.db.NewSelect().
		Model(&rows).
		Where("league_id = ?", leagueID).
		Where("week >= ?", from).
		Where("week <= ?", to).
		Order("week ASC", "matchup_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.MatchupsInWeeks: %w", err)
	}
	out := make([]matchup.Matchup, len(rows))
	for i := range rows {
		out[i] = rows[i].toMatchup()
	}
	return out, nil
}

func (p *Postgres) UpsertPlayoffMatchups(ctx context.Context, playoffRows []bracket.Row) error {
	if len(playoffRows) == 0 {
		return nil
	}
	rows := make([]PlayoffMatchupRow, len(playoffRows))
	for i, r := range playoffRows {
		rows[i] = toPlayoffMatchupRow(r)
	}
	q := p.db.NewInsert().Model(&rows).On("CONFLICT (matchup_id) DO UPDATE")
	q = excluded(q,
		"round_name", "bracket_type", "playoff_position",
		"previous_matchup_one", "previous_matchup_two", "source_type",
	)
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertPlayoffMatchups: %w", err)
	}
	return nil
}

func (p *Postgres) UpsertPlayers(ctx context.Context, players []Player) error {
	if len(players) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]PlayerRow, len(players))
	for i, pl := range players {
		rows[i] = toPlayerRow(pl)
		rows[i].UpdatedAt = now
	}
	q := p.db.NewInsert().Model(&rows).On("CONFLICT (player_id) DO UPDATE")
	q = excluded(q,
		"full_name", "first_name", "last_name", "team", "position", "fantasy_positions",
		"number", "age", "birth_date", "college", "rookie_year", "weight", "height",
		"years_exp", "updated_at",
	)
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("store.UpsertPlayers: %w", err)
	}
	return nil
}

func (p *Postgres) LastSynced(ctx context.Context, source string) (time.Time, bool, error) {
	var row SyncStateRow
	err := p.db.NewSelect().Model(&row).Where("source = ?", source).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("store.LastSynced: %w", err)
	}
	return row.UpdatedAt, true, nil
}

func (p *Postgres) TouchSynced(ctx context.Context, source string, at time.Time) error {
	row := &SyncStateRow{Source: source, UpdatedAt: at.UTC()}
	q := p.db.NewInsert().Model(row).On("CONFLICT (source) DO UPDATE")
	if _, err := excluded(q, "updated_at").Exec(ctx); err != nil {
		return fmt.Errorf("store.TouchSynced: %w", err)
	}
	p.logger.WithField("source", source).Debug("Recorded sync time")
	return nil
}
