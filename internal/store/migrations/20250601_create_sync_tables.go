package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/sam-maryland/sleeper-sync/internal/store"
)

type table struct {
	model       any
	name        string
	foreignKeys []string
}

// Parents first; the down migration drops in reverse.
var tables = []table{
	{model: (*store.UserRow)(nil), name: "users"},
	{model: (*store.LeagueRow)(nil), name: "leagues"},
	{model: (*store.BrokenLeagueHistoryRow)(nil), name: "broken_league_histories"},
	{
		model:       (*store.UserLeagueRow)(nil),
		name:        "user_leagues",
		foreignKeys: []string{`("league_id") REFERENCES "leagues" ("league_id") ON DELETE CASCADE`},
	},
	{
		model:       (*store.LeagueMemberRow)(nil),
		name:        "league_members",
		foreignKeys: []string{`("league_id") REFERENCES "leagues" ("league_id") ON DELETE CASCADE`},
	},
	{
		model:       (*store.MatchupRow)(nil),
		name:        "matchups",
		foreignKeys: []string{`("league_id") REFERENCES "leagues" ("league_id") ON DELETE CASCADE`},
	},
	{
		model:       (*store.MatchupPlayerRow)(nil),
		name:        "matchup_players",
		foreignKeys: []string{`("matchup_id") REFERENCES "matchups" ("matchup_id") ON DELETE CASCADE`},
	},
	{
		model: (*store.PlayoffMatchupRow)(nil),
		name:  "playoff_matchups",
		foreignKeys: []string{
			`("matchup_id") REFERENCES "matchups" ("matchup_id") ON DELETE CASCADE`,
			`("previous_matchup_one") REFERENCES "matchups" ("matchup_id") ON DELETE SET NULL`,
			`("previous_matchup_two") REFERENCES "matchups" ("matchup_id") ON DELETE SET NULL`,
		},
	},
	{model: (*store.PlayerRow)(nil), name: "players"},
	{model: (*store.SyncStateRow)(nil), name: "sync_state"},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, t := range tables {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("failed to create %s table: %w", t.name, err)
				}
			}

			_, err := db.NewCreateIndex().
				Model((*store.MatchupRow)(nil)).
				Index("matchups_league_week_idx").
				Column("league_id", "week").
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create matchups index: %w", err)
			}

			_, err = db.NewCreateIndex().
				Model((*store.LeagueRow)(nil)).
				Index("leagues_group_idx").
				Column("league_group_id").
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create leagues index: %w", err)
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for i := len(tables) - 1; i >= 0; i-- {
				t := tables[i]
				if _, err := db.NewDropTable().Model(t.model).IfExists().Cascade().Exec(ctx); err != nil {
					return fmt.Errorf("failed to drop %s table: %w", t.name, err)
				}
			}
			return nil
		},
	)
}
