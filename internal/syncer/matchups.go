package syncer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
)

// populateMatchups groups and stores every week of every league. Weeks are
// fetched on the week pool; a failed week leaves the rest of its league
// untouched.
func (s *Service) populateMatchups(ctx context.Context, r *run, leagueIDs []string) {
	s.forEachLeague(ctx, r, PhaseMatchupsPopulated, leagueIDs, func(ctx context.Context, leagueID string) error {
		l, err := s.store.GetLeague(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("missing league info for %s: %w", leagueID, err)
		}

		group := r.weeks.NewGroupContext(ctx)
		groupCtx := group.Context()
		for week := 1; week <= l.Weeks.TotalWeeks; week++ {
			group.Submit(func() {
				unit := Unit{Phase: PhaseMatchupsPopulated, LeagueID: leagueID, Week: week}
				if err := s.syncWeek(groupCtx, r, l, week); err != nil {
					r.report.fail(unit, err)
					s.metrics.WeekFailed()
					s.logger.WithError(err).WithFields(logrus.Fields{
						"league_id": leagueID,
						"week":      week,
					}).Error("Week failed")
					return
				}
				r.report.succeed(unit)
			})
		}
		return group.Wait()
	})
}

func (s *Service) syncWeek(ctx context.Context, r *run, l *league.League, week int) error {
	results, err := s.client.GetMatchups(ctx, l.LeagueID, week)
	if err != nil {
		return fmt.Errorf("failed to fetch matchups: %w", err)
	}

	grouped := matchup.Group(matchup.WeekInput{
		LeagueID:         l.LeagueID,
		Season:           l.Season,
		Week:             week,
		FirstPlayoffWeek: l.PlayoffWeekStart,
		RosterPositions:  l.RosterPositions,
		Results:          results,
		Cursor:           r.cursor,
	})
	if grouped.Dropped > 0 {
		r.report.DroppedResults.Add(int64(grouped.Dropped))
		s.logger.WithFields(logrus.Fields{
			"league_id": l.LeagueID,
			"week":      week,
			"dropped":   grouped.Dropped,
		}).Debug("Dropped ungroupable results")
	}
	if len(grouped.Matchups) == 0 {
		return nil
	}

	if err := s.store.UpsertMatchups(ctx, grouped.Matchups); err != nil {
		return fmt.Errorf("failed to upsert matchups: %w", err)
	}
	r.report.Matchups.Add(int64(len(grouped.Matchups)))

	failed := s.writeChunks(ctx, "matchup_players", len(grouped.Players), s.opts.MatchupPlayerChunkSize, func(ctx context.Context, from, to int) error {
		return s.store.UpsertMatchupPlayers(ctx, grouped.Players[from:to])
	})
	if failed > 0 {
		return fmt.Errorf("%d matchup player chunks failed", failed)
	}
	return nil
}
