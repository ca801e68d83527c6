package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// persistError marks a league whose resolved playoff rows could not be
// written. Unlike other league failures it fails the run.
type persistError struct {
	leagueID string
	err      error
}

func (e *persistError) Error() string {
	return fmt.Sprintf("failed to upsert playoff matchups for league %s: %v", e.leagueID, e.err)
}

func (e *persistError) Unwrap() error { return e.err }

// populatePlayoffs resolves both brackets of every league whose playoffs have
// started. Leagues without brackets are skipped; a failed write is returned
// as an error naming every league affected.
func (s *Service) populatePlayoffs(ctx context.Context, r *run, leagueIDs []string) error {
	persistFailures := xsync.NewMap[string, error]()

	s.forEachLeague(ctx, r, PhasePlayoffsPopulated, leagueIDs, func(ctx context.Context, leagueID string) error {
		err := s.syncPlayoffs(ctx, r, leagueID)
		var pe *persistError
		if errors.As(err, &pe) {
			persistFailures.Store(leagueID, err)
		}
		return err
	})

	if persistFailures.Size() == 0 {
		return nil
	}
	var ids []string
	persistFailures.Range(func(id string, _ error) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return fmt.Errorf("failed to upsert playoff matchups for leagues: %s", strings.Join(ids, ", "))
}

func (s *Service) syncPlayoffs(ctx context.Context, r *run, leagueID string) error {
	l, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("missing league info for %s: %w", leagueID, err)
	}
	log := s.logger.WithField("league_id", leagueID)

	current := r.cursor.IsCurrentSeason(l.Season)
	if current && r.cursor.Week < l.PlayoffWeekStart {
		log.WithField("playoff_week_start", l.PlayoffWeekStart).Debug("Playoffs not started")
		return errSkipped
	}

	winners, werr := s.client.GetBracket(ctx, leagueID, sleeper.WinnersBracket)
	losers, lerr := s.client.GetBracket(ctx, leagueID, sleeper.LosersBracket)
	if werr != nil || lerr != nil || winners == nil || losers == nil {
		log.WithError(errors.Join(werr, lerr)).Warn("Playoff brackets unavailable, skipping league")
		return errSkipped
	}

	last := l.Weeks.TotalWeeks
	if current {
		last = min(last, r.cursor.Week)
	}

	matchups, err := s.store.MatchupsInWeeks(ctx, leagueID, l.PlayoffWeekStart, last)
	if err != nil {
		return fmt.Errorf("failed to load playoff matchups for %s: %w", leagueID, err)
	}

	resolved := bracket.Resolve(bracket.Input{
		Weeks:     l.Weeks,
		RoundType: l.PlayoffRoundType,
		Winners:   winners,
		Losers:    losers,
		Matchups:  matchups,
	})
	if resolved.Unmatched > 0 {
		r.report.UnmatchedNodes.Add(int64(resolved.Unmatched))
		s.metrics.BracketUnmatched(resolved.Unmatched)
		log.WithField("unmatched", resolved.Unmatched).Debug("Bracket nodes without matchups")
	}
	if len(resolved.Rows) == 0 {
		return nil
	}

	if err := s.store.UpsertPlayoffMatchups(ctx, resolved.Rows); err != nil {
		return &persistError{leagueID: leagueID, err: err}
	}
	r.report.PlayoffRows.Add(int64(len(resolved.Rows)))
	log.WithFields(logrus.Fields{
		"rows":       len(resolved.Rows),
		"season":     l.Season,
		"round_type": l.PlayoffRoundType,
	}).Info("Playoff matchups resolved")
	return nil
}
