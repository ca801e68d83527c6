package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/lineage"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store"
)

// populateLeagues ingests the history of every top-level league new to the
// store and records the user's access to all of it. It returns the leagues
// the later phases should process: every ingested season plus the user's
// already-known top-level leagues.
func (s *Service) populateLeagues(ctx context.Context, r *run, authUserID, sleeperUserID string) ([]string, error) {
	current, err := s.client.GetUserLeagues(ctx, sleeperUserID, r.cursor.Season)
	if err != nil && !errors.Is(err, sleeper.ErrNotFound) {
		s.logger.WithError(err).WithField("sleeper_user_id", sleeperUserID).Warn("User leagues lookup failed")
	}
	if len(current) == 0 {
		return nil, ErrNoLeagues
	}

	topLevel := make([]string, len(current))
	for i, l := range current {
		topLevel[i] = l.LeagueID
	}

	existing, err := s.store.ExistingLeagueIDs(ctx, topLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing leagues: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	var fresh []string
	for _, id := range topLevel {
		if !known[id] {
			fresh = append(fresh, id)
		}
	}

	chains, err := s.resolveChains(ctx, r, fresh)
	if err != nil {
		return nil, err
	}

	var (
		ingested []league.League
		broken   []string
	)
	for _, c := range chains {
		ingested = append(ingested, c.Leagues...)
		if c.Broken {
			broken = append(broken, c.GroupID)
		}
	}

	if len(broken) > 0 {
		if err := s.store.MarkBrokenHistories(ctx, broken); err != nil {
			return nil, fmt.Errorf("upserting broken league histories failed: %w", err)
		}
		s.metrics.BrokenLineages(len(broken))
	}
	if len(ingested) > 0 {
		if err := s.store.UpsertLeagues(ctx, ingested); err != nil {
			return nil, fmt.Errorf("upserting leagues failed: %w", err)
		}
	}

	ingestedIDs := make([]string, len(ingested))
	for i, l := range ingested {
		ingestedIDs[i] = l.LeagueID
	}

	var history []string
	if len(existing) > 0 {
		groups, err := s.store.GroupIDsForLeagues(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("failed to load league groups: %w", err)
		}
		history, err = s.store.LeagueIDsInGroups(ctx, groups)
		if err != nil {
			return nil, fmt.Errorf("failed to load league history: %w", err)
		}
	}

	if err := s.store.UpsertUserLeagues(ctx, authUserID, unique(ingestedIDs, history)); err != nil {
		return nil, fmt.Errorf("upserting user_leagues failed: %w", err)
	}

	r.report.LeaguesIngested = ingestedIDs
	r.report.BrokenGroups = broken

	s.logger.WithFields(logrus.Fields{
		"top_level":      len(topLevel),
		"new_top_level":  len(fresh),
		"ingested":       len(ingested),
		"broken_history": len(broken),
	}).Info("Leagues resolved")

	return unique(ingestedIDs, existing), nil
}

// resolveChains walks the lineage of every league in ids on the league pool.
// Chains come back in the order of ids.
func (s *Service) resolveChains(ctx context.Context, r *run, ids []string) ([]lineage.Chain, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	results := xsync.NewMap[string, lineage.Chain]()
	group := r.leagues.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, id := range ids {
		group.Submit(func() {
			chain, err := s.lineage.Resolve(groupCtx, id)
			if err != nil {
				return
			}
			results.Store(id, chain)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("league history walk: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("league history walk: %w", err)
	}

	chains := make([]lineage.Chain, 0, len(ids))
	for _, id := range ids {
		if c, ok := results.Load(id); ok && len(c.Leagues) > 0 {
			chains = append(chains, c)
		}
	}
	return chains, nil
}

// populateMembers maps every league user to the roster they own or co-own
func (s *Service) populateMembers(ctx context.Context, r *run, leagueIDs []string) {
	s.forEachLeague(ctx, r, PhaseMembersPopulated, leagueIDs, func(ctx context.Context, leagueID string) error {
		members, err := s.leagueMembers(ctx, leagueID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		if err := s.store.UpsertMembers(ctx, members); err != nil {
			return fmt.Errorf("failed to upsert members for %s: %w", leagueID, err)
		}
		return nil
	})
}

func (s *Service) leagueMembers(ctx context.Context, leagueID string) ([]store.Member, error) {
	rosters, err := s.client.GetLeagueRosters(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch rosters for league %s: %w", leagueID, err)
	}
	users, err := s.client.GetLeagueUsers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch league users for league %s: %w", leagueID, err)
	}

	ownerToRoster := make(map[string]int)
	for _, roster := range rosters {
		for _, owner := range roster.Owners() {
			ownerToRoster[owner] = roster.RosterID
		}
	}

	members := make([]store.Member, 0, len(users))
	for _, u := range users {
		rosterID, ok := ownerToRoster[u.UserID]
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"league_id":       leagueID,
				"sleeper_user_id": u.UserID,
			}).Warn("League user owns no roster, skipping")
			continue
		}
		name := u.DisplayName
		members = append(members, store.Member{
			LeagueID:       leagueID,
			RosterID:       rosterID,
			SleeperUserID:  u.UserID,
			LeagueUsername: &name,
		})
	}
	return members, nil
}

// forEachLeague runs fn for every league on the league pool and records one
// outcome per league. A failing league never stops its siblings.
func (s *Service) forEachLeague(ctx context.Context, r *run, phase Phase, leagueIDs []string, fn func(ctx context.Context, leagueID string) error) {
	group := r.leagues.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, id := range leagueIDs {
		group.Submit(func() {
			unit := Unit{Phase: phase, LeagueID: id}
			err := fn(groupCtx, id)
			switch {
			case errors.Is(err, errSkipped):
				r.report.skip(unit)
			case err != nil:
				r.report.fail(unit, err)
				s.metrics.LeagueFailed(string(phase))
				s.logger.WithError(err).WithFields(logrus.Fields{
					"league_id": id,
					"phase":     phase,
				}).Error("League failed")
			default:
				r.report.succeed(unit)
			}
		})
	}
	if err := group.Wait(); err != nil {
		s.logger.WithError(err).WithField("phase", phase).Warn("League tasks interrupted")
	}
}

// errSkipped marks a league that had nothing to do in a phase
var errSkipped = errors.New("skipped")

// unique concatenates lists, dropping repeats and keeping first-seen order
func unique(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
