// Package syncer reconciles a user's Sleeper league history into the store.
//
// A run walks the phases user, players, leagues, members, matchups and
// playoffs in order. Failures before the leagues are resolved end the run;
// after that, failures are isolated to the league or week that raised them
// and are recorded in the run's Report.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/lineage"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/metrics"
	"github.com/sam-maryland/sleeper-sync/internal/retry"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store"
)

// Options tunes fan-out, chunking and retries
type Options struct {
	LeagueConcurrency      int
	WeekConcurrency        int
	PlayerChunkSize        int
	MatchupPlayerChunkSize int
	PlayersStaleAfter      time.Duration
	Retry                  retry.Config
	Now                    func() time.Time
}

// DefaultOptions returns the limits used when none are configured
func DefaultOptions() Options {
	return Options{
		LeagueConcurrency:      3,
		WeekConcurrency:        3,
		PlayerChunkSize:        1000,
		MatchupPlayerChunkSize: 100,
		PlayersStaleAfter:      48 * time.Hour,
		Retry:                  retry.DefaultConfig(),
		Now:                    time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LeagueConcurrency <= 0 {
		o.LeagueConcurrency = d.LeagueConcurrency
	}
	if o.WeekConcurrency <= 0 {
		o.WeekConcurrency = d.WeekConcurrency
	}
	if o.PlayerChunkSize <= 0 {
		o.PlayerChunkSize = d.PlayerChunkSize
	}
	if o.MatchupPlayerChunkSize <= 0 {
		o.MatchupPlayerChunkSize = d.MatchupPlayerChunkSize
	}
	if o.PlayersStaleAfter <= 0 {
		o.PlayersStaleAfter = d.PlayersStaleAfter
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// Service runs syncs against one Sleeper client and one store
type Service struct {
	client  sleeper.Client
	store   store.Store
	lineage *lineage.Resolver
	metrics *metrics.Metrics
	logger  *logrus.Logger
	opts    Options
}

// ServiceOption customises a Service
type ServiceOption func(*Service)

// WithMetrics records run and failure counters on m
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLineageResolver replaces the default lineage resolver
func WithLineageResolver(r *lineage.Resolver) ServiceOption {
	return func(s *Service) { s.lineage = r }
}

// NewService creates a new sync service
func NewService(client sleeper.Client, st store.Store, logger *logrus.Logger, opts Options, serviceOpts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		store:  st,
		logger: logger,
		opts:   opts.withDefaults(),
	}
	for _, opt := range serviceOpts {
		opt(s)
	}
	if s.lineage == nil {
		s.lineage = lineage.NewResolver(client, logger)
	}
	return s
}

// run carries the per-run state threaded through every phase
type run struct {
	cursor  matchup.Cursor
	report  *Report
	leagues pond.Pool
	weeks   pond.Pool
}

func (s *Service) newRun(cursor matchup.Cursor) *run {
	return &run{
		cursor:  cursor,
		report:  newReport(),
		leagues: pond.NewPool(s.opts.LeagueConcurrency),
		weeks:   pond.NewPool(s.opts.WeekConcurrency),
	}
}

func (r *run) close() {
	r.leagues.StopAndWait()
	r.weeks.StopAndWait()
}

// InitializeUserData syncs everything reachable from username's Sleeper
// account for the authenticated user authUserID.
func (s *Service) InitializeUserData(ctx context.Context, authUserID, username string) Result {
	log := s.logger.WithFields(logrus.Fields{
		"auth_user_id":     authUserID,
		"sleeper_username": username,
	})

	if strings.TrimSpace(authUserID) == "" || strings.TrimSpace(username) == "" {
		return s.finish("initialize", log, nil, PhaseNotStarted, fmt.Errorf("%w: auth_user_id and sleeper_username are required", ErrInvalidInput))
	}

	sleeperUser, err := s.upsertUser(ctx, authUserID, username)
	if err != nil {
		return s.finish("initialize", log, nil, PhaseNotStarted, err)
	}

	cursor, err := s.currentCursor(ctx)
	if err != nil {
		return s.finish("initialize", log, nil, PhaseUserUpserted, err)
	}

	r := s.newRun(cursor)
	defer r.close()

	if err := s.syncPlayers(ctx, r.report); err != nil {
		return s.finish("initialize", log, r.report, PhaseUserUpserted, err)
	}

	leagueIDs, err := s.populateLeagues(ctx, r, authUserID, sleeperUser.UserID)
	if err != nil {
		return s.finish("initialize", log, r.report, PhasePlayersSynced, err)
	}

	s.populateMembers(ctx, r, leagueIDs)
	s.populateMatchups(ctx, r, leagueIDs)
	if err := s.populatePlayoffs(ctx, r, leagueIDs); err != nil {
		return s.finish("initialize", log, r.report, PhaseMatchupsPopulated, err)
	}

	return s.finish("initialize", log, r.report, PhaseDone, nil)
}

// SyncPlayoffs re-runs bracket resolution for every league the user can
// access.
func (s *Service) SyncPlayoffs(ctx context.Context, authUserID string) Result {
	log := s.logger.WithField("auth_user_id", authUserID)

	if strings.TrimSpace(authUserID) == "" {
		return s.finish("playoffs", log, nil, PhaseNotStarted, fmt.Errorf("%w: auth_user_id is required", ErrInvalidInput))
	}

	leagueIDs, err := s.store.UserLeagueIDs(ctx, authUserID)
	if err != nil {
		return s.finish("playoffs", log, nil, PhaseNotStarted, fmt.Errorf("failed to load user leagues: %w", err))
	}

	cursor, err := s.currentCursor(ctx)
	if err != nil {
		return s.finish("playoffs", log, nil, PhaseNotStarted, err)
	}

	r := s.newRun(cursor)
	defer r.close()

	if err := s.populatePlayoffs(ctx, r, leagueIDs); err != nil {
		return s.finish("playoffs", log, r.report, PhaseMatchupsPopulated, err)
	}
	return s.finish("playoffs", log, r.report, PhaseDone, nil)
}

// RefreshPlayers reloads the global player table when it is stale
func (s *Service) RefreshPlayers(ctx context.Context) error {
	report := newReport()
	err := s.syncPlayers(ctx, report)
	s.metrics.RunFinished("players", err == nil)
	return err
}

func (s *Service) finish(operation string, log *logrus.Entry, report *Report, phase Phase, err error) Result {
	if report == nil {
		report = newReport()
	}
	res := Result{
		Success: err == nil,
		Phase:   phase,
		Partial: report.Partial(),
		Report:  report,
	}
	s.metrics.RunFinished(operation, res.Success)

	if err != nil {
		res.Error = err.Error()
		res.Code = Classify(err)
		log.WithError(err).WithFields(logrus.Fields{
			"phase": phase,
			"code":  res.Code,
		}).Error("Sync failed")
		return res
	}

	log.WithFields(logrus.Fields{
		"partial":      res.Partial,
		"failed_units": len(report.Failures()),
		"matchups":     report.Matchups.Value(),
		"playoff_rows": report.PlayoffRows.Value(),
	}).Info("Sync completed")
	return res
}

func (s *Service) upsertUser(ctx context.Context, authUserID, username string) (*sleeper.User, error) {
	u, err := s.client.GetUser(ctx, username)
	if err != nil || u == nil {
		if err != nil && !errors.Is(err, sleeper.ErrNotFound) {
			s.logger.WithError(err).WithField("sleeper_username", username).Warn("User lookup failed")
		}
		return nil, &UsernameNotFoundError{Username: username}
	}

	if err := s.store.UpsertUser(ctx, store.User{
		ID:            authUserID,
		SleeperUserID: u.UserID,
		Username:      u.Username,
		AvatarID:      u.Avatar,
	}); err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", authUserID, err)
	}
	return u, nil
}

func (s *Service) currentCursor(ctx context.Context) (matchup.Cursor, error) {
	state, err := s.client.GetState(ctx)
	if err != nil || state == nil {
		if err != nil {
			return matchup.Cursor{}, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
		}
		return matchup.Cursor{}, ErrStateUnavailable
	}
	return matchup.CursorFromState(state), nil
}
