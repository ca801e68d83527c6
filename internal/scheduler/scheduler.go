// Package scheduler runs the periodic global player refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// PlayerRefresher refreshes the global player table
type PlayerRefresher interface {
	RefreshPlayers(ctx context.Context) error
}

type Scheduler struct {
	s        gocron.Scheduler
	refresh  PlayerRefresher
	interval time.Duration
	logger   *logrus.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a scheduler that refreshes players every interval
func NewScheduler(refresh PlayerRefresher, interval time.Duration, logger *logrus.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %v", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		s:        s,
		refresh:  refresh,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the refresh job and starts the scheduler. The first run
// happens immediately.
func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.refreshPlayers),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create player refresh job: %w", err)
	}

	s.s.Start()
	s.logger.WithField("interval", s.interval).Info("Player refresh scheduled")
	return nil
}

func (s *Scheduler) Stop() error {
	s.cancel()
	return s.s.Shutdown()
}

func (s *Scheduler) refreshPlayers() {
	start := time.Now()
	if err := s.refresh.RefreshPlayers(s.ctx); err != nil {
		s.logger.WithError(err).Error("Failed to refresh players")
		return
	}
	s.logger.WithField("duration", time.Since(start)).Info("Players refreshed")
}
