package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store"
)

// syncPlayers reloads the global player table unless it was refreshed within
// PlayersStaleAfter. Without fresh data the previous table is kept, except on
// the very first load.
func (s *Service) syncPlayers(ctx context.Context, report *Report) error {
	now := s.opts.Now()
	last, synced, err := s.store.LastSynced(ctx, store.PlayersSource)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	if synced {
		if age := now.Sub(last); age < s.opts.PlayersStaleAfter {
			report.PlayersSkipped = true
			s.logger.WithField("age", age).Info("Players synced recently, skipping")
			return nil
		}
	}

	players, err := s.client.GetAllPlayers(ctx)
	if err != nil && !errors.Is(err, sleeper.ErrNotFound) {
		s.logger.WithError(err).Warn("Player fetch failed")
	}
	if len(players) == 0 {
		if !synced {
			return ErrPlayersUnavailable
		}
		report.PlayersSkipped = true
		s.logger.Info("No players from Sleeper, using previous player data")
		return nil
	}

	ids := sortedKeys(players)
	rows := make([]store.Player, len(ids))
	for i, id := range ids {
		rows[i] = store.PlayerFromSleeper(id, players[id])
	}

	failed := s.writeChunks(ctx, "players", len(rows), s.opts.PlayerChunkSize, func(ctx context.Context, from, to int) error {
		return s.store.UpsertPlayers(ctx, rows[from:to])
	})
	report.FailedPlayerChunk = failed
	report.Players = len(rows)

	if err := s.store.TouchSynced(ctx, store.PlayersSource, now); err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"players":       len(rows),
		"failed_chunks": failed,
	}).Info("All player chunks processed")
	return nil
}
