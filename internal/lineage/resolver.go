// Package lineage walks a league's previous-season pointers to rebuild its
// multi-season history.
package lineage

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// LeagueFetcher is the slice of the Sleeper client the resolver needs
type LeagueFetcher interface {
	GetLeague(ctx context.Context, leagueID string) (*sleeper.League, error)
}

// Chain is one lineage group: the newest season first, ancestors following.
// Broken is set when a predecessor pointer existed but could not be fetched.
type Chain struct {
	GroupID string
	Leagues []league.League
	Broken  bool
}

// LeagueIDs returns the ids of every season in the chain
func (c Chain) LeagueIDs() []string {
	ids := make([]string, len(c.Leagues))
	for i, l := range c.Leagues {
		ids[i] = l.LeagueID
	}
	return ids
}

// Resolver rebuilds lineage chains
type Resolver struct {
	client  LeagueFetcher
	logger  *logrus.Logger
	groupID func() string
}

// Option customises a Resolver
type Option func(*Resolver)

// WithGroupIDs overrides group id generation
func WithGroupIDs(fn func() string) Option {
	return func(r *Resolver) { r.groupID = fn }
}

// NewResolver creates a resolver that assigns a random group id per chain
func NewResolver(client LeagueFetcher, logger *logrus.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		client:  client,
		logger:  logger,
		groupID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks backward from leagueID until a league has no predecessor or a
// predecessor cannot be fetched. The resolved prefix is kept either way. The
// only error returned is a cancelled context.
func (r *Resolver) Resolve(ctx context.Context, leagueID string) (Chain, error) {
	chain := Chain{GroupID: r.groupID()}
	log := r.logger.WithFields(logrus.Fields{
		"league_id":       leagueID,
		"league_group_id": chain.GroupID,
	})

	seen := make(map[string]bool)
	next := leagueID
	for next != "" {
		if err := ctx.Err(); err != nil {
			return chain, err
		}

		if seen[next] {
			log.WithField("repeated_league_id", next).Warn("League history loops back on itself")
			chain.Broken = true
			break
		}
		seen[next] = true

		raw, err := r.client.GetLeague(ctx, next)
		if err != nil || raw == nil {
			log.WithError(err).WithField("missing_league_id", next).Warn("League history chain is broken")
			chain.Broken = true
			break
		}

		chain.Leagues = append(chain.Leagues, league.FromSleeper(r.logger, raw, chain.GroupID))

		next = ""
		if raw.HasPrevious() {
			next = *raw.PreviousLeagueID
		}
	}

	log.WithFields(logrus.Fields{
		"seasons": len(chain.Leagues),
		"broken":  chain.Broken,
	}).Debug("Resolved league history")

	return chain, nil
}
