// Package memory is a mutex-guarded in-memory Store for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sam-maryland/sleeper-sync/internal/bracket"
	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/store"
)

type memberKey struct {
	leagueID string
	rosterID int
	userID   string
}

type playerKey struct {
	matchupID string
	rosterID  int
	playerID  string
}

// Store keeps every table in maps keyed like their unique constraints
type Store struct {
	mu sync.RWMutex

	users          map[string]store.User
	leagues        map[string]league.League
	broken         map[string]bool
	userLeagues    map[string]map[string]bool
	members        map[memberKey]store.Member
	matchups       map[string]matchup.Matchup
	matchupPlayers map[playerKey]matchup.PlayerEntry
	playoffs       map[string]bracket.Row
	players        map[string]store.Player
	syncState      map[string]time.Time

	// FailOn, when set, is consulted before every write with the operation
	// name (the Store method name). A non-nil return fails that call.
	FailOn func(op string) error
}

var _ store.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		users:          make(map[string]store.User),
		leagues:        make(map[string]league.League),
		broken:         make(map[string]bool),
		userLeagues:    make(map[string]map[string]bool),
		members:        make(map[memberKey]store.Member),
		matchups:       make(map[string]matchup.Matchup),
		matchupPlayers: make(map[playerKey]matchup.PlayerEntry),
		playoffs:       make(map[string]bracket.Row),
		players:        make(map[string]store.Player),
		syncState:      make(map[string]time.Time),
	}
}

func (s *Store) fail(op string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(op)
}

func (s *Store) UpsertUser(_ context.Context, u store.User) error {
	if err := s.fail("UpsertUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) ExistingLeagueIDs(_ context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if _, ok := s.leagues[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) GroupIDsForLeagues(_ context.Context, leagueIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, id := range leagueIDs {
		l, ok := s.leagues[id]
		if !ok || seen[l.LeagueGroupID] {
			continue
		}
		seen[l.LeagueGroupID] = true
		out = append(out, l.LeagueGroupID)
	}
	return out, nil
}

func (s *Store) LeagueIDsInGroups(_ context.Context, groupIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}
	var out []string
	for id, l := range s.leagues {
		if groups[l.LeagueGroupID] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) GetLeague(_ context.Context, leagueID string) (*league.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leagues[leagueID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (s *Store) UpsertLeagues(_ context.Context, leagues []league.League) error {
	if err := s.fail("UpsertLeagues"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range leagues {
		s.leagues[l.LeagueID] = l
	}
	return nil
}

func (s *Store) MarkBrokenHistories(_ context.Context, groupIDs []string) error {
	if err := s.fail("MarkBrokenHistories"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groupIDs {
		s.broken[g] = true
	}
	return nil
}

func (s *Store) UpsertUserLeagues(_ context.Context, userID string, leagueIDs []string) error {
	if err := s.fail("UpsertUserLeagues"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userLeagues[userID] == nil {
		s.userLeagues[userID] = make(map[string]bool)
	}
	for _, id := range leagueIDs {
		s.userLeagues[userID][id] = true
	}
	return nil
}

func (s *Store) UserLeagueIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id := range s.userLeagues[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpsertMembers(_ context.Context, members []store.Member) error {
	if err := s.fail("UpsertMembers"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.members[memberKey{m.LeagueID, m.RosterID, m.SleeperUserID}] = m
	}
	return nil
}

func (s *Store) UpsertMatchups(_ context.Context, matchups []matchup.Matchup) error {
	if err := s.fail("UpsertMatchups"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range matchups {
		s.matchups[m.ID] = m
	}
	return nil
}

func (s *Store) UpsertMatchupPlayers(_ context.Context, entries []matchup.PlayerEntry) error {
	if err := s.fail("UpsertMatchupPlayers"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.matchupPlayers[playerKey{e.MatchupID, e.RosterID, e.PlayerID}] = e
	}
	return nil
}

func (s *Store) MatchupsInWeeks(_ context.Context, leagueID string, from, to int) ([]matchup.Matchup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []matchup.Matchup
	for _, m := range s.matchups {
		if m.LeagueID == leagueID && m.Week >= from && m.Week <= to {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertPlayoffMatchups rejects the whole batch when a row has no matchup,
// mirroring the foreign key in Postgres.
func (s *Store) UpsertPlayoffMatchups(_ context.Context, rows []bracket.Row) error {
	if err := s.fail("UpsertPlayoffMatchups"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if _, ok := s.matchups[r.MatchupID]; !ok {
			return store.ErrNotFound
		}
	}
	for _, r := range rows {
		s.playoffs[r.MatchupID] = r
	}
	return nil
}

func (s *Store) UpsertPlayers(_ context.Context, players []store.Player) error {
	if err := s.fail("UpsertPlayers"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.players[p.PlayerID] = p
	}
	return nil
}

func (s *Store) LastSynced(_ context.Context, source string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.syncState[source]
	return at, ok, nil
}

func (s *Store) TouchSynced(_ context.Context, source string, at time.Time) error {
	if err := s.fail("TouchSynced"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncState[source] = at
	return nil
}

// Inspection helpers for tests.

func (s *Store) User(id string) (store.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) BrokenGroups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for g := range s.broken {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Members(leagueID string) []store.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Member
	for _, m := range s.members {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RosterID != out[j].RosterID {
			return out[i].RosterID < out[j].RosterID
		}
		return out[i].SleeperUserID < out[j].SleeperUserID
	})
	return out
}

func (s *Store) MatchupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matchups)
}

func (s *Store) MatchupPlayers(matchupID string) []matchup.PlayerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []matchup.PlayerEntry
	for k, e := range s.matchupPlayers {
		if k.matchupID == matchupID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RosterID != out[j].RosterID {
			return out[i].RosterID < out[j].RosterID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

func (s *Store) PlayoffMatchup(matchupID string) (bracket.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.playoffs[matchupID]
	return r, ok
}

func (s *Store) PlayoffCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.playoffs)
}

func (s *Store) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
