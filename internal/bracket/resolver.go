// Package bracket links Sleeper's playoff bracket graphs to persisted
// matchups.
//
// A bracket is a flat list of nodes. A node's slot is either a concrete roster
// or a "winner/loser of node N" reference. Resolution is done with key lookups
// over that list and over the league's playoff matchups, never by building a
// pointer graph.
package bracket

import (
	"sort"

	"github.com/sam-maryland/sleeper-sync/internal/league"
	"github.com/sam-maryland/sleeper-sync/internal/matchup"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// SourceType says whether a node's participants advanced as winners or losers
type SourceType string

const (
	FromWinner SourceType = "winner"
	FromLoser  SourceType = "loser"
)

// Row augments a persisted matchup with its place in a bracket
type Row struct {
	MatchupID          string
	RoundName          *league.RoundName
	BracketType        sleeper.BracketType
	PlayoffPosition    *int
	PreviousMatchupOne *string
	PreviousMatchupTwo *string
	SourceType         *SourceType
}

// Input is one league's bracket graphs and playoff-week matchups
type Input struct {
	Weeks     league.WeekInfo
	RoundType league.RoundType
	Winners   []sleeper.BracketMatchup
	Losers    []sleeper.BracketMatchup
	Matchups  []matchup.Matchup
}

// Result holds the resolved rows. Unmatched counts node weeks whose
// participants have no persisted matchup; those never produce a row.
type Result struct {
	Rows      []Row
	Unmatched int
}

type graph struct {
	kind     sleeper.BracketType
	nodes    map[int]sleeper.BracketMatchup
	resolved map[int][2]*int
}

func newGraph(kind sleeper.BracketType, nodes []sleeper.BracketMatchup) *graph {
	g := &graph{
		kind:     kind,
		nodes:    make(map[int]sleeper.BracketMatchup, len(nodes)),
		resolved: make(map[int][2]*int, len(nodes)),
	}
	for _, n := range nodes {
		g.nodes[n.MatchupID] = n
	}
	return g
}

// Resolve maps both brackets onto the given matchups. Rows come out ordered by
// week, winners bracket before losers, and each matchup appears at most once.
func Resolve(in Input) Result {
	lookup := make(map[matchup.LookupKey]string, len(in.Matchups))
	for _, m := range in.Matchups {
		lookup[m.Key()] = m.ID
	}

	r := &resolver{in: in, lookup: lookup}

	type slot struct {
		g    *graph
		node sleeper.BracketMatchup
		week int
	}
	var slots []slot
	for _, g := range []*graph{newGraph(sleeper.WinnersBracket, in.Winners), newGraph(sleeper.LosersBracket, in.Losers)} {
		for _, n := range sortedNodes(g) {
			for _, week := range r.weeksFor(n) {
				slots = append(slots, slot{g: g, node: n, week: week})
			}
		}
	}

	// Earliest week first, winners before losers within a week.
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].week < slots[j].week
	})

	var res Result
	seen := make(map[string]bool)
	for _, s := range slots {
		row, ok := r.row(s.g, s.node, s.week)
		if !ok {
			res.Unmatched++
			continue
		}
		if seen[row.MatchupID] {
			continue
		}
		seen[row.MatchupID] = true
		res.Rows = append(res.Rows, row)
	}
	return res
}

type resolver struct {
	in     Input
	lookup map[matchup.LookupKey]string
}

// weeksFor places a node on calendar weeks using the league's round map. Under
// a two-week championship only the championship game spans both final weeks.
func (r *resolver) weeksFor(n sleeper.BracketMatchup) []int {
	name, ok := r.in.Weeks.RoundAt(n.Round)
	if !ok {
		return []int{r.in.Weeks.FirstPlayoffWeek() + n.Round - 1}
	}
	weeks := r.in.Weeks.WeekMap[name]
	if len(weeks) == 0 {
		return []int{r.in.Weeks.FirstPlayoffWeek() + n.Round - 1}
	}
	if r.in.RoundType == league.TwoWeekChampionship && !isChampionship(n) {
		return weeks[:1]
	}
	return weeks
}

func isChampionship(n sleeper.BracketMatchup) bool {
	return n.Position != nil && *n.Position == 1
}

func (r *resolver) row(g *graph, n sleeper.BracketMatchup, week int) (Row, bool) {
	p := g.participants(n.MatchupID)
	id, ok := r.lookup[matchup.KeyFor(week, p[0], p[1])]
	if !ok {
		return Row{}, false
	}

	row := Row{
		MatchupID:          id,
		BracketType:        g.kind,
		PlayoffPosition:    n.Position,
		PreviousMatchupOne: r.predecessor(g, n.Team1From),
		PreviousMatchupTwo: r.predecessor(g, n.Team2From),
	}

	switch {
	case n.Team1From.IsWinner() || n.Team2From.IsWinner():
		src := FromWinner
		row.SourceType = &src
		row.RoundName = r.roundForWeek(week)
	case n.Team1From != nil || n.Team2From != nil:
		src := FromLoser
		row.SourceType = &src
	}
	return row, true
}

// predecessor finds the matchup played by the source node's participants in
// the source node's last week.
func (r *resolver) predecessor(g *graph, from *sleeper.BracketSource) *string {
	nodeID, ok := from.Node()
	if !ok {
		return nil
	}
	src, ok := g.nodes[nodeID]
	if !ok {
		return nil
	}
	weeks := r.weeksFor(src)
	p := g.participants(nodeID)
	id, ok := r.lookup[matchup.KeyFor(weeks[len(weeks)-1], p[0], p[1])]
	if !ok {
		return nil
	}
	return &id
}

func (r *resolver) roundForWeek(week int) *league.RoundName {
	for _, name := range r.in.Weeks.Rounds {
		for _, w := range r.in.Weeks.WeekMap[name] {
			if w == week {
				return &name
			}
		}
	}
	return nil
}

// participants returns a node's two rosters. An empty slot is filled from the
// recorded outcome of its source node when that outcome is known.
func (g *graph) participants(nodeID int) [2]*int {
	if p, ok := g.resolved[nodeID]; ok {
		return p
	}
	n := g.nodes[nodeID]
	p := [2]*int{
		g.fill(n.Team1, n.Team1From),
		g.fill(n.Team2, n.Team2From),
	}
	g.resolved[nodeID] = p
	return p
}

func (g *graph) fill(team *int, from *sleeper.BracketSource) *int {
	if team != nil {
		return team
	}
	nodeID, ok := from.Node()
	if !ok {
		return nil
	}
	src, ok := g.nodes[nodeID]
	if !ok {
		return nil
	}
	if from.IsWinner() {
		return src.Winner
	}
	return src.Loser
}

func sortedNodes(g *graph) []sleeper.BracketMatchup {
	nodes := make([]sleeper.BracketMatchup, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Round != nodes[j].Round {
			return nodes[i].Round < nodes[j].Round
		}
		return nodes[i].MatchupID < nodes[j].MatchupID
	})
	return nodes
}
