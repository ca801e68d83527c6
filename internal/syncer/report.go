package syncer

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// Phase is a step of a sync run. Runs advance through the phases in
// declaration order.
type Phase string

const (
	PhaseNotStarted        Phase = "not_started"
	PhaseUserUpserted      Phase = "user_upserted"
	PhasePlayersSynced     Phase = "players_synced"
	PhaseLeaguesResolved   Phase = "leagues_resolved"
	PhaseMembersPopulated  Phase = "members_populated"
	PhaseMatchupsPopulated Phase = "matchups_populated"
	PhasePlayoffsPopulated Phase = "playoffs_populated"
	PhaseDone              Phase = "done"
)

// Unit identifies the piece of work one outcome belongs to. Week is zero for
// league-level units.
type Unit struct {
	Phase    Phase
	LeagueID string
	Week     int
}

// Outcome is the result of one unit. A skipped unit had nothing to do (no
// brackets yet, playoffs not started).
type Outcome struct {
	Unit
	Skipped bool
	Err     error
}

// Report accumulates per-unit outcomes written concurrently by the league and
// week branches of a run.
type Report struct {
	outcomes *xsync.Map[Unit, Outcome]

	LeaguesIngested   []string
	BrokenGroups      []string
	Matchups          *xsync.Counter
	PlayoffRows       *xsync.Counter
	UnmatchedNodes    *xsync.Counter
	DroppedResults    *xsync.Counter
	Players           int
	PlayersSkipped    bool
	FailedPlayerChunk int
}

func newReport() *Report {
	return &Report{
		outcomes:       xsync.NewMap[Unit, Outcome](),
		Matchups:       xsync.NewCounter(),
		PlayoffRows:    xsync.NewCounter(),
		UnmatchedNodes: xsync.NewCounter(),
		DroppedResults: xsync.NewCounter(),
	}
}

func (r *Report) succeed(u Unit) {
	r.outcomes.Store(u, Outcome{Unit: u})
}

func (r *Report) skip(u Unit) {
	r.outcomes.Store(u, Outcome{Unit: u, Skipped: true})
}

func (r *Report) fail(u Unit, err error) {
	r.outcomes.Store(u, Outcome{Unit: u, Err: err})
}

// Outcome returns the recorded outcome for u
func (r *Report) Outcome(u Unit) (Outcome, bool) {
	return r.outcomes.Load(u)
}

// Failures returns every failed unit ordered by phase, league and week
func (r *Report) Failures() []Outcome {
	return r.collect(func(o Outcome) bool { return o.Err != nil })
}

// Skipped returns every skipped unit
func (r *Report) Skipped() []Outcome {
	return r.collect(func(o Outcome) bool { return o.Skipped })
}

// Partial reports whether any unit failed
func (r *Report) Partial() bool {
	partial := false
	r.outcomes.Range(func(_ Unit, o Outcome) bool {
		if o.Err != nil {
			partial = true
			return false
		}
		return true
	})
	return partial || r.FailedPlayerChunk > 0
}

func (r *Report) collect(keep func(Outcome) bool) []Outcome {
	var out []Outcome
	r.outcomes.Range(func(_ Unit, o Outcome) bool {
		if keep(o) {
			out = append(out, o)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		if a.LeagueID != b.LeagueID {
			return a.LeagueID < b.LeagueID
		}
		return a.Week < b.Week
	})
	return out
}

// Result is the single outcome handed back to callers. Success is false only
// for terminal failures; per-league failures leave Success set and Partial
// true.
type Result struct {
	Success bool
	Error   string
	Code    Code
	Phase   Phase
	Partial bool
	Report  *Report
}
