package syncer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store/memory"
)

// inFlight tracks the highest number of calls running at once.
type inFlight struct {
	current atomic.Int64
	peak    atomic.Int64
	total   atomic.Int64
}

func (f *inFlight) track(fn func()) {
	n := f.current.Add(1)
	f.total.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	fn()
	f.current.Add(-1)
}

// manyLeagues is the base fixture with five independent single-season
// leagues, so every per-league phase has more work than workers.
func manyLeagues(limit int, lineage, rosters, weeks *inFlight) *Service {
	ids := []string{"A", "B", "C", "D", "E"}

	client := fixture()
	getRosters := client.GetLeagueRostersFunc
	getMatchups := client.GetMatchupsFunc

	client.GetUserLeaguesFunc = func(string, string) ([]sleeper.League, error) {
		var out []sleeper.League
		for _, id := range ids {
			out = append(out, *rawLeague(id, "2024", nil))
		}
		return out, nil
	}
	client.GetLeagueFunc = func(id string) (l *sleeper.League, err error) {
		lineage.track(func() { l = rawLeague(id, "2024", nil) })
		return l, nil
	}
	client.GetLeagueRostersFunc = func(id string) (r []sleeper.Roster, err error) {
		rosters.track(func() { r, err = getRosters(id) })
		return r, err
	}
	client.GetMatchupsFunc = func(id string, week int) (m []sleeper.Matchup, err error) {
		weeks.track(func() { m, err = getMatchups(id, week) })
		return m, err
	}

	opts := testOptions()
	opts.LeagueConcurrency = limit
	opts.WeekConcurrency = limit
	logger, _ := test.NewNullLogger()
	return NewService(client, memory.New(), logger, opts)
}

func TestInitializeUserData_BoundedFanOut(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
	}{
		{name: "default limit", concurrency: 3},
		{name: "serial", concurrency: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lineage, rosters, weeks inFlight

			svc := manyLeagues(tt.concurrency, &lineage, &rosters, &weeks)
			res := svc.InitializeUserData(context.Background(), "auth-1", "sam")
			require.True(t, res.Success, res.Error)

			limit := int64(tt.concurrency)
			assert.Equal(t, int64(5), lineage.total.Load())
			assert.Equal(t, int64(5), rosters.total.Load())
			assert.Equal(t, int64(20), weeks.total.Load())

			for name, f := range map[string]*inFlight{"lineage": &lineage, "rosters": &rosters, "weeks": &weeks} {
				assert.LessOrEqual(t, f.peak.Load(), limit, fmt.Sprintf("%s calls in flight", name))
				assert.GreaterOrEqual(t, f.peak.Load(), int64(1), name)
			}
		})
	}
}
