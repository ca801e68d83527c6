package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunFinished("initialize", true)
	m.RunFinished("initialize", false)
	m.RunFinished("initialize", false)
	m.LeagueFailed("matchups")
	m.WeekFailed()
	m.ChunkFailed("players")
	m.BracketUnmatched(3)
	m.BracketUnmatched(0)
	m.BrokenLineages(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("initialize", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("initialize", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.leagueFailure.WithLabelValues("matchups")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.weekFailure))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chunkFailure.WithLabelValues("players")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.unmatched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.brokenChains))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunFinished("sync", true)
		m.LeagueFailed("members")
		m.WeekFailed()
		m.ChunkFailed("players")
		m.BracketUnmatched(2)
		m.BrokenLineages(2)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.WeekFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sleeper_sync_week_failures_total 1")
}
