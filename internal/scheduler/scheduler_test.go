package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) RefreshPlayers(ctx context.Context) error { return f(ctx) }

func TestScheduler_RunsImmediately(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	s, err := NewScheduler(refresherFunc(func(context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	}), time.Hour, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh job did not run")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_LogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	done := make(chan struct{}, 1)

	s, err := NewScheduler(refresherFunc(func(context.Context) error {
		defer func() { done <- struct{}{} }()
		return errors.New("upstream down")
	}), time.Hour, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	defer func() { _ = s.Stop() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh job did not run")
	}

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Failed to refresh players" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewScheduler_RejectsZeroInterval(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewScheduler(refresherFunc(func(context.Context) error { return nil }), 0, logger)
	assert.Error(t, err)
}
