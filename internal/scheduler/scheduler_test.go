package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsAfterFullPeriod(t *testing.T) {
	s := New(nil)
	defer s.Shutdown()

	var runs int32
	require.NoError(t, s.Start(200*time.Millisecond, func() { atomic.AddInt32(&runs, 1) }))

	assert.True(t, s.Active())
	assert.Equal(t, 200*time.Millisecond, s.Period())
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs), "job must not run at schedule time")

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 2*time.Second, 20*time.Millisecond)
}

func TestStartReplacesPreviousJob(t *testing.T) {
	s := New(nil)
	defer s.Shutdown()

	var oldRuns, newRuns int32
	require.NoError(t, s.Start(100*time.Millisecond, func() { atomic.AddInt32(&oldRuns, 1) }))
	require.NoError(t, s.Start(150*time.Millisecond, func() { atomic.AddInt32(&newRuns, 1) }))

	assert.Equal(t, 150*time.Millisecond, s.Period())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&newRuns) >= 2 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&oldRuns))
}

func TestStop(t *testing.T) {
	s := New(nil)
	defer s.Shutdown()

	var runs int32
	require.NoError(t, s.Start(100*time.Millisecond, func() { atomic.AddInt32(&runs, 1) }))
	s.Stop()

	assert.False(t, s.Active())
	assert.Zero(t, s.Period())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestStartRejectsNonPositivePeriod(t *testing.T) {
	s := New(nil)
	defer s.Shutdown()

	assert.ErrorIs(t, s.Start(0, func() {}), ErrInvalidPeriod)
	assert.False(t, s.Active())
}
