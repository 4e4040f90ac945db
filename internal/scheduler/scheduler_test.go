package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls  int32
	maxAge atomic.Int64
	err    error
}

func (c *countingSweeper) Sweep(maxAge time.Duration) (int, error) {
	atomic.AddInt32(&c.calls, 1)
	c.maxAge.Store(int64(maxAge))
	return 2, c.err
}

func TestStartRunsFirstSweepImmediately(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, 5*time.Minute, 10*time.Minute)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sw.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(10*time.Minute), sw.maxAge.Load())
}

func TestStartHonoursSubMinuteInterval(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, 200*time.Millisecond, time.Minute)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sw.calls) >= 3
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRunOnceToleratesErrors(t *testing.T) {
	sw := &countingSweeper{err: errors.New("permission denied")}
	s := New(sw, time.Minute, time.Minute)

	s.RunOnce()
	assert.Equal(t, int32(1), atomic.LoadInt32(&sw.calls))
}

func TestStartWithoutSweeper(t *testing.T) {
	s := New(nil, time.Minute, time.Minute)
	assert.NoError(t, s.Start())
	s.Stop()
}
