package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/staticscan/internal/testutil"
	"github.com/tbckr/staticscan/internal/worker"
)

func TestPool_RunsAllTasks(t *testing.T) {
	pool := worker.NewPool(3, testutil.NopLogger())
	var count atomic.Int32
	for range 20 {
		pool.Go(context.Background(), "count", func(context.Context) {
			count.Add(1)
		})
	}
	require.NoError(t, pool.Wait(context.Background()))
	assert.Equal(t, int32(20), count.Load())
	assert.Zero(t, pool.Running())
	assert.Zero(t, pool.Pending())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 2
	pool := worker.NewPool(size, testutil.NopLogger())

	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	release := make(chan struct{})
	for range 6 {
		pool.Go(context.Background(), "block", func(context.Context) {
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()
			<-release
			mu.Lock()
			current--
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool { return pool.Running() == size }, time.Second, time.Millisecond)
	assert.Equal(t, 4, pool.Pending())
	close(release)
	require.NoError(t, pool.Wait(context.Background()))
	assert.LessOrEqual(t, peak, size)
}

func TestPool_ZeroSizeRunsSerially(t *testing.T) {
	pool := worker.NewPool(0, testutil.NopLogger())
	done := make(chan struct{})
	pool.Go(context.Background(), "one", func(context.Context) { close(done) })
	require.NoError(t, pool.Wait(context.Background()))
	<-done
}

func TestPool_CancelledContextStillRunsTask(t *testing.T) {
	pool := worker.NewPool(1, testutil.NopLogger())
	release := make(chan struct{})
	pool.Go(context.Background(), "hold", func(context.Context) { <-release })
	require.Eventually(t, func() bool { return pool.Running() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var sawErr atomic.Bool
	pool.Go(ctx, "queued", func(ctx context.Context) {
		sawErr.Store(ctx.Err() != nil)
	})
	cancel()

	require.Eventually(t, func() bool { return pool.Pending() == 0 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, pool.Wait(context.Background()))
	assert.True(t, sawErr.Load(), "queued task must observe its cancelled context")
}

func TestPool_RecoversPanic(t *testing.T) {
	pool := worker.NewPool(1, testutil.NopLogger())
	pool.Go(context.Background(), "boom", func(context.Context) { panic("boom") })

	var ran atomic.Bool
	pool.Go(context.Background(), "after", func(context.Context) { ran.Store(true) })

	require.NoError(t, pool.Wait(context.Background()))
	assert.True(t, ran.Load(), "slot must be released after a panic")
}

func TestPool_WaitHonoursContext(t *testing.T) {
	pool := worker.NewPool(1, testutil.NopLogger())
	release := make(chan struct{})
	defer close(release)
	pool.Go(context.Background(), "stuck", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, pool.Wait(ctx), context.DeadlineExceeded)
}
