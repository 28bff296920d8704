package runner_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/batch"
	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/runner"
	"github.com/tbckr/staticscan/internal/testutil"
	"github.com/tbckr/staticscan/internal/worker"
)

func newRunner(t *testing.T, r classify.Resolver) *runner.Runner {
	t.Helper()
	logger := testutil.NopLogger()
	c := classify.NewClassifier(r, classify.DefaultPatterns(), time.Second, logger)
	proc := batch.NewProcessor(c, batch.Config{}, logger)
	rn := runner.New(job.NewStore(logger), proc, worker.NewPool(2, logger), logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rn.Shutdown(ctx)
	})
	return rn
}

func waitDone(t *testing.T, rn *runner.Runner, id string) job.Snapshot {
	t.Helper()
	var snap job.Snapshot
	require.Eventually(t, func() bool {
		got, err := rn.Store().Get(id)
		if err != nil {
			return false
		}
		snap = got
		return snap.Done()
	}, 5*time.Second, 5*time.Millisecond)
	return snap
}

func TestSubmit_CompletesInBackground(t *testing.T) {
	r := testutil.StaticResolver(map[string][]string{
		"pages.example": {"185.199.110.153"},
		"app.example":   {"99.83.190.102"},
	}, nil)
	rn := newRunner(t, r)

	snap, err := rn.Submit([]string{"pages.example", "app.example", "nothing.example"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, snap.Status)
	assert.Equal(t, 3, snap.Total)

	final := waitDone(t, rn, snap.ID)
	assert.Equal(t, job.StatusCompleted, final.Status)
	require.NotNil(t, final.Results)
	assert.Equal(t, []string{"pages.example"}, final.Results.GitHub)
	assert.Equal(t, []string{"app.example"}, final.Results.Netlify)
	assert.Equal(t, []string{"nothing.example"}, final.Results.Others)
}

func TestSubmit_EmptyInput(t *testing.T) {
	rn := newRunner(t, &testutil.MockResolver{})
	_, err := rn.Submit(nil)
	require.ErrorIs(t, err, apperr.ErrEmptyInput)
	assert.Empty(t, rn.Store().List())
}

func TestSubmit_CopiesInput(t *testing.T) {
	release := make(chan struct{})
	r := &testutil.MockResolver{
		ResolveAFn: func(context.Context, string) ([]string, error) {
			<-release
			return []string{"185.199.108.153"}, nil
		},
	}
	rn := newRunner(t, r)

	lines := []string{"a.example"}
	snap, err := rn.Submit(lines)
	require.NoError(t, err)
	lines[0] = "mutated.example"
	close(release)

	final := waitDone(t, rn, snap.ID)
	assert.Equal(t, []string{"a.example"}, final.Results.GitHub)
}

func TestSubmit_ConcurrentJobsAreIndependent(t *testing.T) {
	r := testutil.StaticResolver(map[string][]string{"gh.example": {"185.199.109.153"}}, nil)
	rn := newRunner(t, r)

	var ids []string
	for i := range 5 {
		lines := make([]string, i+1)
		for j := range lines {
			lines[j] = "gh.example"
		}
		snap, err := rn.Submit(lines)
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}
	for i, id := range ids {
		final := waitDone(t, rn, id)
		assert.Equal(t, job.StatusCompleted, final.Status)
		assert.Equal(t, i+1, final.GitHubCount, "job %d", i)
	}
}

func TestSubmit_ConcurrentJobsShareCNAMEMatcher(t *testing.T) {
	r := testutil.StaticResolver(nil, map[string][]string{
		"docs.example": {"brave-otter.netlify.app"},
		"blog.example": {"Edge.NETLIFY.COM."},
	})
	rn := newRunner(t, r)

	const perJob = 200
	var ids []string
	for range 6 {
		lines := make([]string, perJob)
		for j := range lines {
			lines[j] = "docs.example"
			if j%2 == 1 {
				lines[j] = "blog.example"
			}
		}
		snap, err := rn.Submit(lines)
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}
	for _, id := range ids {
		final := waitDone(t, rn, id)
		assert.Equal(t, job.StatusCompleted, final.Status)
		assert.Equal(t, perJob, final.NetlifyCount, "job %s", id)
		assert.Zero(t, final.OthersCount, "job %s", id)
	}
}

func TestCancel_StopsRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	r := &testutil.MockResolver{
		ResolveAFn: func(context.Context, string) ([]string, error) {
			calls++
			if calls == 1 {
				close(started)
				<-release
			}
			return nil, apperr.ErrLookupFailed
		},
	}
	rn := newRunner(t, r)

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("h%d.example", i)
	}
	snap, err := rn.Submit(lines)
	require.NoError(t, err)

	<-started
	_, err = rn.Cancel(snap.ID)
	require.NoError(t, err)
	close(release)

	final := waitDone(t, rn, snap.ID)
	assert.Equal(t, job.StatusCancelled, final.Status)
	assert.Nil(t, final.Results)
	assert.Zero(t, final.Processed)

	_, err = rn.Cancel(snap.ID)
	require.ErrorIs(t, err, apperr.ErrJobFinished)
}

func TestShutdown_MarksRunningJobsCancelled(t *testing.T) {
	r := &testutil.MockResolver{
		ResolveAFn: func(ctx context.Context, _ string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	rn := newRunner(t, r)

	snap, err := rn.Submit([]string{"a.example", "b.example"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rn.Shutdown(ctx))

	final, err := rn.Store().Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCancelled, final.Status)
	assert.Nil(t, final.Results)

	_, err = rn.Submit([]string{"c.example"})
	require.ErrorIs(t, err, runner.ErrShutdown)
}
