// Package runner starts a batch run for every submitted job on a shared worker
// pool and owns the pool's lifetime.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/batch"
	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/worker"
)

// ErrShutdown is returned by Submit after Shutdown has been called.
var ErrShutdown = errors.New("runner is shut down")

// Runner submits jobs to the store and schedules their processing.
type Runner struct {
	store  *job.Store
	proc   *batch.Processor
	pool   *worker.Pool
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Runner. Runs are scheduled on pool and live until they finish,
// their job is cancelled, or Shutdown is called.
func New(store *job.Store, proc *batch.Processor, pool *worker.Pool, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:  store,
		proc:   proc,
		pool:   pool,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Store returns the job store the runner writes to.
func (r *Runner) Store() *job.Store { return r.store }

// Submit creates a processing job for lines and starts classifying it in the
// background. It returns as soon as the job exists. An empty list is rejected
// with apperr.ErrEmptyInput and creates no job.
func (r *Runner) Submit(lines []string) (job.Snapshot, error) {
	if len(lines) == 0 {
		return job.Snapshot{}, apperr.ErrEmptyInput
	}
	if r.ctx.Err() != nil {
		return job.Snapshot{}, ErrShutdown
	}

	snap, err := r.store.Create(len(lines))
	if err != nil {
		return job.Snapshot{}, err
	}
	w, err := r.store.Writer(snap.ID)
	if err != nil {
		return job.Snapshot{}, err
	}

	lines = slices.Clone(lines)
	r.logger.Info("job created", "job", snap.ID, "total", snap.Total)
	r.pool.Go(r.ctx, snap.ID, func(ctx context.Context) {
		r.run(ctx, w, lines)
	})
	return snap, nil
}

// Cancel requests cooperative cancellation of a processing job.
func (r *Runner) Cancel(id string) (job.Snapshot, error) {
	return r.store.Cancel(id)
}

// Wait blocks until every submitted run has returned, or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	return r.pool.Wait(ctx)
}

// Shutdown stops every run at its next line boundary and waits for all of them
// to return, or for ctx to end. Interrupted jobs are marked cancelled.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	return r.pool.Wait(ctx)
}

func (r *Runner) run(ctx context.Context, w *job.Writer, lines []string) {
	start := time.Now()
	err := r.proc.Run(ctx, lines, w)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case err == nil:
		snap, _ := r.store.Get(w.ID())
		r.logger.Info("job completed", "job", w.ID(), "elapsed", elapsed,
			"github", snap.GitHubCount, "netlify", snap.NetlifyCount, "others", snap.OthersCount)
	case errors.Is(err, apperr.ErrJobCancelled):
		r.logger.Info("job cancelled", "job", w.ID(), "elapsed", elapsed)
	case ctx.Err() != nil:
		if _, cerr := r.store.Cancel(w.ID()); cerr != nil {
			r.logger.Debug("could not mark interrupted job", "job", w.ID(), "error", cerr)
		}
		r.logger.Info("job interrupted", "job", w.ID(), "elapsed", elapsed)
	default:
		r.logger.Error("job failed", "job", w.ID(), "error", err)
	}
}
