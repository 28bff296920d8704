// Package worker runs background tasks on a bounded, supervised goroutine pool.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool runs tasks with at most size of them executing at once. Tasks beyond
// the limit wait for a free slot. A panicking task is logged and does not take
// the process down.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	running atomic.Int64
	pending atomic.Int64
}

// NewPool creates a Pool. A size below 1 is treated as 1.
func NewPool(size int, logger *slog.Logger) *Pool {
	return &Pool{
		sem:    make(chan struct{}, max(1, size)),
		logger: logger,
	}
}

// Go schedules fn and returns immediately. fn always runs exactly once: if ctx
// ends before a slot frees up, fn is started with the ended ctx so it can
// record its own cancellation.
func (p *Pool) Go(ctx context.Context, name string, fn func(context.Context)) {
	p.wg.Add(1)
	p.pending.Add(1)
	go func() {
		defer p.wg.Done()

		acquired := false
		select {
		case p.sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		p.pending.Add(-1)
		p.running.Add(1)
		defer func() {
			p.running.Add(-1)
			if acquired {
				<-p.sem
			}
			if r := recover(); r != nil {
				p.logger.Error("task panicked", "task", name, "panic", r)
			}
		}()

		fn(ctx)
	}()
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int { return int(p.running.Load()) }

// Pending returns the number of tasks waiting for a slot.
func (p *Pool) Pending() int { return int(p.pending.Load()) }

// Wait blocks until every scheduled task has returned or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
