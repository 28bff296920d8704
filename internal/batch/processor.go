// Package batch classifies the lines of one job in input order and reports
// progress through the job's writer.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/extract"
	"github.com/tbckr/staticscan/internal/job"
)

// Default pacing: pause after every DefaultPaceEvery lines for DefaultPaceDelay.
const (
	DefaultPaceEvery = 50
	DefaultPaceDelay = 500 * time.Millisecond
)

// Classifier classifies a single canonical hostname.
type Classifier interface {
	Classify(ctx context.Context, host string) classify.Outcome
}

// Sink receives a run's progress and final results. *job.Writer implements it.
type Sink interface {
	Progress(processed int, counts job.Counts) error
	Complete(results job.Results) error
	Cancelled() bool
}

// Config controls pacing between lines. A PaceEvery of zero disables pauses.
type Config struct {
	PaceEvery int
	PaceDelay time.Duration
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{PaceEvery: DefaultPaceEvery, PaceDelay: DefaultPaceDelay}
}

// Processor runs the classification loop for a job.
type Processor struct {
	classifier Classifier
	cfg        Config
	logger     *slog.Logger
	pause      func(ctx context.Context, d time.Duration) error
}

// NewProcessor creates a Processor.
func NewProcessor(classifier Classifier, cfg Config, logger *slog.Logger) *Processor {
	return &Processor{
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		pause:      sleep,
	}
}

// Run classifies lines one at a time, writing progress to sink after each line
// and the final results once every line is done. Per-line failures are recorded
// in the Others bucket and never abort the run.
//
// Run returns nil after a successful Complete. It returns apperr.ErrJobCancelled
// when the job was cancelled or deleted, ctx.Err() when ctx ends, and the sink's
// error when a write is otherwise rejected. In all of those cases no results are written.
func (p *Processor) Run(ctx context.Context, lines []string, sink Sink) error {
	var res job.Results
	for i, line := range lines {
		if sink.Cancelled() {
			return fmt.Errorf("%w after %d of %d lines", apperr.ErrJobCancelled, i, len(lines))
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		out := p.classifyLine(ctx, line)
		if err := ctx.Err(); err != nil {
			return err
		}
		p.add(&res, line, out)
		processed := i + 1
		if err := sink.Progress(processed, res.Counts()); err != nil {
			if sink.Cancelled() {
				return fmt.Errorf("%w after %d of %d lines", apperr.ErrJobCancelled, i, len(lines))
			}
			return err
		}

		if p.cfg.PaceEvery > 0 && processed%p.cfg.PaceEvery == 0 && processed < len(lines) {
			p.logger.Debug("pacing", "processed", processed, "delay", p.cfg.PaceDelay)
			if err := p.pause(ctx, p.cfg.PaceDelay); err != nil {
				return err
			}
		}
	}
	return sink.Complete(res)
}

// Classify runs lines through the same loop as Run without a job and returns
// the partition. If ctx ends first it returns ctx.Err() and empty results.
func (p *Processor) Classify(ctx context.Context, lines []string) (job.Results, error) {
	c := &collector{}
	err := p.Run(ctx, lines, c)
	return c.results, err
}

// classifyLine maps one raw line to an Outcome. A panic inside the classifier
// is contained to the line.
func (p *Processor) classifyLine(ctx context.Context, line string) (out classify.Outcome) {
	host, ok := extract.Domain(line)
	if !ok {
		p.logger.Debug("unparsable line", "line", line)
		return classify.Outcome{Host: strings.TrimSpace(line), Category: classify.Other, Reason: classify.ReasonUnparsable}
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("classification panicked", "host", host, "panic", r)
			out = classify.Outcome{
				Host:     host,
				Category: classify.Other,
				Reason:   classify.ReasonFailed,
				Err:      fmt.Errorf("classification panicked: %v", r),
			}
		}
	}()
	out = p.classifier.Classify(ctx, host)
	p.logger.Debug("classified", "host", host, "category", out.Category, "reason", out.Reason)
	return out
}

// add appends a line's outcome to its bucket. Hosting buckets hold the
// canonical host; Others holds the trimmed raw line.
func (p *Processor) add(res *job.Results, line string, out classify.Outcome) {
	switch out.Category {
	case classify.GitHub:
		res.GitHub = append(res.GitHub, out.Host)
	case classify.Netlify:
		res.Netlify = append(res.Netlify, out.Host)
	default:
		res.Others = append(res.Others, strings.TrimSpace(line))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// collector is a Sink that keeps the final results in memory.
type collector struct {
	results job.Results
}

func (c *collector) Progress(int, job.Counts) error { return nil }

func (c *collector) Complete(results job.Results) error {
	c.results = results
	return nil
}

func (c *collector) Cancelled() bool { return false }
