package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/input"
	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/metrics"
	"github.com/tbckr/staticscan/internal/output"
	"github.com/tbckr/staticscan/internal/runner"
)

// shutdownGrace bounds how long an interrupted classify waits for runs to stop.
const shutdownGrace = 10 * time.Second

// source is one input list; each becomes its own job.
type source struct {
	name  string
	lines []string
}

type classifyOptions struct {
	files       []string
	outDir      string
	quick       bool
	progress    time.Duration
	metricsFile string
}

func newClassifyCmd(d *deps) *cobra.Command {
	var opts classifyOptions
	cmd := &cobra.Command{
		Use:   "classify [domain...]",
		Short: "Sort a list of domains into GitHub Pages, Netlify, and others",
		Long: `Classify resolves every domain in a list and sorts it into the github,
netlify, or others bucket. Lines may be bare hostnames or URLs; anything that
cannot be parsed as a hostname is kept verbatim in others.

Domains are taken from the arguments, from each --file (one job per file), or
from stdin. Jobs run concurrently up to --max-jobs. Interrupting the command
cancels the running jobs and prints their partial counts.`,
		Example: `  staticscan classify example.com blog.example.org
  staticscan classify --file domains.txt --out-dir results/
  cat domains.txt | staticscan classify -o json`,
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := collectSources(cmd, args, opts.files)
			if err != nil {
				return err
			}
			if opts.metricsFile != "" {
				d.metrics = metrics.New()
				defer writeMetrics(d, opts.metricsFile)
			}
			if opts.quick {
				return runQuick(cmd, d, sources, opts)
			}
			return runJobs(cmd, d, sources, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "read domains from file, one per line (repeatable, - for stdin)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "write github.txt, netlify.txt, and others.txt to this directory")
	cmd.Flags().BoolVar(&opts.quick, "quick", false, "classify in the foreground without creating a job")
	cmd.Flags().DurationVar(&opts.progress, "progress-interval", 2*time.Second, "how often to log job progress (0 disables)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path on exit")
	return cmd
}

// writeMetrics exports the collected metrics. Failures are only logged.
func writeMetrics(d *deps, path string) {
	if err := d.metrics.WriteTextfile(path); err != nil {
		d.logger.Warn("writing metrics failed", "path", path, "error", err)
		return
	}
	d.logger.Debug("metrics written", "path", path)
}

// observeJobs feeds the final job counters into the metrics, if enabled.
func observeJobs(d *deps, snaps []job.Snapshot) {
	if d.metrics == nil {
		return
	}
	for _, s := range snaps {
		d.metrics.ObserveJob(s)
	}
}

// collectSources builds the input lists. Arguments form one list, each --file
// another; stdin is read only when neither is given.
func collectSources(cmd *cobra.Command, args, files []string) ([]source, error) {
	var sources []source
	if len(args) > 0 {
		sources = append(sources, source{name: "args", lines: args})
	}
	seen := map[string]int{}
	for _, f := range files {
		lines, err := input.ReadFile(f, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if f == "-" {
			name = "stdin"
		}
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s-%d", name, n+1)
		}
		seen[name]++
		sources = append(sources, source{name: name, lines: lines})
	}
	if len(sources) == 0 {
		lines, err := resolveInputs(cmd, nil)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{name: "stdin", lines: lines})
	}
	return sources, nil
}

// runQuick classifies each source in the foreground.
func runQuick(cmd *cobra.Command, d *deps, sources []source, opts classifyOptions) error {
	proc, err := d.newProcessor()
	if err != nil {
		return err
	}
	for _, src := range sources {
		if len(src.lines) == 0 {
			d.logger.Warn("skipping empty input", "source", src.name)
			continue
		}
		res, err := proc.Classify(cmd.Context(), src.lines)
		if err != nil {
			return fmt.Errorf("classifying %s: %w", src.name, err)
		}
		if d.metrics != nil {
			d.metrics.ObserveResults(res)
		}
		if err := emitResults(cmd, d, opts.outDir, src.name, len(sources) > 1, &res); err != nil {
			return err
		}
	}
	return nil
}

type submitted struct {
	source
	id string
}

// runJobs submits one job per source, waits for all of them, and emits their
// results. Cancelling cmd's context cancels every unfinished job.
func runJobs(cmd *cobra.Command, d *deps, sources []source, opts classifyOptions) error {
	rn, err := d.newRunner()
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = rn.Shutdown(ctx)
	}()

	var jobs []submitted
	for _, src := range sources {
		snap, err := rn.Submit(src.lines)
		if errors.Is(err, apperr.ErrEmptyInput) {
			d.logger.Warn("skipping empty input", "source", src.name)
			continue
		}
		if err != nil {
			return err
		}
		jobs = append(jobs, submitted{source: src, id: snap.ID})
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no domains to classify", apperr.ErrEmptyInput)
	}

	stop := reportProgress(cmd.Context(), d.logger, rn.Store(), opts.progress)
	waitErr := rn.Wait(cmd.Context())
	stop()

	if waitErr != nil {
		return interrupt(cmd, d, rn, jobs, waitErr)
	}
	observeJobs(d, rn.Store().List())

	for _, j := range jobs {
		snap, err := rn.Store().Get(j.id)
		if err != nil {
			return err
		}
		if snap.Status != job.StatusCompleted {
			return fmt.Errorf("job %s for %s ended %s", j.id, j.name, snap.Status)
		}
		if opts.outDir == "" && d.format == output.FormatJSON {
			if err := writeResult(cmd.OutOrStdout(), d, snap); err != nil {
				return err
			}
			continue
		}
		if err := emitResults(cmd, d, opts.outDir, j.name, len(jobs) > 1, snap.Results); err != nil {
			return err
		}
	}
	if opts.outDir != "" {
		return writeResult(cmd.OutOrStdout(), d, job.Snapshots(rn.Store().List()))
	}
	return nil
}

// interrupt cancels every unfinished job, waits briefly for the runs to stop,
// and prints the frozen counters.
func interrupt(cmd *cobra.Command, d *deps, rn *runner.Runner, jobs []submitted, cause error) error {
	for _, j := range jobs {
		if _, err := rn.Cancel(j.id); err != nil && !errors.Is(err, apperr.ErrJobFinished) {
			d.logger.Debug("cancel failed", "job", j.id, "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := rn.Shutdown(ctx); err != nil {
		d.logger.Warn("jobs did not stop in time", "error", err)
	}
	snaps := rn.Store().List()
	observeJobs(d, snaps)
	if err := writeResult(cmd.OutOrStdout(), d, job.Snapshots(snaps)); err != nil {
		return err
	}
	return fmt.Errorf("interrupted: %w", cause)
}

// emitResults writes res to per-category files under outDir, or to stdout when
// outDir is empty. With several sources each gets its own subdirectory.
func emitResults(cmd *cobra.Command, d *deps, outDir, name string, many bool, res *job.Results) error {
	if outDir == "" {
		return writeResult(cmd.OutOrStdout(), d, res)
	}
	dir := outDir
	if many {
		dir = filepath.Join(outDir, name)
	}
	categories := make([]string, 0, 3)
	for _, c := range classify.Categories() {
		categories = append(categories, string(c))
	}
	paths, err := output.WriteCategoryFiles(dir, categories, res.Buckets())
	if err != nil {
		return err
	}
	d.logger.Info("results written", "source", name, "files", paths)
	return nil
}

// reportProgress logs every unfinished job's counters each interval until the
// returned stop function is called.
func reportProgress(ctx context.Context, logger *slog.Logger, store *job.Store, every time.Duration) (stop func()) {
	if every <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				for _, s := range store.List() {
					if s.Done() {
						continue
					}
					logger.Info("progress", "job", s.ID, "processed", s.Processed, "total", s.Total,
						"percent", s.Progress, "github", s.GitHubCount, "netlify", s.NetlifyCount, "others", s.OthersCount)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
