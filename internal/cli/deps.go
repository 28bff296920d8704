package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/tbckr/staticscan/internal/batch"
	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/config"
	"github.com/tbckr/staticscan/internal/httpclient"
	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/metrics"
	"github.com/tbckr/staticscan/internal/output"
	"github.com/tbckr/staticscan/internal/ratelimit"
	"github.com/tbckr/staticscan/internal/resolver"
	"github.com/tbckr/staticscan/internal/runner"
	"github.com/tbckr/staticscan/internal/worker"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger *slog.Logger
	cfg    *config.Config
	format output.Format

	// resolver, when set, replaces the backend selected by cfg.Resolver.
	resolver classify.Resolver

	// metrics, when set, instruments the resolver and collects job counters.
	metrics *metrics.Metrics
}

// buildDeps resolves config, logger, and output format.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &deps{cfg: cfg, logger: logger, format: format}, nil
}

// newHTTPClient creates the DNS-over-HTTPS client with proxy, User-Agent,
// debug logging, and the optional request rate cap.
func (d *deps) newHTTPClient() (*req.Client, error) {
	client, err := httpclient.New(d.cfg.Proxy, d.cfg.UserAgent, d.logger, d.cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	httpclient.AttachRateLimit(client, ratelimit.ForRate(d.cfg.RPS))
	return client, nil
}

// newResolver creates the DNS backend selected by the resolver key.
func (d *deps) newResolver() (classify.Resolver, error) {
	if d.resolver != nil {
		return d.resolver, nil
	}
	switch d.cfg.Resolver {
	case config.ResolverDNS:
		w := resolver.NewWire(d.cfg.Nameserver)
		d.logger.Debug("using wire DNS resolver", "server", w.Server())
		return w, nil
	case config.ResolverDoH:
		client, err := d.newHTTPClient()
		if err != nil {
			return nil, err
		}
		d.logger.Debug("using DNS-over-HTTPS resolver", "url", d.cfg.DoHURL,
			"proxy", httpclient.ResolveProxy(d.cfg.Proxy))
		return resolver.NewDoH(client, d.cfg.DoHURL), nil
	default:
		r, err := resolver.NewSystem(d.cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("creating DNS resolver: %w", err)
		}
		d.logger.Debug("using system resolver")
		return r, nil
	}
}

// loadPatterns loads the provider patterns, honouring patterns_file.
func (d *deps) loadPatterns() (classify.Patterns, error) {
	p, err := classify.LoadPatterns(d.cfg.PatternsFile)
	if err != nil {
		return classify.Patterns{}, fmt.Errorf("loading provider patterns: %w", err)
	}
	return p, nil
}

func (d *deps) newClassifier() (*classify.Classifier, error) {
	r, err := d.newResolver()
	if err != nil {
		return nil, err
	}
	patterns, err := d.loadPatterns()
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		r = d.metrics.WrapResolver(r)
	}
	return classify.NewClassifier(r, patterns, d.cfg.Timeout, d.logger), nil
}

func (d *deps) newProcessor() (*batch.Processor, error) {
	c, err := d.newClassifier()
	if err != nil {
		return nil, err
	}
	cfg := batch.Config{PaceEvery: d.cfg.PaceEvery, PaceDelay: d.cfg.PaceDelay}
	return batch.NewProcessor(c, cfg, d.logger), nil
}

// newRunner wires a job store, worker pool, and processor into a Runner.
func (d *deps) newRunner() (*runner.Runner, error) {
	proc, err := d.newProcessor()
	if err != nil {
		return nil, err
	}
	store := job.NewStore(d.logger)
	pool := worker.NewPool(d.cfg.MaxJobs, d.logger)
	return runner.New(store, proc, pool, d.logger), nil
}

// writeResult formats and writes a result to w in the configured format.
func writeResult(w io.Writer, d *deps, result any) error {
	if err := output.Write(w, d.format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
