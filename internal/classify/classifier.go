package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultTimeout bounds every individual DNS lookup.
const DefaultTimeout = 5 * time.Second

// Resolver is the DNS capability the classifier depends on.
// Implementations return an error for NXDOMAIN, SERVFAIL, timeouts, and
// malformed responses; the classifier treats any error as "no evidence".
type Resolver interface {
	ResolveA(ctx context.Context, host string) ([]string, error)
	ResolveCNAME(ctx context.Context, host string) ([]string, error)
}

// Classifier sorts hostnames into GitHub Pages, Netlify, or Other.
type Classifier struct {
	resolver Resolver
	match    matcher
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClassifier creates a Classifier using resolver for lookups and patterns for
// provider fingerprints. A non-positive timeout selects DefaultTimeout.
func NewClassifier(resolver Resolver, patterns Patterns, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Classifier{
		resolver: resolver,
		match:    newMatcher(patterns),
		timeout:  timeout,
		logger:   logger,
	}
}

// Classify resolves the A records of host and, unless they already identify
// GitHub Pages, its CNAME records. Each lookup gets the full timeout.
// A-record evidence for Netlify does not skip the CNAME lookup.
func (c *Classifier) Classify(ctx context.Context, host string) Outcome {
	out := Outcome{Host: host, Category: Other, Reason: ReasonClassified}

	ips, aErr := c.lookup(ctx, host, "A", c.resolver.ResolveA)
	out.A = ips
	if aErr == nil {
		if intersects(ips, c.match.githubIPs) {
			out.Category = GitHub
			return out
		}
		if intersects(ips, c.match.netlifyIPs) {
			out.Category = Netlify
		}
	}

	cnames, cnameErr := c.lookup(ctx, host, "CNAME", c.resolver.ResolveCNAME)
	out.CNAME = cnames
	if cnameErr == nil && c.match.netlifyCNAME(cnames) {
		out.Category = Netlify
	}

	out.Err = errors.Join(aErr, cnameErr)
	if aErr != nil && cnameErr != nil {
		out.Reason = ReasonLookupFailed
	}
	return out
}

func (c *Classifier) lookup(
	ctx context.Context,
	host, rrType string,
	fn func(context.Context, string) ([]string, error),
) ([]string, error) {
	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	records, err := fn(lctx, host)
	if err != nil {
		c.logger.Debug(rrType+" lookup failed", "domain", host, "error", err)
		return nil, err
	}
	return records, nil
}
