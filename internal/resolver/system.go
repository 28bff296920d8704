package resolver

import (
	"context"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/proxy"

	"github.com/tbckr/staticscan/internal/apperr"
)

// System resolves through a *net.Resolver.
type System struct {
	r *net.Resolver
}

// NewSystem returns a System backend appropriate for the given proxy URL.
//
// When proxyURL is empty or its scheme is not "socks5", the platform resolver is
// used. When proxyURL is a socks5:// URL, DNS queries are tunnelled through the
// SOCKS5 proxy using DNS-over-TCP so lookups do not leak to the local network.
func NewSystem(proxyURL string) (*System, error) {
	r, err := newNetResolver(proxyURL)
	if err != nil {
		return nil, err
	}
	return &System{r: r}, nil
}

func newNetResolver(proxyURL string) (*net.Resolver, error) {
	if proxyURL == "" || !strings.HasPrefix(proxyURL, "socks5://") {
		return &net.Resolver{}, nil
	}

	host := strings.TrimPrefix(proxyURL, "socks5://")

	dialer, err := proxy.SOCKS5("tcp", host, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("creating SOCKS5 dialer for DNS: %w", err)
	}

	// proxy.SOCKS5 returns a ContextDialer; assert to get DialContext.
	ctxDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not implement ContextDialer")
	}

	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, address string) (net.Conn, error) {
			return ctxDialer.DialContext(ctx, "tcp", address)
		},
	}, nil
}

// ResolveA returns the IPv4 addresses of host.
func (s *System) ResolveA(ctx context.Context, host string) ([]string, error) {
	ips, err := s.r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("%w: A %s: %w", apperr.ErrLookupFailed, host, err)
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out, nil
}

// ResolveCNAME returns the canonical name of host. The platform resolver follows
// the whole chain, so only the final name is reported, never intermediate hops.
// It reports host itself when no CNAME exists; that case is a failed lookup.
func (s *System) ResolveCNAME(ctx context.Context, host string) ([]string, error) {
	canonical, err := s.r.LookupCNAME(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: CNAME %s: %w", apperr.ErrLookupFailed, host, err)
	}
	if canonical == "" || strings.EqualFold(trimDot(canonical), trimDot(host)) {
		return nil, fmt.Errorf("%w: CNAME %s: no records", apperr.ErrLookupFailed, host)
	}
	return []string{canonical}, nil
}
