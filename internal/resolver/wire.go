package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/tbckr/staticscan/internal/apperr"
)

const (
	// resolvConf is read to find the default nameserver.
	resolvConf = "/etc/resolv.conf"
	// fallbackNameserver is used when resolv.conf is missing or empty.
	fallbackNameserver = "1.1.1.1:53"
)

// Wire sends plain DNS queries to a single nameserver over UDP, retrying over
// TCP when the reply is truncated.
type Wire struct {
	server string
	udp    *dns.Client
	tcp    *dns.Client
}

// NewWire returns a Wire backend for server ("host" or "host:port").
// An empty server selects DefaultNameserver.
func NewWire(server string) *Wire {
	if server == "" {
		server = DefaultNameserver()
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &Wire{
		server: server,
		udp:    &dns.Client{Net: "udp"},
		tcp:    &dns.Client{Net: "tcp"},
	}
}

// Server returns the nameserver address queries are sent to.
func (w *Wire) Server() string { return w.server }

// DefaultNameserver returns the first nameserver from /etc/resolv.conf, or
// fallbackNameserver when none is configured.
func DefaultNameserver() string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackNameserver
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// ResolveA returns the IPv4 addresses of host.
func (w *Wire) ResolveA(ctx context.Context, host string) ([]string, error) {
	return w.resolve(ctx, host, dns.TypeA)
}

// ResolveCNAME returns the CNAME targets of host.
func (w *Wire) ResolveCNAME(ctx context.Context, host string) ([]string, error) {
	return w.resolve(ctx, host, dns.TypeCNAME)
}

func (w *Wire) resolve(ctx context.Context, host string, qtype uint16) ([]string, error) {
	resp, err := w.exchange(ctx, newQuery(host, qtype))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", apperr.ErrLookupFailed, dns.TypeToString[qtype], host, err)
	}
	return answers(resp, host, qtype)
}

func (w *Wire) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	resp, _, err := w.udp.ExchangeContext(ctx, m, w.server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		resp, _, err = w.tcp.ExchangeContext(ctx, m, w.server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}
