package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
	"github.com/miekg/dns"

	"github.com/tbckr/staticscan/internal/apperr"
)

// DefaultDoHURL is the Quad9 DNS-over-HTTPS endpoint.
const DefaultDoHURL = "https://dns.quad9.net/dns-query"

// DoH resolves through an RFC 8484 DNS-over-HTTPS endpoint using wire-format
// GET requests.
type DoH struct {
	client *req.Client
	url    string
}

// NewDoH returns a DoH backend sending queries to url with client.
// An empty url selects DefaultDoHURL.
func NewDoH(client *req.Client, url string) *DoH {
	if url == "" {
		url = DefaultDoHURL
	}
	return &DoH{client: client, url: url}
}

// ResolveA returns the IPv4 addresses of host.
func (d *DoH) ResolveA(ctx context.Context, host string) ([]string, error) {
	return d.resolve(ctx, host, dns.TypeA)
}

// ResolveCNAME returns the CNAME targets of host.
func (d *DoH) ResolveCNAME(ctx context.Context, host string) ([]string, error) {
	return d.resolve(ctx, host, dns.TypeCNAME)
}

func (d *DoH) resolve(ctx context.Context, host string, qtype uint16) ([]string, error) {
	resp, err := d.exchange(ctx, host, qtype)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", apperr.ErrLookupFailed, dns.TypeToString[qtype], host, err)
	}
	return answers(resp, host, qtype)
}

// exchange performs one DoH round trip. The DNS message id is zero as RFC 8484
// recommends for cache friendliness.
func (d *DoH) exchange(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	query := newQuery(host, qtype)
	query.Id = 0
	wire, err := query.Pack()
	if err != nil {
		return nil, fmt.Errorf("packing DNS query: %w", err)
	}

	httpResp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/dns-message").
		SetQueryParam("dns", base64.RawURLEncoding.EncodeToString(wire)).
		Get(d.url)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: DoH request error: %w", apperr.ErrRequestFailed, err)
	}
	if !httpResp.IsSuccessState() {
		body := httpResp.String()
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return nil, fmt.Errorf("%w: DoH server returned HTTP %d: %q", apperr.ErrRequestFailed, httpResp.StatusCode, body)
	}

	resp := new(dns.Msg)
	if err := resp.Unpack(httpResp.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to parse DNS response: %w", err)
	}
	return resp, nil
}
