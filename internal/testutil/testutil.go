// Package testutil provides shared test helpers for classifier and job tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/classify"
)

// MockResolver implements classify.Resolver for testing.
// Each field is a function so tests can set only the methods they need.
// Unset methods report a failed lookup.
type MockResolver struct {
	ResolveAFn     func(ctx context.Context, host string) ([]string, error)
	ResolveCNAMEFn func(ctx context.Context, host string) ([]string, error)

	mu    sync.Mutex
	calls []string
}

var _ classify.Resolver = (*MockResolver)(nil)

// ResolveA implements classify.Resolver.
func (m *MockResolver) ResolveA(ctx context.Context, host string) ([]string, error) {
	m.record("A " + host)
	if m.ResolveAFn != nil {
		return m.ResolveAFn(ctx, host)
	}
	return nil, fmt.Errorf("%w: no A stub for %s", apperr.ErrLookupFailed, host)
}

// ResolveCNAME implements classify.Resolver.
func (m *MockResolver) ResolveCNAME(ctx context.Context, host string) ([]string, error) {
	m.record("CNAME " + host)
	if m.ResolveCNAMEFn != nil {
		return m.ResolveCNAMEFn(ctx, host)
	}
	return nil, fmt.Errorf("%w: no CNAME stub for %s", apperr.ErrLookupFailed, host)
}

// Calls returns the queries issued so far, formatted as "TYPE host".
func (m *MockResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockResolver) record(q string) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	m.mu.Unlock()
}

// StaticResolver answers from fixed tables keyed by hostname.
// Hosts missing from a table fail with apperr.ErrLookupFailed, like NXDOMAIN.
func StaticResolver(a, cname map[string][]string) *MockResolver {
	return &MockResolver{
		ResolveAFn: func(_ context.Context, host string) ([]string, error) {
			if ips, ok := a[host]; ok {
				return ips, nil
			}
			return nil, fmt.Errorf("%w: NXDOMAIN %s", apperr.ErrLookupFailed, host)
		},
		ResolveCNAMEFn: func(_ context.Context, host string) ([]string, error) {
			if targets, ok := cname[host]; ok {
				return targets, nil
			}
			return nil, fmt.Errorf("%w: NXDOMAIN %s", apperr.ErrLookupFailed, host)
		},
	}
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
