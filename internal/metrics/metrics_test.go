package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/metrics"
	"github.com/tbckr/staticscan/internal/testutil"
)

func TestWrapResolver_CountsLookups(t *testing.T) {
	m := metrics.New()
	stub := testutil.StaticResolver(
		map[string][]string{"example.com": {"192.0.2.1"}},
		nil,
	)
	r := m.WrapResolver(stub)

	ips, err := r.ResolveA(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1"}, ips)

	_, err = r.ResolveCNAME(context.Background(), "example.com")
	require.Error(t, err)

	assert.Equal(t, []string{"A example.com", "CNAME example.com"}, stub.Calls())

	n, err := promtest.GatherAndCount(m.Gatherer(), "staticscan_dns_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per type/result pair")

	count, err := promtest.GatherAndCount(m.Gatherer(), "staticscan_dns_lookup_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWrapResolver_Timeout(t *testing.T) {
	m := metrics.New()
	r := m.WrapResolver(&testutil.MockResolver{
		ResolveAFn: func(ctx context.Context, _ string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := r.ResolveA(ctx, "slow.example")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	path := filepath.Join(t.TempDir(), "staticscan.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `staticscan_dns_lookups_total{result="timeout",type="A"} 1`)
}

func TestObserveJob(t *testing.T) {
	m := metrics.New()
	m.ObserveJob(job.Snapshot{Status: job.StatusProcessing, Total: 5, Processed: 1, OthersCount: 1})
	m.ObserveJob(job.Snapshot{Status: job.StatusCompleted, Total: 3, Processed: 3, GitHubCount: 2, OthersCount: 1})
	m.ObserveJob(job.Snapshot{Status: job.StatusCancelled, Total: 9, Processed: 1, NetlifyCount: 1})
	m.ObserveResults(job.Results{Others: []string{"x", "y"}})

	path := filepath.Join(t.TempDir(), "staticscan.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `staticscan_jobs_total{status="completed"} 1`)
	assert.Contains(t, out, `staticscan_jobs_total{status="cancelled"} 1`)
	assert.NotContains(t, out, `status="processing"`)
	assert.Contains(t, out, `staticscan_lines_classified_total{category="github"} 2`)
	assert.Contains(t, out, `staticscan_lines_classified_total{category="netlify"} 1`)
	assert.Contains(t, out, `staticscan_lines_classified_total{category="others"} 3`)
}
