package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/imroc/req/v3"

	"github.com/tbckr/staticscan/internal/ratelimit"
)

const (
	// retryCount is the number of retries after a 429 or a transport error.
	retryCount = 2
	// retryAfterFallback is used when Retry-After is absent or unparseable.
	retryAfterFallback = 1 * time.Second
	// retryAfterCap keeps a retry inside a single lookup's timeout.
	retryAfterCap = 5 * time.Second
	// transportRetryInterval is the wait between retries on transient connection errors.
	transportRetryInterval = 250 * time.Millisecond
)

// AttachRateLimit hooks limiter onto the client's request pipeline and enables
// retries on HTTP 429 and transient transport errors. A nil limiter leaves
// requests ungated but keeps the retries.
//
// Context cancellation and deadlines are never retried, so the per-lookup
// timeout always bounds the total time spent on one query.
func AttachRateLimit(client *req.Client, limiter *ratelimit.Limiter) {
	if limiter != nil {
		client.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
			return limiter.Wait(r.Context())
		})
	}

	client.SetCommonRetryCount(retryCount)
	client.AddCommonRetryCondition(func(resp *req.Response, _ error) bool {
		return resp != nil && resp.Response != nil && resp.StatusCode == http.StatusTooManyRequests
	})
	client.AddCommonRetryCondition(func(_ *req.Response, err error) bool {
		if err == nil {
			return false
		}
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	})
	client.SetCommonRetryInterval(func(resp *req.Response, _ int) time.Duration {
		if resp == nil || resp.Response == nil {
			return transportRetryInterval
		}
		return parseRetryAfter(resp.Header.Get("Retry-After"))
	})
}

// parseRetryAfter parses a Retry-After header value (integer seconds or HTTP-date)
// and returns a capped sleep duration.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return retryAfterFallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return min(time.Duration(secs)*time.Second, retryAfterCap)
	}
	if t, err := http.ParseTime(header); err == nil {
		return min(max(time.Until(t), 0), retryAfterCap)
	}
	return retryAfterFallback
}
