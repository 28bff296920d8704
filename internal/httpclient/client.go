// Package httpclient builds the *req.Client used by the DNS-over-HTTPS backend.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/imroc/req/v3"

	"github.com/tbckr/staticscan/internal/version"
)

// DefaultUserAgent is the User-Agent sent when no explicit value is configured.
// var (not const) because version.Version is a link-time variable.
var DefaultUserAgent = "staticscan/" + version.Version + " (+https://github.com/tbckr/staticscan)"

// ResolveProxy returns the proxy value that will actually be used.
// An explicit proxy is returned as-is. Otherwise "<from environment>" is returned
// when any of HTTPS_PROXY, HTTP_PROXY, ALL_PROXY (or lowercase variants) is set,
// and an empty string when none are.
func ResolveProxy(proxy string) string {
	if proxy != "" {
		return proxy
	}
	for _, env := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"} {
		if os.Getenv(env) != "" {
			return "<from environment>"
		}
	}
	return ""
}

// New builds a *req.Client with optional proxy and User-Agent.
// If userAgent is empty, DefaultUserAgent is used.
// proxy supports http://, https://, and socks5:// URLs. When proxy is empty the
// standard proxy environment variables are honoured.
// When debug is true and logger is non-nil, every response is logged at DEBUG level.
func New(proxy, userAgent string, logger *slog.Logger, debug bool) (*req.Client, error) {
	client := req.NewClient()

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetUserAgent(userAgent)

	if proxy != "" {
		if err := validateProxy(proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
		}
		client.SetProxyURL(proxy)
	} else {
		client.SetProxy(http.ProxyFromEnvironment)
	}

	if debug && logger != nil {
		attachDebugHook(client, logger)
	}

	return client, nil
}

// attachDebugHook logs the method, URL, and status code of every response.
func attachDebugHook(client *req.Client, logger *slog.Logger) {
	client.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Request == nil || resp.Request.RawRequest == nil {
			return nil
		}
		logger.Debug("http response",
			"method", resp.Request.RawRequest.Method,
			"url", resp.Request.RawRequest.URL.String(),
			"status", resp.StatusCode,
		)
		return nil
	})
}

func validateProxy(proxy string) error {
	for _, scheme := range []string{"http://", "https://", "socks5://"} {
		if strings.HasPrefix(proxy, scheme) {
			return nil
		}
	}
	return fmt.Errorf("proxy scheme must be http://, https://, or socks5://")
}
