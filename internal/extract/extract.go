// Package extract turns raw input lines into canonical hostnames.
package extract

import (
	"net/url"
	"strings"
)

// defaultScheme is prepended to lines without a scheme so url.Parse sees a host.
const defaultScheme = "http://"

// Domain returns the canonical hostname for line: lower-cased, without scheme,
// port, or path. A line wrapped in square brackets is passed through verbatim.
// ok is false when line is empty or cannot be parsed; such lines are still valid
// input and belong in the "others" bucket.
func Domain(line string) (host string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']' {
		inner := line[1 : len(line)-1]
		return inner, inner != ""
	}
	if !hasScheme(line) {
		line = defaultScheme + line
	}
	u, err := url.Parse(line)
	if err != nil {
		return "", false
	}
	host = strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

// hasScheme reports whether line starts with "scheme://". A "://" that follows
// a path, query, or fragment delimiter belongs to an embedded URL.
func hasScheme(line string) bool {
	i := strings.Index(line, "://")
	return i > 0 && !strings.ContainsAny(line[:i], "/?#")
}
