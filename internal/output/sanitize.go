package output

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences from external data, such as DNS
// answers and raw input lines, before it reaches the terminal.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Clean strips ANSI escapes and replaces remaining control characters with '?'.
func Clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '?'
		}
		return r
	}, StripANSI(s))
}
