// Package input reads domain lists from files and standard input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single input line; pasted URLs can exceed bufio's 64 KiB default.
const maxLineSize = 1 << 20

// Read reads lines from r, trims whitespace, and returns non-empty lines in order.
// Blank lines and lines that are only whitespace are dropped. A leading UTF-8
// byte order mark is ignored.
func Read(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line != "" {
			inputs = append(inputs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return inputs, nil
}

// ReadFile reads the domain list at path. A path of "-" reads stdin.
func ReadFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return Read(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
