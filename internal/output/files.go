package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CategoryFile names the file a category's results are written to.
func CategoryFile(category string) string {
	return category + ".txt"
}

// WriteCategoryFiles writes every category present in buckets, empty or nil
// ones included, to dir/<category>.txt as newline-separated entries, creating dir if needed.
// It returns the paths written, in the order of categories.
func WriteCategoryFiles(dir string, categories []string, buckets map[string][]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var paths []string
	for _, c := range categories {
		lines, ok := buckets[c]
		if !ok {
			continue
		}
		path := filepath.Join(dir, CategoryFile(c))
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil { //nolint:gosec // result lists are not secret
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
