// Package output renders command results as tables, JSON, or plain text, and
// writes per-category result files.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tbckr/staticscan/internal/apperr"
)

// Format is the output format requested by the user.
type Format string

// Output format constants supported by the --output flag.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// Formats returns every supported format name.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatPlain)}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatPlain:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported output format %q: must be one of %s",
		apperr.ErrInvalidInput, s, strings.Join(Formats(), ", "))
}

// TableFormattable values know how to render themselves as an ASCII table.
type TableFormattable interface {
	WriteTable(w io.Writer) error
}

// PlainFormattable values know how to render themselves as plain text, one
// record per line, for piping into other tools.
type PlainFormattable interface {
	WritePlain(w io.Writer) error
}

// Write dispatches v to the formatter for format.
// JSON uses json.Encoder with indentation. Table and plain require v to
// implement TableFormattable and PlainFormattable respectively.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatTable:
		tf, ok := v.(TableFormattable)
		if !ok {
			return fmt.Errorf("type %T does not support table output", v)
		}
		return tf.WriteTable(w)
	case FormatPlain:
		pf, ok := v.(PlainFormattable)
		if !ok {
			return fmt.Errorf("type %T does not support plain output", v)
		}
		return pf.WritePlain(w)
	default:
		return fmt.Errorf("%w: unsupported output format %q", apperr.ErrInvalidInput, format)
	}
}
