package classify

import (
	"fmt"
	"strings"

	"github.com/tbckr/staticscan/internal/apperr"
)

// Category is the result bucket a line is sorted into.
type Category string

// Category constants. The string values double as result file stems.
const (
	GitHub  Category = "github"
	Netlify Category = "netlify"
	Other   Category = "others"
)

// Categories returns every category in presentation order.
func Categories() []Category {
	return []Category{GitHub, Netlify, Other}
}

// ParseCategory maps a user-supplied name onto a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case GitHub:
		return GitHub, nil
	case Netlify:
		return Netlify, nil
	case Other, "other":
		return Other, nil
	}
	return "", fmt.Errorf("%w: unknown category %q: must be github, netlify, or others", apperr.ErrInvalidInput, s)
}

// Reason records how an Outcome's category was reached.
type Reason int

// Reason values. Only ReasonClassified carries positive or negative DNS evidence;
// the others all end up in the Other bucket.
const (
	ReasonClassified Reason = iota
	ReasonUnparsable
	ReasonLookupFailed
	ReasonFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonClassified:
		return "classified"
	case ReasonUnparsable:
		return "unparsable"
	case ReasonLookupFailed:
		return "lookup failed"
	case ReasonFailed:
		return "failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output shows the name.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome is the classification of a single hostname together with the evidence
// that produced it.
type Outcome struct {
	Host     string   `json:"host"`
	Category Category `json:"category"`
	Reason   Reason   `json:"reason"`
	A        []string `json:"a,omitempty"`
	CNAME    []string `json:"cname,omitempty"`
	// Err holds the lookup errors observed, if any. A non-nil Err does not imply
	// Category is Other: a failed CNAME lookup still leaves A evidence usable.
	Err error `json:"-"`
}

// IsEmpty reports whether the outcome carries no DNS evidence.
func (o *Outcome) IsEmpty() bool {
	return len(o.A) == 0 && len(o.CNAME) == 0
}
