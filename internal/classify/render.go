package classify

import (
	"fmt"
	"io"
	"strings"

	"github.com/tbckr/staticscan/internal/output"
)

// WriteTable renders the outcome and its DNS evidence as a grouped table.
func (o *Outcome) WriteTable(w io.Writer) error {
	rows := [][]string{
		{"Host", output.Clean(o.Host)},
		{"Category", string(o.Category)},
		{"Reason", o.Reason.String()},
	}
	for _, v := range o.A {
		rows = append(rows, []string{"A", output.Clean(v)})
	}
	for _, v := range o.CNAME {
		rows = append(rows, []string{"CNAME", output.Clean(v)})
	}
	if o.Err != nil {
		rows = append(rows, []string{"Error", output.Clean(o.Err.Error())})
	}
	table := output.NewGroupedWrappingTable(w, 20, 20)
	table.Header([]string{"Field", "Value"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain renders the outcome as "category host".
func (o *Outcome) WritePlain(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s\n", o.Category, output.Clean(o.Host))
	return err
}

// WriteTable renders every fingerprint grouped by provider.
func (p *Patterns) WriteTable(w io.Writer) error {
	table := output.NewGroupedWrappingTable(w, 20, 24)
	table.Header([]string{"Provider", "Type", "Value"})
	if err := table.Bulk(p.rows()); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain renders one "provider type value" line per fingerprint.
func (p *Patterns) WritePlain(w io.Writer) error {
	for _, row := range p.rows() {
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}

func (p *Patterns) rows() [][]string {
	var rows [][]string
	add := func(provider Category, pp ProviderPattern) {
		for _, v := range pp.A {
			rows = append(rows, []string{string(provider), "A", v})
		}
		for _, v := range pp.CNAME {
			rows = append(rows, []string{string(provider), "CNAME", v})
		}
	}
	add(GitHub, p.GitHub)
	add(Netlify, p.Netlify)
	return rows
}
