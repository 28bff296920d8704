package job

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/output"
)

// Snapshots is a list of jobs as returned by Store.List.
type Snapshots []Snapshot

func (s Snapshot) row() []string {
	completed := "-"
	if s.CompletedAt != nil {
		completed = s.CompletedAt.Format(time.RFC3339)
	}
	return []string{
		s.ID,
		string(s.Status),
		fmt.Sprintf("%d/%d", s.Processed, s.Total),
		strconv.FormatFloat(s.Progress, 'f', 2, 64) + "%",
		strconv.Itoa(s.GitHubCount),
		strconv.Itoa(s.NetlifyCount),
		strconv.Itoa(s.OthersCount),
		s.CreatedAt.Format(time.RFC3339),
		completed,
	}
}

var snapshotHeader = []string{"ID", "Status", "Processed", "Progress", "GitHub", "Netlify", "Others", "Created", "Completed"}

// WriteTable renders the job's counters as a one-row table.
func (s Snapshot) WriteTable(w io.Writer) error {
	return Snapshots{s}.WriteTable(w)
}

// WritePlain renders the job as "id status processed/total github netlify others".
func (s Snapshot) WritePlain(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s %d/%d %d %d %d\n",
		s.ID, s.Status, s.Processed, s.Total, s.GitHubCount, s.NetlifyCount, s.OthersCount)
	return err
}

// WriteTable renders one row per job.
func (l Snapshots) WriteTable(w io.Writer) error {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = s.row()
	}
	table := output.NewWrappingTable(w, 10, 0)
	table.Header(snapshotHeader)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain renders one line per job.
func (l Snapshots) WritePlain(w io.Writer) error {
	for _, s := range l {
		if err := s.WritePlain(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders every result grouped by category.
func (r *Results) WriteTable(w io.Writer) error {
	var rows [][]string
	for _, c := range classify.Categories() {
		for _, v := range r.Category(c) {
			rows = append(rows, []string{string(c), output.Clean(v)})
		}
	}
	table := output.NewGroupedWrappingTable(w, 20, 20)
	table.Header([]string{"Category", "Domain"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain renders one "category entry" line per result, in category order.
func (r *Results) WritePlain(w io.Writer) error {
	for _, c := range classify.Categories() {
		for _, v := range r.Category(c) {
			if _, err := fmt.Fprintf(w, "%s %s\n", c, output.Clean(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Buckets returns the results keyed by category name, for writing result files.
func (r *Results) Buckets() map[string][]string {
	m := make(map[string][]string, 3)
	for _, c := range classify.Categories() {
		m[string(c)] = r.Category(c)
	}
	return m
}
