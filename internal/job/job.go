// Package job holds the in-memory table of classification jobs.
//
// A Store is safe for concurrent use. Each job has exactly one Writer, held by
// the batch run classifying it; any number of readers may take snapshots at the
// same time. Snapshots are copies taken under the store lock, so a reader never
// sees a partially applied update.
package job

import (
	"math"
	"time"

	"github.com/tbckr/staticscan/internal/classify"
)

// Status is the lifecycle state of a job.
type Status string

// Status constants. StatusProcessing is the only non-terminal state.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Counts holds the running size of each result bucket.
type Counts struct {
	GitHub  int `json:"github"`
	Netlify int `json:"netlify"`
	Others  int `json:"others"`
}

// Total returns the number of lines accounted for by c.
func (c Counts) Total() int { return c.GitHub + c.Netlify + c.Others }

// Results is the final partition of a job's input. GitHub and Netlify hold
// canonical hostnames; Others holds trimmed raw lines. Each bucket keeps input
// order. Results attached to a Snapshot are shared and must not be modified.
type Results struct {
	GitHub  []string `json:"github"`
	Netlify []string `json:"netlify"`
	Others  []string `json:"others"`
}

// Category returns the bucket for c.
func (r *Results) Category(c classify.Category) []string {
	switch c {
	case classify.GitHub:
		return r.GitHub
	case classify.Netlify:
		return r.Netlify
	default:
		return r.Others
	}
}

// Counts returns the bucket sizes of r.
func (r *Results) Counts() Counts {
	return Counts{GitHub: len(r.GitHub), Netlify: len(r.Netlify), Others: len(r.Others)}
}

// Snapshot is a consistent, point-in-time copy of a job.
type Snapshot struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	Progress     float64    `json:"progress"`
	GitHubCount  int        `json:"github_count"`
	NetlifyCount int        `json:"netlify_count"`
	OthersCount  int        `json:"others_count"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Results      *Results   `json:"results,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (s Snapshot) Done() bool { return s.Status != StatusProcessing }

// Counts returns the running bucket sizes.
func (s Snapshot) Counts() Counts {
	return Counts{GitHub: s.GitHubCount, Netlify: s.NetlifyCount, Others: s.OthersCount}
}

func (s *Snapshot) setCounts(processed int, c Counts) {
	s.Processed = processed
	s.Progress = progress(processed, s.Total)
	s.GitHubCount = c.GitHub
	s.NetlifyCount = c.Netlify
	s.OthersCount = c.Others
}

// progress returns processed/total as a percentage rounded to two decimals.
func progress(processed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*100*100) / 100
}
