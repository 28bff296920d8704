package job

import (
	"errors"
	"fmt"

	"github.com/tbckr/staticscan/internal/apperr"
)

// Writer mutates a single job's progress and results. Every method applies its
// change atomically; once the job leaves StatusProcessing, or is deleted, all
// writes fail.
type Writer struct {
	store *Store
	id    string
}

// ID returns the id of the job this writer owns.
func (w *Writer) ID() string { return w.id }

// Progress records that the first processed lines have been classified into
// the buckets described by counts. processed must advance and must equal
// counts.Total().
func (w *Writer) Progress(processed int, counts Counts) error {
	return w.store.update(w.id, func(s *Snapshot) error {
		if processed <= s.Processed || processed > s.Total {
			return fmt.Errorf("%w: processed %d out of range (%d..%d]", apperr.ErrInvalidInput, processed, s.Processed, s.Total)
		}
		if counts.Total() != processed {
			return fmt.Errorf("%w: bucket counts %d do not match processed %d", apperr.ErrInvalidInput, counts.Total(), processed)
		}
		if counts.GitHub < s.GitHubCount || counts.Netlify < s.NetlifyCount || counts.Others < s.OthersCount {
			return fmt.Errorf("%w: bucket counts must not decrease", apperr.ErrInvalidInput)
		}
		s.setCounts(processed, counts)
		return nil
	})
}

// Complete attaches the final results and marks the job completed. results must
// cover every input line exactly once. This is the job's last mutation.
func (w *Writer) Complete(results Results) error {
	return w.store.update(w.id, func(s *Snapshot) error {
		counts := results.Counts()
		if counts.Total() != s.Total {
			return fmt.Errorf("%w: results hold %d lines, job has %d", apperr.ErrInvalidInput, counts.Total(), s.Total)
		}
		now := w.store.now()
		s.setCounts(s.Total, counts)
		s.Results = &results
		s.Status = StatusCompleted
		s.CompletedAt = &now
		return nil
	})
}

// Cancelled reports whether the job was cancelled or deleted, meaning the run
// holding this writer should stop.
func (w *Writer) Cancelled() bool {
	snap, err := w.store.Get(w.id)
	if err != nil {
		return errors.Is(err, apperr.ErrJobNotFound)
	}
	return snap.Status == StatusCancelled
}
