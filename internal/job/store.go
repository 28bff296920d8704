package job

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/classify"
)

type record struct {
	snap   Snapshot
	seq    uint64
	writer bool
}

// Store is the process-wide job table. Its lifetime is the process lifetime;
// nothing expires implicitly.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*record
	seq    uint64
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		jobs:   make(map[string]*record),
		now:    time.Now,
		newID:  func() string { return "job_" + uuid.NewString() },
		logger: logger,
	}
}

// Create registers a new processing job for total input lines.
// total must be positive; an empty list allocates no id.
func (s *Store) Create(total int) (Snapshot, error) {
	if total <= 0 {
		return Snapshot{}, apperr.ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.jobs[id]; taken; _, taken = s.jobs[id] {
		id = s.newID()
	}
	s.seq++
	rec := &record{
		seq: s.seq,
		snap: Snapshot{
			ID:        id,
			Status:    StatusProcessing,
			Total:     total,
			CreatedAt: s.now(),
		},
	}
	s.jobs[id] = rec
	s.logger.Debug("job created", "job", id, "total", total)
	return rec.snap, nil
}

// Get returns a snapshot of the job with id.
func (s *Store) Get(id string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	return rec.snap, nil
}

// List returns snapshots of every job, newest first.
func (s *Store) List() []Snapshot {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.jobs))
	for _, rec := range s.jobs {
		recs = append(recs, rec)
	}
	out := make([]Snapshot, len(recs))
	slices.SortFunc(recs, func(a, b *record) int {
		if c := b.snap.CreatedAt.Compare(a.snap.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	for i, rec := range recs {
		out[i] = rec.snap
	}
	s.mu.RUnlock()
	return out
}

// Cancel moves a processing job to StatusCancelled. Its counters freeze at
// their current values and it never receives results.
// Cancelling a completed or already cancelled job fails with apperr.ErrJobFinished.
func (s *Store) Cancel(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	if rec.snap.Status != StatusProcessing {
		return rec.snap, fmt.Errorf("%w: %q is %s", apperr.ErrJobFinished, id, rec.snap.Status)
	}
	rec.snap.Status = StatusCancelled
	s.logger.Debug("job cancelled", "job", id, "processed", rec.snap.Processed)
	return rec.snap, nil
}

// Delete removes the job with id regardless of its state.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	delete(s.jobs, id)
	s.logger.Debug("job deleted", "job", id)
	return nil
}

// Clear removes every job and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.jobs)
	s.jobs = make(map[string]*record)
	s.logger.Debug("jobs cleared", "count", n)
	return n
}

// Results returns a copy of one result bucket of a completed job.
func (s *Store) Results(id string, c classify.Category) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	if rec.snap.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: %q is %s", apperr.ErrJobIncomplete, id, rec.snap.Status)
	}
	return slices.Clone(rec.snap.Results.Category(c)), nil
}

// Writer returns the mutation handle for a processing job. It is issued once
// per job; a second request fails with apperr.ErrInvalidInput.
func (s *Store) Writer(id string) (*Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	if rec.snap.Done() {
		return nil, fmt.Errorf("%w: %q is %s", apperr.ErrJobFinished, id, rec.snap.Status)
	}
	if rec.writer {
		return nil, fmt.Errorf("%w: writer for %q already issued", apperr.ErrInvalidInput, id)
	}
	rec.writer = true
	return &Writer{store: s, id: id}, nil
}

// update applies fn to a processing job under the write lock.
func (s *Store) update(id string, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %q", apperr.ErrJobNotFound, id)
	}
	if rec.snap.Status != StatusProcessing {
		return fmt.Errorf("%w: %q is %s", apperr.ErrJobFinished, id, rec.snap.Status)
	}
	return fn(&rec.snap)
}
