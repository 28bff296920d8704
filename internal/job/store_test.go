package job_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/staticscan/internal/apperr"
	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/job"
	"github.com/tbckr/staticscan/internal/testutil"
)

func newStore() *job.Store {
	return job.NewStore(testutil.NopLogger())
}

func TestCreate(t *testing.T) {
	s := newStore()
	snap, err := s.Create(3)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(snap.ID, "job_"))
	assert.Equal(t, job.StatusProcessing, snap.Status)
	assert.Equal(t, 3, snap.Total)
	assert.Zero(t, snap.Processed)
	assert.Zero(t, snap.Progress)
	assert.False(t, snap.CreatedAt.IsZero())
	assert.Nil(t, snap.CompletedAt)
	assert.Nil(t, snap.Results)
	assert.False(t, snap.Done())
}

func TestCreate_EmptyInput(t *testing.T) {
	s := newStore()
	for _, total := range []int{0, -1} {
		_, err := s.Create(total)
		require.ErrorIs(t, err, apperr.ErrEmptyInput)
	}
	assert.Empty(t, s.List(), "rejected input must not allocate a job")
}

func TestCreate_UniqueIDs(t *testing.T) {
	s := newStore()
	seen := map[string]bool{}
	for range 100 {
		snap, err := s.Create(1)
		require.NoError(t, err)
		require.False(t, seen[snap.ID], "duplicate id %s", snap.ID)
		seen[snap.ID] = true
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := newStore().Get("job_missing")
	require.ErrorIs(t, err, apperr.ErrJobNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	s := newStore()
	var ids []string
	for range 5 {
		snap, err := s.Create(1)
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}

	list := s.List()
	require.Len(t, list, 5)
	for i, snap := range list {
		assert.Equal(t, ids[len(ids)-1-i], snap.ID)
	}
}

func TestWriter_ProgressAndComplete(t *testing.T) {
	s := newStore()
	snap, err := s.Create(3)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, w.ID())

	require.NoError(t, w.Progress(1, job.Counts{GitHub: 1}))
	got, err := s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Processed)
	assert.InDelta(t, 33.33, got.Progress, 0.001)
	assert.Equal(t, 1, got.GitHubCount)
	assert.Nil(t, got.Results)

	require.NoError(t, w.Progress(2, job.Counts{GitHub: 1, Others: 1}))
	got, err = s.Get(snap.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, got.Progress, 0.001)

	results := job.Results{GitHub: []string{"a.example"}, Netlify: []string{"b.example"}, Others: []string{"c"}}
	require.NoError(t, w.Complete(results))

	got, err = s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Processed)
	assert.InDelta(t, 100.0, got.Progress, 0.001)
	assert.Equal(t, job.Counts{GitHub: 1, Netlify: 1, Others: 1}, got.Counts())
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.CreatedAt))
	require.NotNil(t, got.Results)
	assert.Equal(t, results, *got.Results)
	assert.True(t, got.Done())
}

func TestWriter_RejectsInconsistentProgress(t *testing.T) {
	s := newStore()
	snap, err := s.Create(3)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	require.NoError(t, w.Progress(2, job.Counts{Others: 2}))

	tests := []struct {
		name      string
		processed int
		counts    job.Counts
	}{
		{"does not advance", 2, job.Counts{Others: 2}},
		{"goes backwards", 1, job.Counts{Others: 1}},
		{"beyond total", 4, job.Counts{Others: 4}},
		{"counts mismatch", 3, job.Counts{Others: 2}},
		{"bucket shrinks", 3, job.Counts{GitHub: 2, Netlify: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.Progress(tt.processed, tt.counts)
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	got, err := s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Processed, "rejected writes must not change the job")
}

func TestWriter_CompleteRequiresAllLines(t *testing.T) {
	s := newStore()
	snap, err := s.Create(2)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)

	err = w.Complete(job.Results{Others: []string{"only one"}})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	got, err := s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, got.Status)
}

func TestCancel(t *testing.T) {
	s := newStore()
	snap, err := s.Create(4)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	require.NoError(t, w.Progress(1, job.Counts{Netlify: 1}))
	assert.False(t, w.Cancelled())

	cancelled, err := s.Cancel(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCancelled, cancelled.Status)
	assert.Equal(t, 1, cancelled.Processed)
	assert.True(t, w.Cancelled())

	require.ErrorIs(t, w.Progress(2, job.Counts{Netlify: 2}), apperr.ErrJobFinished)
	require.ErrorIs(t, w.Complete(job.Results{Others: []string{"a", "b", "c", "d"}}), apperr.ErrJobFinished)

	got, err := s.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Processed, "counters freeze on cancel")
	assert.Nil(t, got.Results)
	assert.Nil(t, got.CompletedAt)

	_, err = s.Cancel(snap.ID)
	require.ErrorIs(t, err, apperr.ErrJobFinished)
}

func TestCancel_CompletedJob(t *testing.T) {
	s := newStore()
	snap, err := s.Create(1)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	require.NoError(t, w.Complete(job.Results{Others: []string{"x"}}))

	got, err := s.Cancel(snap.ID)
	require.ErrorIs(t, err, apperr.ErrJobFinished)
	assert.Equal(t, job.StatusCompleted, got.Status)

	_, err = s.Writer(snap.ID)
	require.ErrorIs(t, err, apperr.ErrJobFinished)
}

func TestWriter_IssuedOnce(t *testing.T) {
	s := newStore()
	snap, err := s.Create(1)
	require.NoError(t, err)

	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	_, err = s.Writer(snap.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	require.NoError(t, w.Progress(1, job.Counts{Others: 1}))

	_, err = s.Writer("job_missing")
	require.ErrorIs(t, err, apperr.ErrJobNotFound)
}

func TestCancel_NotFound(t *testing.T) {
	_, err := newStore().Cancel("job_missing")
	require.ErrorIs(t, err, apperr.ErrJobNotFound)
}

func TestDelete_StopsWriter(t *testing.T) {
	s := newStore()
	snap, err := s.Create(2)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(snap.ID))
	assert.True(t, w.Cancelled())
	require.ErrorIs(t, w.Progress(1, job.Counts{Others: 1}), apperr.ErrJobNotFound)

	_, err = s.Get(snap.ID)
	require.ErrorIs(t, err, apperr.ErrJobNotFound)
	require.ErrorIs(t, s.Delete(snap.ID), apperr.ErrJobNotFound)
}

func TestClear(t *testing.T) {
	s := newStore()
	for range 3 {
		_, err := s.Create(1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.Clear())
	assert.Empty(t, s.List())
	assert.Zero(t, s.Clear())
}

func TestResults(t *testing.T) {
	s := newStore()
	snap, err := s.Create(3)
	require.NoError(t, err)

	_, err = s.Results(snap.ID, classify.GitHub)
	require.ErrorIs(t, err, apperr.ErrJobIncomplete)

	w, err := s.Writer(snap.ID)
	require.NoError(t, err)
	require.NoError(t, w.Complete(job.Results{
		GitHub:  []string{"a.example", "b.example"},
		Netlify: nil,
		Others:  []string{"junk"},
	}))

	gh, err := s.Results(snap.ID, classify.GitHub)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", "b.example"}, gh)

	nl, err := s.Results(snap.ID, classify.Netlify)
	require.NoError(t, err)
	assert.Empty(t, nl)

	gh[0] = "mutated"
	again, err := s.Results(snap.ID, classify.GitHub)
	require.NoError(t, err)
	assert.Equal(t, "a.example", again[0], "Results must return a copy")

	_, err = s.Results("job_missing", classify.Other)
	require.ErrorIs(t, err, apperr.ErrJobNotFound)
}

func TestResults_CancelledJob(t *testing.T) {
	s := newStore()
	snap, err := s.Create(1)
	require.NoError(t, err)
	_, err = s.Cancel(snap.ID)
	require.NoError(t, err)

	_, err = s.Results(snap.ID, classify.Other)
	require.ErrorIs(t, err, apperr.ErrJobIncomplete)
}

// Readers polling while a writer advances must always observe a consistent job.
func TestConcurrentReaders_SeeConsistentSnapshots(t *testing.T) {
	const total = 500
	s := newStore()
	snap, err := s.Create(total)
	require.NoError(t, err)
	w, err := s.Writer(snap.ID)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := s.Get(snap.ID)
				if err != nil {
					errs <- err.Error()
					return
				}
				if got.Counts().Total() != got.Processed {
					errs <- "counts do not sum to processed"
					return
				}
				if got.Processed < last {
					errs <- "processed went backwards"
					return
				}
				if (got.Results != nil) != (got.Status == job.StatusCompleted) {
					errs <- "results present without completion"
					return
				}
				last = got.Processed
			}
		}()
	}

	var results job.Results
	for i := 1; i <= total; i++ {
		switch i % 3 {
		case 0:
			results.GitHub = append(results.GitHub, "gh")
		case 1:
			results.Netlify = append(results.Netlify, "nl")
		default:
			results.Others = append(results.Others, "ot")
		}
		require.NoError(t, w.Progress(i, results.Counts()))
	}
	require.NoError(t, w.Complete(results))
	close(done)
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}
