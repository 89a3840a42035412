package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/techdoc/internal/models"
)

// Session is one job opened live. It implements View.
type Session struct {
	ctrl      *Controller
	jobID     string
	jobNumber string
	origin    time.Time

	mu     sync.Mutex
	closed bool
	draft  *string
	stop   chan struct{}
	done   chan struct{}
}

// Name implements View.
func (s *Session) Name() string { return "live-job" }

// JobID returns the id of the job this session edits.
func (s *Session) JobID() string { return s.jobID }

// Origin returns the instant the on-site clock counts from.
func (s *Session) Origin() time.Time { return s.origin }

// Elapsed returns the on-site time at now, never negative.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if d := now.Sub(s.origin); d > 0 {
		return d
	}
	return 0
}

// Closed reports whether the session has been completed or left.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Job reads the job fresh from the repository.
func (s *Session) Job(ctx context.Context) (*models.Job, error) {
	job, ok := s.ctrl.jobs.GetByID(ctx, s.jobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, s.jobID)
	}
	return job, nil
}

// ToggleChecklistItem flips the checked state of checklist item i.
func (s *Session) ToggleChecklistItem(ctx context.Context, i int) (*models.Job, error) {
	return s.mutate(ctx, func(job *models.Job) error {
		if i < 0 || i >= len(job.Checklist) {
			return fmt.Errorf("%w: %d of %d", ErrChecklistIndex, i, len(job.Checklist))
		}
		job.Checklist[i].Checked = !job.Checklist[i].Checked
		return nil
	})
}

// AddPhoto appends photos to the job.
func (s *Session) AddPhoto(ctx context.Context, photos ...models.Attachment) (*models.Job, error) {
	return s.mutate(ctx, func(job *models.Job) error {
		job.Photos = append(job.Photos, photos...)
		return nil
	})
}

// RemovePhoto removes photo i from the job.
func (s *Session) RemovePhoto(ctx context.Context, i int) (*models.Job, error) {
	return s.mutate(ctx, func(job *models.Job) error {
		if i < 0 || i >= len(job.Photos) {
			return fmt.Errorf("%w: %d of %d", ErrPhotoIndex, i, len(job.Photos))
		}
		job.Photos = append(job.Photos[:i], job.Photos[i+1:]...)
		return nil
	})
}

// SaveNotes stores text, trimmed, as the job's notes.
func (s *Session) SaveNotes(ctx context.Context, text string) (*models.Job, error) {
	return s.mutate(ctx, func(job *models.Job) error {
		job.Notes = strings.TrimSpace(text)
		s.draft = &text
		return nil
	})
}

// SetNotesDraft records unsaved notes. Complete saves the draft.
func (s *Session) SetNotesDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.draft = &text
	return nil
}

// Complete marks the job completed, recording the time out and the duration
// since the clock origin, and closes the session. confirm is shown the fresh
// job first; if it is nil or returns false nothing changes and
// ErrCompletionDeclined is returned.
func (s *Session) Complete(ctx context.Context, confirm func(*models.Job) bool) (*models.Job, error) {
	saved, err := s.mutate(ctx, func(job *models.Job) error {
		if confirm == nil || !confirm(job) {
			return ErrCompletionDeclined
		}
		now := s.ctrl.clock.Now()
		job.Status = models.StatusCompleted
		job.TimeOut = TimeOfDay(now)
		job.Duration = FormatDuration(s.Elapsed(now))
		if s.draft != nil {
			job.Notes = strings.TrimSpace(*s.draft)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ctrl.metrics.JobCompleted()
	slog.Info("Job completed", "job_id", saved.ID, "job_number", saved.JobNumber, "duration", saved.Duration)
	s.ctrl.close(s, PageDashboard)
	return saved, nil
}

// Exit leaves the session. The job keeps whatever was saved.
func (s *Session) Exit() {
	s.ctrl.close(s, PageJobs)
}

// Teardown stops the clock ticker and closes the session. It implements View
// and is safe to call more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if done != nil {
		close(stop)
		<-done
		s.ctrl.timers.Add(-1)
		s.ctrl.metrics.TimerStopped()
	}
	s.ctrl.metrics.SessionClosed()
	slog.Debug("Live session closed", "job_id", s.jobID)
}

// mutate applies fn to a fresh copy of the job and saves it.
func (s *Session) mutate(ctx context.Context, fn func(*models.Job) error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	job, err := s.Job(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	saved, err := s.ctrl.jobs.Save(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", s.jobNumber, err)
	}
	return saved, nil
}

// startTicker runs the display loop until Teardown. It does nothing if the
// session was already closed.
func (s *Session) startTicker(t Ticker, display func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.done != nil {
		t.Stop()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.ctrl.timers.Add(1)
	s.ctrl.metrics.TimerStarted()

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		defer t.Stop()

		display(FormatClock(s.Elapsed(s.ctrl.clock.Now())))
		for {
			select {
			case <-stop:
				return
			case now := <-t.C():
				display(FormatClock(s.Elapsed(now)))
			}
		}
	}(s.stop, s.done)
}
