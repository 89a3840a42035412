// Package session runs the on-site "live" workflow for a job: stamping the
// arrival time, ticking the on-site clock and persisting every edit
// immediately until the job is completed or the technician leaves.
//
// A Session never caches the job. Every mutation reads the job fresh from the
// repository, changes one thing and saves it, so concurrent edits from the
// clock display or another view cannot clobber each other.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmynk/techdoc/internal/metrics"
	"github.com/mmynk/techdoc/internal/models"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobFinished        = errors.New("job is completed or cancelled")
	ErrSessionClosed      = errors.New("live session is closed")
	ErrChecklistIndex     = errors.New("checklist item out of range")
	ErrPhotoIndex         = errors.New("photo out of range")
	ErrCompletionDeclined = errors.New("completion not confirmed")
)

// JobStore is the part of the job repository a session needs.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*models.Job, bool)
	Save(ctx context.Context, job *models.Job) (*models.Job, error)
}

// Controller opens live sessions. At most one session, and one clock ticker,
// is active at a time.
type Controller struct {
	jobs    JobStore
	clock   Clock
	display func(string)
	metrics *metrics.Metrics
	router  *Router

	mu      sync.Mutex
	current *Session

	timers atomic.Int32
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithDisplay starts a ticker for every session that calls fn with the
// elapsed on-site time (HH:MM:SS) once on entry and then every TickInterval.
// fn runs on the ticker goroutine and must not call back into the controller.
func WithDisplay(fn func(elapsed string)) Option {
	return func(ctl *Controller) { ctl.display = fn }
}

// WithMetrics records session activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// WithRouter shares a router with other views.
func WithRouter(r *Router) Option {
	return func(ctl *Controller) { ctl.router = r }
}

// NewController creates a Controller over jobs.
func NewController(jobs JobStore, opts ...Option) *Controller {
	c := &Controller{jobs: jobs, clock: SystemClock{}, router: &Router{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Router returns the router sessions are shown on.
func (c *Controller) Router() *Router {
	return c.router
}

// Enter opens the job live, closing any session already open.
//
// If the job has no time in, the current time of day is stamped; a pending job
// becomes in progress. The job is saved only if either changed. The on-site
// clock counts from the time in on today's date, so re-entering later resumes
// the same count.
func (c *Controller) Enter(ctx context.Context, jobID string) (*Session, error) {
	job, ok := c.jobs.GetByID(ctx, jobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status == models.StatusCompleted || job.Status == models.StatusCancelled {
		return nil, fmt.Errorf("%w: %s", ErrJobFinished, job.JobNumber)
	}

	now := c.clock.Now()
	changed := false
	if job.TimeIn == "" {
		job.TimeIn = TimeOfDay(now)
		changed = true
	}
	if job.Status == models.StatusPending {
		job.Status = models.StatusInProgress
		changed = true
	}
	if changed {
		saved, err := c.jobs.Save(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("failed to start live session: %w", err)
		}
		job = saved
	}

	origin, err := clockOrigin(now, job.TimeIn)
	if err != nil {
		slog.Warn("Unreadable time in, counting from now", "job_id", job.ID, "time_in", job.TimeIn, "error", err)
		origin = now
	}

	s := &Session{ctrl: c, jobID: job.ID, jobNumber: job.JobNumber, origin: origin}

	// current must always be the session the router shows.
	c.mu.Lock()
	c.router.Navigate(s)
	c.current = s
	c.mu.Unlock()
	c.metrics.SessionOpened()

	if c.display != nil {
		s.startTicker(c.clock.NewTicker(TickInterval), c.display)
	}

	slog.Info("Live session opened", "job_id", job.ID, "job_number", job.JobNumber, "time_in", job.TimeIn)
	return s, nil
}

// Now returns the current time on the controller's clock.
func (c *Controller) Now() time.Time {
	return c.clock.Now()
}

// Current returns the open session, or nil if there is none.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil || s.Closed() {
		return nil
	}
	return s
}

// Leave closes the open session, if any, without changing the job.
func (c *Controller) Leave() {
	if s := c.Current(); s != nil {
		s.Exit()
	}
}

// ActiveTimers reports how many clock tickers are running. It is never more
// than one.
func (c *Controller) ActiveTimers() int {
	return int(c.timers.Load())
}

// close navigates away from s, tearing it down.
func (c *Controller) close(s *Session, to Page) {
	if c.router.Current() == View(s) {
		c.router.Navigate(to)
		return
	}
	s.Teardown()
}
