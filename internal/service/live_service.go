package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/session"
)

// LiveService drives the live session of the server's controller. Only one
// job can be live at a time; every call after Enter applies to it.
type LiveService struct {
	ctl *session.Controller
}

// NewLiveService creates a LiveService on ctl.
func NewLiveService(ctl *session.Controller) *LiveService {
	return &LiveService{ctl: ctl}
}

// Enter opens a job live.
func (s *LiveService) Enter(ctx context.Context, req *connect.Request[EnterRequest]) (*connect.Response[LiveStatus], error) {
	sess, err := s.ctl.Enter(ctx, req.Msg.JobID)
	if err != nil {
		return nil, toConnectError("Enter", err)
	}
	job, err := sess.Job(ctx)
	if err != nil {
		return nil, toConnectError("Enter", err)
	}
	return connect.NewResponse(s.status(sess, job)), nil
}

// Status reports the open session, if any.
func (s *LiveService) Status(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[LiveStatus], error) {
	sess := s.ctl.Current()
	if sess == nil {
		return connect.NewResponse(&LiveStatus{}), nil
	}
	job, err := sess.Job(ctx)
	if err != nil {
		return nil, toConnectError("Status", err)
	}
	return connect.NewResponse(s.status(sess, job)), nil
}

// ToggleChecklistItem flips one checklist item.
func (s *LiveService) ToggleChecklistItem(ctx context.Context, req *connect.Request[IndexRequest]) (*connect.Response[LiveStatus], error) {
	return s.apply(ctx, "ToggleChecklistItem", func(sess *session.Session) (*models.Job, error) {
		return sess.ToggleChecklistItem(ctx, req.Msg.Index)
	})
}

// AddPhoto attaches a photo.
func (s *LiveService) AddPhoto(ctx context.Context, req *connect.Request[AddPhotoRequest]) (*connect.Response[LiveStatus], error) {
	return s.apply(ctx, "AddPhoto", func(sess *session.Session) (*models.Job, error) {
		return sess.AddPhoto(ctx, req.Msg.Photo)
	})
}

// RemovePhoto removes a photo by position.
func (s *LiveService) RemovePhoto(ctx context.Context, req *connect.Request[IndexRequest]) (*connect.Response[LiveStatus], error) {
	return s.apply(ctx, "RemovePhoto", func(sess *session.Session) (*models.Job, error) {
		return sess.RemovePhoto(ctx, req.Msg.Index)
	})
}

// SaveNotes stores the job notes.
func (s *LiveService) SaveNotes(ctx context.Context, req *connect.Request[NotesRequest]) (*connect.Response[LiveStatus], error) {
	return s.apply(ctx, "SaveNotes", func(sess *session.Session) (*models.Job, error) {
		return sess.SaveNotes(ctx, req.Msg.Notes)
	})
}

// Complete finishes the job. The request must confirm.
func (s *LiveService) Complete(ctx context.Context, req *connect.Request[CompleteRequest]) (*connect.Response[LiveStatus], error) {
	sess := s.ctl.Current()
	if sess == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errNoSession)
	}
	job, err := sess.Complete(ctx, func(*models.Job) bool { return req.Msg.Confirm })
	if err != nil {
		return nil, toConnectError("Complete", err)
	}
	slog.Info("Live job completed", "job_id", job.ID, "duration", job.Duration)
	return connect.NewResponse(&LiveStatus{Job: job}), nil
}

// Exit leaves the session without changing the job.
func (s *LiveService) Exit(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	s.ctl.Leave()
	return connect.NewResponse(&Empty{}), nil
}

func (s *LiveService) apply(ctx context.Context, op string, fn func(*session.Session) (*models.Job, error)) (*connect.Response[LiveStatus], error) {
	sess := s.ctl.Current()
	if sess == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errNoSession)
	}
	job, err := fn(sess)
	if err != nil {
		return nil, toConnectError(op, err)
	}
	return connect.NewResponse(s.status(sess, job)), nil
}

func (s *LiveService) status(sess *session.Session, job *models.Job) *LiveStatus {
	return &LiveStatus{
		Active:  true,
		Origin:  sess.Origin(),
		Elapsed: session.FormatClock(sess.Elapsed(s.ctl.Now())),
		Job:     job,
	}
}
