package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
)

// JobService implements job CRUD over the repository.
type JobService struct {
	repo *repository.Repository
}

// NewJobService creates a JobService.
func NewJobService(repo *repository.Repository) *JobService {
	return &JobService{repo: repo}
}

// ListJobs returns jobs without attachment payloads, newest first.
func (s *JobService) ListJobs(ctx context.Context, req *connect.Request[ListJobsRequest]) (*connect.Response[JobsResponse], error) {
	jobs := s.repo.Jobs.List(ctx)
	if status := req.Msg.Status; status != "" {
		filtered := []models.Job{}
		for _, j := range jobs {
			if j.Status == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	slog.Debug("ListJobs", "status", req.Msg.Status, "count", len(jobs))
	return connect.NewResponse(&JobsResponse{Jobs: jobs}), nil
}

// ListJobsForClient returns the jobs referencing a client.
func (s *JobService) ListJobsForClient(ctx context.Context, req *connect.Request[ListJobsForClientRequest]) (*connect.Response[JobsResponse], error) {
	return connect.NewResponse(&JobsResponse{Jobs: s.repo.Jobs.ForClient(ctx, req.Msg.ClientID)}), nil
}

// GetJob retrieves a job by ID, optionally with attachment payloads.
func (s *JobService) GetJob(ctx context.Context, req *connect.Request[GetJobRequest]) (*connect.Response[JobResponse], error) {
	job, ok := s.repo.Jobs.GetByID(ctx, req.Msg.ID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("job %s: %w", req.Msg.ID, errNotFound))
	}
	if req.Msg.WithAttachments {
		if err := s.repo.Jobs.Hydrate(ctx, job); err != nil {
			return nil, toConnectError("GetJob", err)
		}
	}
	return connect.NewResponse(&JobResponse{Job: job}), nil
}

// SaveJob creates or updates a job. Status and priority, when set, must be
// known values.
func (s *JobService) SaveJob(ctx context.Context, req *connect.Request[JobRequest]) (*connect.Response[JobResponse], error) {
	job := req.Msg.Job
	if job.Status != "" && !job.Status.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errInvalidStatus, job.Status))
	}
	if job.Priority != "" && !job.Priority.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errInvalidPriority, job.Priority))
	}

	// Snapshot the client's name and address the way the job form does.
	if job.ClientID != "" && job.ClientName == "" {
		if client, ok := s.repo.Clients.GetByID(ctx, job.ClientID); ok {
			job.ClientName = client.Name
			job.ClientAddress = client.FullAddress()
		}
	}

	saved, err := s.repo.Jobs.Save(ctx, &job)
	if err != nil {
		return nil, toConnectError("SaveJob", err)
	}

	slog.Info("Job saved", "job_id", saved.ID, "job_number", saved.JobNumber, "status", saved.Status)
	return connect.NewResponse(&JobResponse{Job: saved}), nil
}

// DeleteJob removes a job and its attachments.
func (s *JobService) DeleteJob(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	if err := s.repo.Jobs.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteJob", err)
	}
	slog.Info("Job deleted", "job_id", req.Msg.ID)
	return connect.NewResponse(&Empty{}), nil
}

// GetAttachment returns one attachment payload as a data URL.
func (s *JobService) GetAttachment(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[AttachmentResponse], error) {
	data, ok, err := s.repo.Jobs.Attachment(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetAttachment", err)
	}
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("attachment %s: %w", req.Msg.ID, errNotFound))
	}
	return connect.NewResponse(&AttachmentResponse{ID: req.Msg.ID, DataURL: data}), nil
}
