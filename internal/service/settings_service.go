package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/session"
)

// SettingsService exposes the technician profile and store maintenance.
type SettingsService struct {
	repo *repository.Repository
	live *session.Controller
}

// NewSettingsService creates a SettingsService. live may be nil; when set,
// ClearAll closes its session first.
func NewSettingsService(repo *repository.Repository, live *session.Controller) *SettingsService {
	return &SettingsService{repo: repo, live: live}
}

// GetSettings returns the settings and the effective job type list.
func (s *SettingsService) GetSettings(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetSettingsResponse], error) {
	settings := s.repo.Settings.Get(ctx)
	return connect.NewResponse(&GetSettingsResponse{
		Settings: settings,
		JobTypes: settings.EffectiveJobTypes(),
	}), nil
}

// SetSettings replaces the settings.
func (s *SettingsService) SetSettings(ctx context.Context, req *connect.Request[SettingsMessage]) (*connect.Response[SettingsMessage], error) {
	if err := s.repo.Settings.Set(ctx, req.Msg.Settings); err != nil {
		return nil, toConnectError("SetSettings", err)
	}
	slog.Info("Settings saved", "technician", req.Msg.Settings.TechnicianName)
	return connect.NewResponse(&SettingsMessage{Settings: s.repo.Settings.Get(ctx)}), nil
}

// GetUsage estimates how much of the store is in use.
func (s *SettingsService) GetUsage(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[UsageResponse], error) {
	bytes, err := s.repo.Store().Usage(ctx)
	if err != nil {
		return nil, toConnectError("GetUsage", err)
	}
	return connect.NewResponse(&UsageResponse{
		Bytes:   bytes,
		Jobs:    len(s.repo.Jobs.List(ctx)),
		Clients: len(s.repo.Clients.List(ctx)),
	}), nil
}

// ClearAll deletes every job, client, setting and attachment. The request
// must confirm.
func (s *SettingsService) ClearAll(ctx context.Context, req *connect.Request[ClearAllRequest]) (*connect.Response[Empty], error) {
	if !req.Msg.Confirm {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errNotConfirmed)
	}
	if s.live != nil {
		s.live.Leave()
	}
	if err := s.repo.Store().ClearAll(ctx); err != nil {
		return nil, toConnectError("ClearAll", err)
	}
	slog.Warn("All data cleared")
	return connect.NewResponse(&Empty{}), nil
}
