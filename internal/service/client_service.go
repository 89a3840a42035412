package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
)

// Geocoder resolves a client's address to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, client *models.Client) (models.GeoPoint, error)
}

// ClientService implements client CRUD over the repository.
type ClientService struct {
	repo     *repository.Repository
	geocoder Geocoder
}

// NewClientService creates a ClientService. geocoder may be nil.
func NewClientService(repo *repository.Repository, geocoder Geocoder) *ClientService {
	return &ClientService{repo: repo, geocoder: geocoder}
}

// ListClients returns every client, newest first.
func (s *ClientService) ListClients(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ClientsResponse], error) {
	clients := s.repo.Clients.List(ctx)
	slog.Debug("ListClients", "count", len(clients))
	return connect.NewResponse(&ClientsResponse{Clients: clients}), nil
}

// GetClient retrieves a client by ID.
func (s *ClientService) GetClient(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[ClientResponse], error) {
	client, ok := s.repo.Clients.GetByID(ctx, req.Msg.ID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("client %s: %w", req.Msg.ID, errNotFound))
	}
	return connect.NewResponse(&ClientResponse{Client: client}), nil
}

// SaveClient creates or updates a client. A name is required.
func (s *ClientService) SaveClient(ctx context.Context, req *connect.Request[ClientRequest]) (*connect.Response[ClientResponse], error) {
	client := req.Msg.Client
	client.Name = strings.TrimSpace(client.Name)
	if client.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNameRequired)
	}

	saved, err := s.repo.Clients.Save(ctx, &client)
	if err != nil {
		return nil, toConnectError("SaveClient", err)
	}

	slog.Info("Client saved", "client_id", saved.ID, "name", saved.Name)
	return connect.NewResponse(&ClientResponse{Client: saved}), nil
}

// DeleteClient removes a client. Its jobs are kept.
func (s *ClientService) DeleteClient(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	if err := s.repo.Clients.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteClient", err)
	}
	slog.Info("Client deleted", "client_id", req.Msg.ID)
	return connect.NewResponse(&Empty{}), nil
}

// GeocodeClient looks up the client's address and stores the coordinates.
func (s *ClientService) GeocodeClient(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[ClientResponse], error) {
	if s.geocoder == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errNoGeocoder)
	}

	client, ok := s.repo.Clients.GetByID(ctx, req.Msg.ID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("client %s: %w", req.Msg.ID, errNotFound))
	}

	point, err := s.geocoder.Locate(ctx, client)
	if err != nil {
		return nil, toConnectError("GeocodeClient", err)
	}

	client.SetLocation(&point)
	saved, err := s.repo.Clients.Save(ctx, client)
	if err != nil {
		return nil, toConnectError("GeocodeClient", err)
	}

	slog.Info("Client geocoded", "client_id", saved.ID, "lat", point.Lat, "lng", point.Lng)
	return connect.NewResponse(&ClientResponse{Client: saved}), nil
}
