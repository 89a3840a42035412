package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/techdoc/internal/auth"
	"github.com/mmynk/techdoc/internal/geocode"
	"github.com/mmynk/techdoc/internal/middleware"
	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/session"
	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/storage/sqlite"
	"github.com/mmynk/techdoc/internal/transfer"
)

type fakeGeocoder struct {
	point models.GeoPoint
	err   error
}

func (g fakeGeocoder) Locate(context.Context, *models.Client) (models.GeoPoint, error) {
	return g.point, g.err
}

type testServer struct {
	url  string
	repo *repository.Repository
}

// setupTestServer serves every service over httptest, behind the auth
// interceptor when jwt is non-nil.
func setupTestServer(t *testing.T, jwt *auth.JWTManager, opts ...sqlite.Option) *testServer {
	t.Helper()

	medium, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	store := storage.New(medium)
	repo := repository.New(store)
	ctl := session.NewController(repo.Jobs)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	gate, err := auth.NewStaticAuthenticator("tech", hash)
	require.NoError(t, err)

	svcs := Services{
		Clients:  NewClientService(repo, fakeGeocoder{point: models.GeoPoint{Lat: -32.05, Lng: 115.74}}),
		Jobs:     NewJobService(repo),
		Settings: NewSettingsService(repo, ctl),
		Transfer: NewTransferService(transfer.New(repo)),
		Live:     NewLiveService(ctl),
	}
	var handlerOpts []connect.HandlerOption
	if jwt != nil {
		svcs.Auth = NewAuthService(gate, jwt, logger)
		handlerOpts = append(handlerOpts, connect.WithInterceptors(middleware.RequireAuth(jwt, PublicProcedures...)))
	}

	mux := http.NewServeMux()
	svcs.Mount(mux, handlerOpts...)
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		ctl.Leave()
		store.Close()
	})

	return &testServer{url: server.URL, repo: repo}
}

func call[Req, Res any](t *testing.T, ts *testServer, procedure string, req *Req) (*Res, error) {
	t.Helper()
	client := NewClient[Req, Res](http.DefaultClient, ts.url, procedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func mustCall[Req, Res any](t *testing.T, ts *testServer, procedure string, req *Req) *Res {
	t.Helper()
	res, err := call[Req, Res](t, ts, procedure, req)
	require.NoError(t, err)
	return res
}

func TestClientService(t *testing.T) {
	ts := setupTestServer(t, nil)

	var clientID string

	t.Run("SaveClient creates", func(t *testing.T) {
		res := mustCall[ClientRequest, ClientResponse](t, ts, ClientSaveProcedure,
			&ClientRequest{Client: models.Client{Name: "  Acme Dental ", Suburb: "Fremantle"}})

		assert.NotEmpty(t, res.Client.ID)
		assert.Equal(t, "Acme Dental", res.Client.Name)
		assert.Equal(t, []string{}, res.Client.Tags)
		clientID = res.Client.ID
	})

	t.Run("SaveClient requires a name", func(t *testing.T) {
		_, err := call[ClientRequest, ClientResponse](t, ts, ClientSaveProcedure, &ClientRequest{})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("GetClient", func(t *testing.T) {
		res := mustCall[IDRequest, ClientResponse](t, ts, ClientGetProcedure, &IDRequest{ID: clientID})
		assert.Equal(t, "Acme Dental", res.Client.Name)

		_, err := call[IDRequest, ClientResponse](t, ts, ClientGetProcedure, &IDRequest{ID: "missing"})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	t.Run("GeocodeClient stores coordinates", func(t *testing.T) {
		res := mustCall[IDRequest, ClientResponse](t, ts, ClientGeocodeProcedure, &IDRequest{ID: clientID})
		point, ok := res.Client.Location()
		require.True(t, ok)
		assert.Equal(t, models.GeoPoint{Lat: -32.05, Lng: 115.74}, point)
	})

	t.Run("ListClients and DeleteClient", func(t *testing.T) {
		list := mustCall[Empty, ClientsResponse](t, ts, ClientListProcedure, &Empty{})
		require.Len(t, list.Clients, 1)

		mustCall[IDRequest, Empty](t, ts, ClientDeleteProcedure, &IDRequest{ID: clientID})
		mustCall[IDRequest, Empty](t, ts, ClientDeleteProcedure, &IDRequest{ID: clientID})

		list = mustCall[Empty, ClientsResponse](t, ts, ClientListProcedure, &Empty{})
		assert.Empty(t, list.Clients)
	})
}

func TestClientService_GeocodeNotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(storage.New(newMedium(t)))
	svc := NewClientService(repo, fakeGeocoder{err: geocode.ErrNotFound})

	client, err := repo.Clients.Save(ctx, models.NewClient("Nowhere Pty Ltd"))
	require.NoError(t, err)

	_, err = svc.GeocodeClient(ctx, connect.NewRequest(&IDRequest{ID: client.ID}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = NewClientService(repo, nil).GeocodeClient(ctx, connect.NewRequest(&IDRequest{ID: client.ID}))
	assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
}

func TestJobService(t *testing.T) {
	ts := setupTestServer(t, nil)
	client := mustCall[ClientRequest, ClientResponse](t, ts, ClientSaveProcedure,
		&ClientRequest{Client: models.Client{Name: "Harbour Cafe", Address: "3 Quay Rd", Suburb: "Fremantle", Postcode: "6160"}}).Client

	job := mustCall[JobRequest, JobResponse](t, ts, JobSaveProcedure, &JobRequest{Job: models.Job{
		ClientID: client.ID,
		Date:     "2025-03-14",
		Photos:   []models.Attachment{{Name: "rack.jpg", MimeType: "image/jpeg", Data: "data:image/jpeg;base64,AAAA"}},
	}}).Job

	t.Run("SaveJob fills identity and client snapshot", func(t *testing.T) {
		assert.Equal(t, "JOB-0001", job.JobNumber)
		assert.Equal(t, "Harbour Cafe", job.ClientName)
		assert.Equal(t, client.FullAddress(), job.ClientAddress)
		assert.Len(t, job.Checklist, len(models.DefaultChecklist))
		assert.Empty(t, job.Photos[0].Data)
	})

	t.Run("SaveJob rejects unknown status", func(t *testing.T) {
		_, err := call[JobRequest, JobResponse](t, ts, JobSaveProcedure, &JobRequest{Job: models.Job{Status: "paused"}})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		_, err = call[JobRequest, JobResponse](t, ts, JobSaveProcedure, &JobRequest{Job: models.Job{Priority: "urgent"}})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("GetJob with attachments", func(t *testing.T) {
		res := mustCall[GetJobRequest, JobResponse](t, ts, JobGetProcedure, &GetJobRequest{ID: job.ID})
		assert.Empty(t, res.Job.Photos[0].Data)

		res = mustCall[GetJobRequest, JobResponse](t, ts, JobGetProcedure, &GetJobRequest{ID: job.ID, WithAttachments: true})
		assert.Equal(t, "data:image/jpeg;base64,AAAA", res.Job.Photos[0].Data)
	})

	t.Run("GetAttachment", func(t *testing.T) {
		res := mustCall[IDRequest, AttachmentResponse](t, ts, JobGetAttachmentProcedure, &IDRequest{ID: job.Photos[0].ID})
		assert.Equal(t, "data:image/jpeg;base64,AAAA", res.DataURL)

		_, err := call[IDRequest, AttachmentResponse](t, ts, JobGetAttachmentProcedure, &IDRequest{ID: "missing"})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	t.Run("ListJobs filters by status", func(t *testing.T) {
		all := mustCall[ListJobsRequest, JobsResponse](t, ts, JobListProcedure, &ListJobsRequest{})
		assert.Len(t, all.Jobs, 1)

		done := mustCall[ListJobsRequest, JobsResponse](t, ts, JobListProcedure, &ListJobsRequest{Status: models.StatusCompleted})
		assert.Empty(t, done.Jobs)

		forClient := mustCall[ListJobsForClientRequest, JobsResponse](t, ts, JobListForClientProcedure, &ListJobsForClientRequest{ClientID: client.ID})
		assert.Len(t, forClient.Jobs, 1)
	})

	t.Run("DeleteJob", func(t *testing.T) {
		mustCall[IDRequest, Empty](t, ts, JobDeleteProcedure, &IDRequest{ID: job.ID})
		_, err := call[GetJobRequest, JobResponse](t, ts, JobGetProcedure, &GetJobRequest{ID: job.ID})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestJobService_StorageFull(t *testing.T) {
	ts := setupTestServer(t, nil, sqlite.WithQuota(8000))

	_, err := call[JobRequest, JobResponse](t, ts, JobSaveProcedure, &JobRequest{Job: models.Job{
		Photos: []models.Attachment{{Name: "huge.jpg", Data: "data:image/jpeg;base64," + strings.Repeat("A", 10000)}},
	}})
	require.Error(t, err)
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))

	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, "storage full: remove some photos", connectErr.Message())
}

func TestSettingsService(t *testing.T) {
	ts := setupTestServer(t, nil)

	got := mustCall[Empty, GetSettingsResponse](t, ts, SettingsGetProcedure, &Empty{})
	assert.Equal(t, models.DefaultSettings(), got.Settings)
	assert.Equal(t, models.JobTypes, got.JobTypes)

	set := mustCall[SettingsMessage, SettingsMessage](t, ts, SettingsSetProcedure, &SettingsMessage{Settings: models.Settings{
		TechnicianName: "Sam",
		JobTypes:       []string{"Printer Repair"},
	}})
	assert.Equal(t, "Sam", set.Settings.TechnicianName)

	got = mustCall[Empty, GetSettingsResponse](t, ts, SettingsGetProcedure, &Empty{})
	assert.Equal(t, []string{"Printer Repair"}, got.JobTypes)

	t.Run("usage and clear", func(t *testing.T) {
		mustCall[ClientRequest, ClientResponse](t, ts, ClientSaveProcedure, &ClientRequest{Client: models.Client{Name: "Acme"}})

		usage := mustCall[Empty, UsageResponse](t, ts, SettingsUsageProcedure, &Empty{})
		assert.Positive(t, usage.Bytes)
		assert.Equal(t, 1, usage.Clients)

		_, err := call[ClearAllRequest, Empty](t, ts, SettingsClearAllProcedure, &ClearAllRequest{})
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

		mustCall[ClearAllRequest, Empty](t, ts, SettingsClearAllProcedure, &ClearAllRequest{Confirm: true})
		usage = mustCall[Empty, UsageResponse](t, ts, SettingsUsageProcedure, &Empty{})
		assert.Zero(t, usage.Bytes)
		assert.Zero(t, usage.Clients)
	})
}

func TestTransferService(t *testing.T) {
	ts := setupTestServer(t, nil)
	mustCall[ClientRequest, ClientResponse](t, ts, ClientSaveProcedure, &ClientRequest{Client: models.Client{Name: "Acme"}})

	export := mustCall[Empty, ExportResponse](t, ts, TransferExportProcedure, &Empty{})
	assert.True(t, strings.HasPrefix(export.Filename, "techdoc-export-"))
	assert.Equal(t, 1, export.Snapshot.Version)
	require.Len(t, export.Snapshot.Clients, 1)

	doc, err := json.Marshal(export.Snapshot)
	require.NoError(t, err)

	target := setupTestServer(t, nil)
	res := mustCall[ImportRequest, ImportResponse](t, target, TransferImportProcedure, &ImportRequest{Document: doc})
	assert.Equal(t, 1, res.Result.ClientsAdded)

	res = mustCall[ImportRequest, ImportResponse](t, target, TransferImportProcedure, &ImportRequest{Document: doc})
	assert.Zero(t, res.Result.ClientsAdded)

	_, err = call[ImportRequest, ImportResponse](t, target, TransferImportProcedure, &ImportRequest{Document: json.RawMessage(`{"jobs":[]}`)})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestLiveService(t *testing.T) {
	ts := setupTestServer(t, nil)
	job := mustCall[JobRequest, JobResponse](t, ts, JobSaveProcedure, &JobRequest{Job: models.Job{Date: "2025-03-14"}}).Job

	t.Run("calls without a session fail", func(t *testing.T) {
		status := mustCall[Empty, LiveStatus](t, ts, LiveStatusProcedure, &Empty{})
		assert.False(t, status.Active)

		_, err := call[IndexRequest, LiveStatus](t, ts, LiveToggleProcedure, &IndexRequest{Index: 0})
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	})

	t.Run("enter", func(t *testing.T) {
		status := mustCall[EnterRequest, LiveStatus](t, ts, LiveEnterProcedure, &EnterRequest{JobID: job.ID})
		assert.True(t, status.Active)
		assert.Equal(t, models.StatusInProgress, status.Job.Status)
		assert.NotEmpty(t, status.Job.TimeIn)

		_, err := call[EnterRequest, LiveStatus](t, ts, LiveEnterProcedure, &EnterRequest{JobID: "missing"})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	t.Run("edits", func(t *testing.T) {
		status := mustCall[IndexRequest, LiveStatus](t, ts, LiveToggleProcedure, &IndexRequest{Index: 0})
		assert.True(t, status.Job.Checklist[0].Checked)

		_, err := call[IndexRequest, LiveStatus](t, ts, LiveToggleProcedure, &IndexRequest{Index: 99})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

		status = mustCall[AddPhotoRequest, LiveStatus](t, ts, LiveAddPhotoProcedure,
			&AddPhotoRequest{Photo: models.Attachment{Name: "meter.jpg", Data: "data:image/jpeg;base64,BBBB"}})
		require.Len(t, status.Job.Photos, 1)

		status = mustCall[IndexRequest, LiveStatus](t, ts, LiveRemovePhotoProcedure, &IndexRequest{Index: 0})
		assert.Empty(t, status.Job.Photos)

		status = mustCall[NotesRequest, LiveStatus](t, ts, LiveSaveNotesProcedure, &NotesRequest{Notes: " done "})
		assert.Equal(t, "done", status.Job.Notes)
	})

	t.Run("complete", func(t *testing.T) {
		_, err := call[CompleteRequest, LiveStatus](t, ts, LiveCompleteProcedure, &CompleteRequest{})
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

		status := mustCall[CompleteRequest, LiveStatus](t, ts, LiveCompleteProcedure, &CompleteRequest{Confirm: true})
		assert.Equal(t, models.StatusCompleted, status.Job.Status)
		assert.NotEmpty(t, status.Job.Duration)
		assert.NotEmpty(t, status.Job.TimeOut)

		after := mustCall[Empty, LiveStatus](t, ts, LiveStatusProcedure, &Empty{})
		assert.False(t, after.Active)

		_, err = call[EnterRequest, LiveStatus](t, ts, LiveEnterProcedure, &EnterRequest{JobID: job.ID})
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	})
}

func TestAuth(t *testing.T) {
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	ts := setupTestServer(t, jwt)

	t.Run("calls need a token", func(t *testing.T) {
		_, err := call[Empty, ClientsResponse](t, ts, ClientListProcedure, &Empty{})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := call[LoginRequest, LoginResponse](t, ts, AuthLoginProcedure, &LoginRequest{Username: "tech", Password: "nope nope"})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

		_, err = call[LoginRequest, LoginResponse](t, ts, AuthLoginProcedure, &LoginRequest{Username: "tech"})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("login then call", func(t *testing.T) {
		login := mustCall[LoginRequest, LoginResponse](t, ts, AuthLoginProcedure, &LoginRequest{Username: "tech", Password: "correct horse"})
		require.NotEmpty(t, login.Token)

		client := NewClient[Empty, ClientsResponse](http.DefaultClient, ts.url, ClientListProcedure)
		req := connect.NewRequest(&Empty{})
		req.Header().Set("Authorization", "Bearer "+login.Token)
		resp, err := client.CallUnary(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, resp.Msg.Clients)

		bad := connect.NewRequest(&Empty{})
		bad.Header().Set("Authorization", "Token "+login.Token)
		_, err = client.CallUnary(context.Background(), bad)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func newMedium(t *testing.T) storage.Medium {
	t.Helper()
	medium, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { medium.Close() })
	return medium
}
