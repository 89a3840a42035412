// Package service implements techdoc's local Connect API.
//
// Messages are plain Go structs exchanged with the JSON codec, so any Connect
// client (or curl) can call a procedure with
//
//	POST /techdoc.v1.JobService/ListJobs
//	Content-Type: application/json
package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// APIPrefix starts every procedure path.
const APIPrefix = "/techdoc.v1."

// Procedure paths.
const (
	AuthLoginProcedure = "/techdoc.v1.AuthService/Login"

	ClientListProcedure    = "/techdoc.v1.ClientService/ListClients"
	ClientGetProcedure     = "/techdoc.v1.ClientService/GetClient"
	ClientSaveProcedure    = "/techdoc.v1.ClientService/SaveClient"
	ClientDeleteProcedure  = "/techdoc.v1.ClientService/DeleteClient"
	ClientGeocodeProcedure = "/techdoc.v1.ClientService/GeocodeClient"

	JobListProcedure          = "/techdoc.v1.JobService/ListJobs"
	JobGetProcedure           = "/techdoc.v1.JobService/GetJob"
	JobSaveProcedure          = "/techdoc.v1.JobService/SaveJob"
	JobDeleteProcedure        = "/techdoc.v1.JobService/DeleteJob"
	JobListForClientProcedure = "/techdoc.v1.JobService/ListJobsForClient"
	JobGetAttachmentProcedure = "/techdoc.v1.JobService/GetAttachment"

	SettingsGetProcedure      = "/techdoc.v1.SettingsService/GetSettings"
	SettingsSetProcedure      = "/techdoc.v1.SettingsService/SetSettings"
	SettingsUsageProcedure    = "/techdoc.v1.SettingsService/GetUsage"
	SettingsClearAllProcedure = "/techdoc.v1.SettingsService/ClearAll"

	TransferExportProcedure = "/techdoc.v1.TransferService/Export"
	TransferImportProcedure = "/techdoc.v1.TransferService/Import"

	LiveEnterProcedure       = "/techdoc.v1.LiveService/Enter"
	LiveToggleProcedure      = "/techdoc.v1.LiveService/ToggleChecklistItem"
	LiveAddPhotoProcedure    = "/techdoc.v1.LiveService/AddPhoto"
	LiveRemovePhotoProcedure = "/techdoc.v1.LiveService/RemovePhoto"
	LiveSaveNotesProcedure   = "/techdoc.v1.LiveService/SaveNotes"
	LiveCompleteProcedure    = "/techdoc.v1.LiveService/Complete"
	LiveExitProcedure        = "/techdoc.v1.LiveService/Exit"
	LiveStatusProcedure      = "/techdoc.v1.LiveService/Status"
)

// PublicProcedures can be called without a session token.
var PublicProcedures = []string{AuthLoginProcedure}

// Services groups the API implementations. A nil service is not mounted.
type Services struct {
	Auth     *AuthService
	Clients  *ClientService
	Jobs     *JobService
	Settings *SettingsService
	Transfer *TransferService
	Live     *LiveService
}

// Mount registers every procedure of the non-nil services on mux.
func (s Services) Mount(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	if a := s.Auth; a != nil {
		handle(mux, AuthLoginProcedure, a.Login, opts)
	}
	if c := s.Clients; c != nil {
		handle(mux, ClientListProcedure, c.ListClients, opts)
		handle(mux, ClientGetProcedure, c.GetClient, opts)
		handle(mux, ClientSaveProcedure, c.SaveClient, opts)
		handle(mux, ClientDeleteProcedure, c.DeleteClient, opts)
		handle(mux, ClientGeocodeProcedure, c.GeocodeClient, opts)
	}
	if j := s.Jobs; j != nil {
		handle(mux, JobListProcedure, j.ListJobs, opts)
		handle(mux, JobGetProcedure, j.GetJob, opts)
		handle(mux, JobSaveProcedure, j.SaveJob, opts)
		handle(mux, JobDeleteProcedure, j.DeleteJob, opts)
		handle(mux, JobListForClientProcedure, j.ListJobsForClient, opts)
		handle(mux, JobGetAttachmentProcedure, j.GetAttachment, opts)
	}
	if st := s.Settings; st != nil {
		handle(mux, SettingsGetProcedure, st.GetSettings, opts)
		handle(mux, SettingsSetProcedure, st.SetSettings, opts)
		handle(mux, SettingsUsageProcedure, st.GetUsage, opts)
		handle(mux, SettingsClearAllProcedure, st.ClearAll, opts)
	}
	if t := s.Transfer; t != nil {
		handle(mux, TransferExportProcedure, t.Export, opts)
		handle(mux, TransferImportProcedure, t.Import, opts)
	}
	if l := s.Live; l != nil {
		handle(mux, LiveEnterProcedure, l.Enter, opts)
		handle(mux, LiveToggleProcedure, l.ToggleChecklistItem, opts)
		handle(mux, LiveAddPhotoProcedure, l.AddPhoto, opts)
		handle(mux, LiveRemovePhotoProcedure, l.RemovePhoto, opts)
		handle(mux, LiveSaveNotesProcedure, l.SaveNotes, opts)
		handle(mux, LiveCompleteProcedure, l.Complete, opts)
		handle(mux, LiveExitProcedure, l.Exit, opts)
		handle(mux, LiveStatusProcedure, l.Status, opts)
	}
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewClient returns a Connect client for one procedure of a server at baseURL.
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, opts...)
}
