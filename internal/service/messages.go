package service

import (
	"encoding/json"
	"time"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/transfer"
)

// Empty is the request or response of procedures that carry no data.
type Empty struct{}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IDRequest addresses one record.
type IDRequest struct {
	ID string `json:"id"`
}

type ClientsResponse struct {
	Clients []models.Client `json:"clients"`
}

type ClientRequest struct {
	Client models.Client `json:"client"`
}

type ClientResponse struct {
	Client *models.Client `json:"client"`
}

type ListJobsRequest struct {
	// Status filters by status when set.
	Status models.Status `json:"status,omitempty"`
}

type ListJobsForClientRequest struct {
	ClientID string `json:"clientId"`
}

type JobsResponse struct {
	Jobs []models.Job `json:"jobs"`
}

type GetJobRequest struct {
	ID string `json:"id"`
	// WithAttachments fills in attachment payloads.
	WithAttachments bool `json:"withAttachments,omitempty"`
}

type JobRequest struct {
	Job models.Job `json:"job"`
}

type JobResponse struct {
	Job *models.Job `json:"job"`
}

type AttachmentResponse struct {
	ID      string `json:"id"`
	DataURL string `json:"dataUrl"`
}

type SettingsMessage struct {
	Settings models.Settings `json:"settings"`
}

type GetSettingsResponse struct {
	Settings models.Settings `json:"settings"`
	// JobTypes is the effective job type list: the configured one or the
	// built-in catalogue.
	JobTypes []string `json:"jobTypes"`
}

type UsageResponse struct {
	Bytes   int64 `json:"bytes"`
	Jobs    int   `json:"jobs"`
	Clients int   `json:"clients"`
}

type ClearAllRequest struct {
	Confirm bool `json:"confirm"`
}

type ExportResponse struct {
	Filename string           `json:"filename"`
	Snapshot *models.Snapshot `json:"snapshot"`
}

type ImportRequest struct {
	// Document is an export document as written by Export.
	Document json.RawMessage `json:"document"`
}

type ImportResponse struct {
	Result transfer.Result `json:"result"`
}

type EnterRequest struct {
	JobID string `json:"jobId"`
}

type IndexRequest struct {
	Index int `json:"index"`
}

type AddPhotoRequest struct {
	Photo models.Attachment `json:"photo"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type CompleteRequest struct {
	Confirm bool `json:"confirm"`
}

// LiveStatus describes the open live session.
type LiveStatus struct {
	Active  bool        `json:"active"`
	Origin  time.Time   `json:"origin,omitempty"`
	Elapsed string      `json:"elapsed,omitempty"`
	Job     *models.Job `json:"job,omitempty"`
}
