// Package transfer exports the whole store as a snapshot document and merges
// snapshot documents back in.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mmynk/techdoc/internal/metrics"
	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
)

// ErrFormat is returned when an import document lacks the jobs or clients
// arrays. Nothing is written in that case.
var ErrFormat = errors.New("invalid file format")

// Result reports the outcome of an import.
type Result struct {
	JobsReceived    int `json:"jobsReceived"`
	JobsAdded       int `json:"jobsAdded"`
	ClientsReceived int `json:"clientsReceived"`
	ClientsAdded    int `json:"clientsAdded"`
}

// Skipped returns how many received records were already present.
func (r Result) Skipped() int {
	return r.JobsReceived - r.JobsAdded + r.ClientsReceived - r.ClientsAdded
}

// Transfer exports and imports snapshots of a repository.
type Transfer struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithMetrics records import counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transfer) { t.metrics = m }
}

// WithClock overrides the time source used for exportedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Transfer) { t.now = now }
}

// New creates a Transfer over repo.
func New(repo *repository.Repository, opts ...Option) *Transfer {
	t := &Transfer{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Export returns a full copy of the store with attachment payloads filled in.
func (t *Transfer) Export(ctx context.Context) (*models.Snapshot, error) {
	jobs := t.repo.Jobs.List(ctx)
	for i := range jobs {
		if err := t.repo.Jobs.Hydrate(ctx, &jobs[i]); err != nil {
			return nil, fmt.Errorf("failed to export jobs: %w", err)
		}
	}
	return &models.Snapshot{
		ExportedAt: t.now().UTC(),
		Version:    models.SnapshotVersion,
		Jobs:       jobs,
		Clients:    t.repo.Clients.List(ctx),
		Settings:   t.repo.Settings.Get(ctx),
	}, nil
}

// WriteExport writes the export document to w as indented JSON.
func (t *Transfer) WriteExport(ctx context.Context, w io.Writer) (*models.Snapshot, error) {
	snap, err := t.Export(ctx)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	slog.Info("Export written", "jobs", len(snap.Jobs), "clients", len(snap.Clients))
	return snap, nil
}

// ExportFilename returns the suggested file name for an export made at t.
func ExportFilename(t time.Time) string {
	return "techdoc-export-" + t.Format("2006-01-02") + ".json"
}

// document is the part of a snapshot that import reads. Settings are ignored.
type document struct {
	Jobs    json.RawMessage `json:"jobs"`
	Clients json.RawMessage `json:"clients"`
}

// Import merges the snapshot document read from r into the store.
//
// Only records whose id is not already stored are added, at the end of their
// collection; existing records are never overwritten, so importing the same
// file twice changes nothing the second time. Clients are written before jobs
// in two separate writes: if the jobs write fails the clients stay merged.
func (t *Transfer) Import(ctx context.Context, r io.Reader) (Result, error) {
	jobs, clients, err := decode(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{JobsReceived: len(jobs), ClientsReceived: len(clients)}

	res.ClientsAdded, err = t.repo.Clients.InsertMissing(ctx, clients)
	if err != nil {
		return res, fmt.Errorf("failed to import clients: %w", err)
	}
	t.metrics.Imported("clients", res.ClientsAdded, res.ClientsReceived-res.ClientsAdded)

	res.JobsAdded, err = t.repo.Jobs.InsertMissing(ctx, jobs)
	if err != nil {
		return res, fmt.Errorf("failed to import jobs: %w", err)
	}
	t.metrics.Imported("jobs", res.JobsAdded, res.JobsReceived-res.JobsAdded)

	slog.Info("Import merged",
		"jobs_added", res.JobsAdded, "jobs_received", res.JobsReceived,
		"clients_added", res.ClientsAdded, "clients_received", res.ClientsReceived,
	)
	return res, nil
}

func decode(r io.Reader) ([]models.Job, []models.Client, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !isArray(doc.Jobs) || !isArray(doc.Clients) {
		return nil, nil, fmt.Errorf("%w: jobs and clients must be arrays", ErrFormat)
	}

	var jobs []models.Job
	if err := json.Unmarshal(doc.Jobs, &jobs); err != nil {
		return nil, nil, fmt.Errorf("%w: jobs: %v", ErrFormat, err)
	}
	var clients []models.Client
	if err := json.Unmarshal(doc.Clients, &clients); err != nil {
		return nil, nil, fmt.Errorf("%w: clients: %v", ErrFormat, err)
	}
	return jobs, clients, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
