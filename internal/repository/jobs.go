package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/techdoc/internal/ident"
	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/storage"
)

// Jobs is the repository for models.Job.
//
// Attachment payloads never live inside the jobs collection: Save moves each
// Data field into blob storage and stores only the metadata. Records returned
// by List and GetByID therefore carry empty Data; call Hydrate to fill it in.
type Jobs struct {
	store *storage.Store
	blobs *storage.Blobs
	seq   *ident.Sequence
	now   func() time.Time
}

func jobID(j *models.Job) string { return j.ID }

// List returns every job, most recently created first, without attachment
// payloads.
func (r *Jobs) List(ctx context.Context) []models.Job {
	jobs := r.load(ctx)
	for i := range jobs {
		jobs[i].Normalize()
	}
	return jobs
}

func (r *Jobs) load(ctx context.Context) []models.Job {
	return storage.Load[models.Job](ctx, r.store, storage.KeyJobs)
}

// GetByID returns the job with the given id. ok is false if there is none.
func (r *Jobs) GetByID(ctx context.Context, id string) (*models.Job, bool) {
	jobs := r.List(ctx)
	if i := indexOf(jobs, id, jobID); i >= 0 {
		return &jobs[i], true
	}
	return nil, false
}

// ForClient returns the jobs referencing clientID, in stored order.
func (r *Jobs) ForClient(ctx context.Context, clientID string) []models.Job {
	jobs := []models.Job{}
	for _, j := range r.List(ctx) {
		if j.ClientID == clientID {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// Save creates or replaces a job.
//
// A job without an ID is assigned one together with a fresh job number
// (any number the caller set is replaced), CreatedAt and, if it has no
// checklist, the default checklist. A job with an ID keeps the stored
// CreatedAt and JobNumber. Attachment payloads are moved to blob storage;
// payloads no longer referenced are removed once the job is written.
// Attachments whose ID the stored job does not already own get a new ID, so
// no two jobs ever share a payload.
//
// Identity and defaults are written back into job and its Data fields are
// left intact, so after ErrCapacityExceeded the caller still holds the full
// edit and may retry.
func (r *Jobs) Save(ctx context.Context, job *models.Job) (*models.Job, error) {
	all := r.load(ctx)
	now := r.now()

	var previous *models.Job
	if job.ID == "" {
		job.ID = ident.NewID()
		job.JobNumber = ""
		job.CreatedAt = now
		if len(job.Checklist) == 0 {
			job.Checklist = defaultChecklist()
		}
	} else if i := indexOf(all, job.ID, jobID); i >= 0 {
		p := all[i]
		previous = &p
		job.CreatedAt = previous.CreatedAt
		job.JobNumber = previous.JobNumber
	} else if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.JobNumber == "" {
		number, err := r.seq.NextJobNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to assign job number: %w", err)
		}
		job.JobNumber = number
	}
	job.UpdatedAt = now
	job.Normalize()

	stored := job.Clone()
	if err := r.claimAttachments(ctx, stored, previous); err != nil {
		return nil, err
	}
	written, err := r.putBlobs(ctx, stored)
	if err != nil {
		r.discardBlobs(ctx, unreferenced(written, previous))
		return nil, err
	}
	// Assigned attachment IDs flow back to the caller.
	for i := range stored.Photos {
		job.Photos[i].ID = stored.Photos[i].ID
	}
	for i := range stored.Documents {
		job.Documents[i].ID = stored.Documents[i].ID
	}

	all = upsert(all, *stored, jobID)
	if err := r.store.Save(ctx, storage.KeyJobs, all); err != nil {
		r.discardBlobs(ctx, unreferenced(written, previous))
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if previous != nil {
		r.discardBlobs(ctx, orphaned(previous, stored))
	}

	slog.Debug("Job saved", "job_id", stored.ID, "job_number", stored.JobNumber, "status", stored.Status)
	return stored, nil
}

// Delete removes the job with the given id and its attachment payloads.
// Deleting an unknown id is a no-op.
func (r *Jobs) Delete(ctx context.Context, id string) error {
	all := r.load(ctx)
	i := indexOf(all, id, jobID)
	if i < 0 {
		return nil
	}
	removed := all[i]
	all = append(all[:i], all[i+1:]...)
	if err := r.store.Save(ctx, storage.KeyJobs, all); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	r.discardBlobs(ctx, attachmentIDs(&removed))
	slog.Debug("Job deleted", "job_id", id)
	return nil
}

// Hydrate fills in the Data of every attachment of job from blob storage.
// Attachments whose payload is missing are left empty.
func (r *Jobs) Hydrate(ctx context.Context, job *models.Job) error {
	for _, list := range [][]models.Attachment{job.Photos, job.Documents} {
		for i := range list {
			a := &list[i]
			if a.Data != "" || a.ID == "" {
				continue
			}
			data, ok, err := r.blobs.Get(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("failed to hydrate job %s: %w", job.ID, err)
			}
			if !ok {
				slog.Warn("Attachment payload missing", "job_id", job.ID, "attachment_id", a.ID)
				continue
			}
			a.Data = data
		}
	}
	return nil
}

// Attachment returns the payload stored for the attachment with the given id.
func (r *Jobs) Attachment(ctx context.Context, id string) (string, bool, error) {
	return r.blobs.Get(ctx, id)
}

// InsertMissing appends every incoming job whose ID is not already stored,
// moving attachment payloads into blob storage. Existing records always win.
// It returns how many were added.
func (r *Jobs) InsertMissing(ctx context.Context, incoming []models.Job) (int, error) {
	all := r.load(ctx)
	merged, added := appendMissing(all, incoming, jobID)
	if len(added) == 0 {
		return 0, nil
	}

	// appendMissing copied the records; split payloads on the merged tail.
	tail := merged[len(all):]
	var written []string
	for i := range tail {
		tail[i] = *tail[i].Clone()
		if err := r.claimAttachments(ctx, &tail[i], nil); err != nil {
			r.discardBlobs(ctx, written)
			return 0, err
		}
		ids, err := r.putBlobs(ctx, &tail[i])
		written = append(written, ids...)
		if err != nil {
			r.discardBlobs(ctx, written)
			return 0, err
		}
	}

	if err := r.store.Save(ctx, storage.KeyJobs, merged); err != nil {
		r.discardBlobs(ctx, written)
		return 0, fmt.Errorf("failed to merge jobs: %w", err)
	}
	return len(added), nil
}

// RemoveOrphanBlobs deletes payloads that no stored job references.
func (r *Jobs) RemoveOrphanBlobs(ctx context.Context) (int, error) {
	ids, err := r.blobs.IDs(ctx)
	if err != nil {
		return 0, err
	}
	referenced := map[string]bool{}
	for _, j := range r.load(ctx) {
		for _, id := range attachmentIDs(&j) {
			referenced[id] = true
		}
	}
	var orphans []string
	for _, id := range ids {
		if !referenced[id] {
			orphans = append(orphans, id)
		}
	}
	if err := r.blobs.Delete(ctx, orphans...); err != nil {
		return 0, err
	}
	return len(orphans), nil
}

// maxJobNumber is the sequence floor: the highest job number stored.
func (r *Jobs) maxJobNumber(ctx context.Context) int64 {
	var highest int64
	for _, j := range r.load(ctx) {
		if n, ok := ident.ParseJobNumber(j.JobNumber); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// claimAttachments gives every attachment of job whose ID previous does not
// own a new ID. A payload stored under the old ID is copied into Data so
// putBlobs writes it under the new one; the old payload is left to its owner.
func (r *Jobs) claimAttachments(ctx context.Context, job *models.Job, previous *models.Job) error {
	owned := map[string]bool{}
	if previous != nil {
		for _, id := range attachmentIDs(previous) {
			owned[id] = true
		}
	}
	for _, list := range [][]models.Attachment{job.Photos, job.Documents} {
		for i := range list {
			a := &list[i]
			if a.ID == "" || owned[a.ID] {
				continue
			}
			if a.Data == "" {
				data, ok, err := r.blobs.Get(ctx, a.ID)
				if err != nil {
					return fmt.Errorf("failed to copy attachment %q: %w", a.Name, err)
				}
				if ok {
					a.Data = data
				}
			}
			a.ID = ident.NewID()
		}
	}
	return nil
}

// putBlobs writes the payload of every attachment of job that carries Data,
// assigning missing IDs, and strips Data from job. It returns the IDs
// written, including on failure.
func (r *Jobs) putBlobs(ctx context.Context, job *models.Job) ([]string, error) {
	var written []string
	for _, list := range [][]models.Attachment{job.Photos, job.Documents} {
		for i := range list {
			a := &list[i]
			if a.Data == "" {
				continue
			}
			if a.ID == "" {
				a.ID = ident.NewID()
			}
			if err := r.blobs.Put(ctx, a.ID, a.Data); err != nil {
				return written, fmt.Errorf("failed to store attachment %q: %w", a.Name, err)
			}
			written = append(written, a.ID)
			a.Data = ""
		}
	}
	return written, nil
}

// discardBlobs removes payloads on a best-effort basis.
func (r *Jobs) discardBlobs(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := r.blobs.Delete(ctx, ids...); err != nil {
		slog.Warn("Failed to remove attachment payloads", "count", len(ids), "error", err)
	}
}

func defaultChecklist() []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(models.DefaultChecklist))
	for i, label := range models.DefaultChecklist {
		items[i] = models.ChecklistItem{ID: ident.NewID(), Label: label}
	}
	return items
}

func attachmentIDs(j *models.Job) []string {
	var ids []string
	for _, a := range j.Attachments() {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// orphaned returns the attachment IDs referenced by before but not by after.
func orphaned(before, after *models.Job) []string {
	keep := map[string]bool{}
	for _, id := range attachmentIDs(after) {
		keep[id] = true
	}
	var ids []string
	for _, id := range attachmentIDs(before) {
		if !keep[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// unreferenced filters written down to the IDs the previous record did not
// already own, so a failed save never removes a payload still in use.
func unreferenced(written []string, previous *models.Job) []string {
	if previous == nil {
		return written
	}
	owned := map[string]bool{}
	for _, id := range attachmentIDs(previous) {
		owned[id] = true
	}
	var ids []string
	for _, id := range written {
		if !owned[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
