package models

import "time"

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Label returns the human-readable form shown on badges.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Priority ranks how urgent a job is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Job represents a single visit to a client.
type Job struct {
	// ID is the opaque unique identifier, assigned on first save.
	ID string `json:"id"`

	// JobNumber is the human-readable number (e.g., "JOB-0042").
	// Assigned once on first save and never reused, even after deletion.
	JobNumber string `json:"jobNumber"`

	// ClientID references a Client. It may dangle if the client was deleted.
	ClientID string `json:"clientId"`

	// ClientName and ClientAddress are copied from the client when the job is
	// saved by the form. They are not kept in sync afterwards.
	ClientName    string `json:"clientName"`
	ClientAddress string `json:"clientAddress"`

	// Date is the calendar day of the visit, formatted YYYY-MM-DD.
	Date string `json:"date"`

	Status     Status   `json:"status"`
	Priority   Priority `json:"priority"`
	Technician string   `json:"technician"`

	// TimeIn and TimeOut are local times of day formatted HH:MM.
	TimeIn  string `json:"timeIn"`
	TimeOut string `json:"timeOut"`

	// Duration is rendered on completion (e.g., "1h 30m", "45m").
	Duration string `json:"duration,omitempty"`

	// JobTypes are category labels in the order they were picked.
	JobTypes []string `json:"jobTypes"`

	// Notes are visible to the client; InternalNotes are not.
	Notes         string `json:"notes"`
	InternalNotes string `json:"internalNotes"`

	Checklist []ChecklistItem `json:"checklist"`
	Photos    []Attachment    `json:"photos"`
	Documents []Attachment    `json:"documents"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChecklistItem is one tickable step of a job.
type ChecklistItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// Attachment describes a photo or document attached to a job.
//
// Inside the store only the metadata is kept on the job; Data is moved to
// blob storage under ID and filled back in on demand.
type Attachment struct {
	// ID keys the payload in blob storage. Empty until first saved.
	ID string `json:"id,omitempty"`

	Name string `json:"name"`

	// Size is the original file size in bytes.
	Size int64 `json:"size"`

	MimeType string `json:"type"`

	// Data is the encoded payload as a data URL
	// (e.g., "data:image/jpeg;base64,...").
	Data string `json:"dataUrl,omitempty"`
}

// NewJob returns a pending, medium priority job for the given client with
// every list initialized. The checklist is left empty so the repository seeds
// the default one on first save.
func NewJob(client *Client, date string) *Job {
	j := &Job{Date: date}
	if client != nil {
		j.ClientID = client.ID
		j.ClientName = client.Name
		j.ClientAddress = client.FullAddress()
	}
	j.Normalize()
	return j
}

// Normalize fills defaults for empty fields: nil lists become empty lists,
// an empty status becomes pending and an empty priority becomes medium.
func (j *Job) Normalize() {
	if j.Status == "" {
		j.Status = StatusPending
	}
	if j.Priority == "" {
		j.Priority = PriorityMedium
	}
	if j.JobTypes == nil {
		j.JobTypes = []string{}
	}
	if j.Checklist == nil {
		j.Checklist = []ChecklistItem{}
	}
	if j.Photos == nil {
		j.Photos = []Attachment{}
	}
	if j.Documents == nil {
		j.Documents = []Attachment{}
	}
}

// ChecklistProgress returns how many checklist items are ticked out of the total.
func (j *Job) ChecklistProgress() (done, total int) {
	for _, item := range j.Checklist {
		if item.Checked {
			done++
		}
	}
	return done, len(j.Checklist)
}

// Attachments returns photos followed by documents.
func (j *Job) Attachments() []Attachment {
	all := make([]Attachment, 0, len(j.Photos)+len(j.Documents))
	all = append(all, j.Photos...)
	return append(all, j.Documents...)
}

// Clone returns a deep copy of the job. Lists of the copy are never nil.
func (j *Job) Clone() *Job {
	c := *j
	c.JobTypes = append([]string{}, j.JobTypes...)
	c.Checklist = append([]ChecklistItem{}, j.Checklist...)
	c.Photos = append([]Attachment{}, j.Photos...)
	c.Documents = append([]Attachment{}, j.Documents...)
	return &c
}
