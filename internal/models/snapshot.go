package models

import "time"

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// Snapshot is a complete point-in-time export of all collections.
type Snapshot struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    int       `json:"version"`
	Jobs       []Job     `json:"jobs"`
	Clients    []Client  `json:"clients"`
	Settings   Settings  `json:"settings"`
}
