// Package models defines the records persisted by techdoc.
//
// # Records
//
//   - Client: a customer site the technician visits
//   - Job: one visit to a client, with checklist, photos and documents
//   - Settings: the singleton technician profile
//   - Snapshot: a versioned export of all collections
//
// Records travel as JSON. Field names match the export format so that a
// backup written by any earlier build can be imported unchanged.
//
// # Design Principles
//
// 1. **Explicit optional fields**: nullable values are pointers, lists are
// never nil after Normalize
// 2. **Weak references**: jobs point at clients by ID and keep a snapshot of
// the client's name and address taken at save time
// 3. **Metadata apart from payloads**: attachments carry a blob ID; the
// encoded file content lives in separate storage and is only loaded on demand
package models
