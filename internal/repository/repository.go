// Package repository implements CRUD over techdoc's collections.
//
// The repository enforces identity (IDs and job numbers are assigned once),
// timestamps (createdAt on first save, updatedAt on every save) and default
// values. It does not validate business rules such as a required client name;
// that belongs to the caller.
package repository

import (
	"time"

	"github.com/mmynk/techdoc/internal/ident"
	"github.com/mmynk/techdoc/internal/storage"
)

// Repository groups the per-collection repositories over one store.
type Repository struct {
	Clients  *Clients
	Jobs     *Jobs
	Settings *Settings

	store *storage.Store
}

type options struct {
	now func() time.Time
}

// Option configures a Repository.
type Option func(*options)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates the repositories on store.
func New(store *storage.Store, opts ...Option) *Repository {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	now := func() time.Time { return o.now().UTC() }

	jobs := &Jobs{store: store, blobs: store.Blobs(), now: now}
	jobs.seq = ident.NewSequence(store.Medium(), jobs.maxJobNumber)

	return &Repository{
		Clients:  &Clients{store: store, now: now},
		Jobs:     jobs,
		Settings: &Settings{store: store},
		store:    store,
	}
}

// Store returns the underlying store.
func (r *Repository) Store() *storage.Store {
	return r.store
}

// indexOf returns the position of the record with the given id, or -1.
func indexOf[T any](items []T, id string, idOf func(*T) string) int {
	for i := range items {
		if idOf(&items[i]) == id {
			return i
		}
	}
	return -1
}

// upsert replaces the record with item's id, or inserts item at the front.
func upsert[T any](items []T, item T, idOf func(*T) string) []T {
	if i := indexOf(items, idOf(&item), idOf); i >= 0 {
		items[i] = item
		return items
	}
	return append([]T{item}, items...)
}

// appendMissing appends every incoming record whose id is not yet present.
// Records without an id are skipped. It returns the merged list and the
// records that were added.
func appendMissing[T any](existing, incoming []T, idOf func(*T) string) ([]T, []T) {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for i := range existing {
		seen[idOf(&existing[i])] = true
	}
	var added []T
	for i := range incoming {
		id := idOf(&incoming[i])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		existing = append(existing, incoming[i])
		added = append(added, incoming[i])
	}
	return existing, added
}
