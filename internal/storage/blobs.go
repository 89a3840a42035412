package storage

import (
	"context"
	"fmt"
	"strings"
)

// Blobs stores attachment payloads apart from the records that reference
// them, so collections can be listed without decoding file contents.
type Blobs struct {
	store *Store
}

// Blobs returns the blob area of the store.
func (s *Store) Blobs() *Blobs {
	return &Blobs{store: s}
}

// BlobKey returns the medium key holding the payload with the given ID.
func BlobKey(id string) string {
	return BlobPrefix + id
}

// Put stores data under id, replacing any previous payload.
func (b *Blobs) Put(ctx context.Context, id, data string) error {
	return b.store.SaveRaw(ctx, BlobKey(id), data)
}

// Get returns the payload stored under id. ok is false if there is none.
func (b *Blobs) Get(ctx context.Context, id string) (data string, ok bool, err error) {
	data, ok, err = b.store.medium.Get(ctx, BlobKey(id))
	if err != nil {
		return "", false, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, ok, nil
}

// Delete removes the payloads with the given IDs. Unknown IDs are ignored.
func (b *Blobs) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BlobKey(id)
	}
	if err := b.store.medium.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete blobs: %w", err)
	}
	return nil
}

// IDs returns the IDs of every stored payload.
func (b *Blobs) IDs(ctx context.Context) ([]string, error) {
	keys, err := b.store.medium.Keys(ctx, BlobPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, BlobPrefix)
	}
	return ids, nil
}
