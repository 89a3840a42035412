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

// Clients is the repository for models.Client.
type Clients struct {
	store *storage.Store
	now   func() time.Time
}

func clientID(c *models.Client) string { return c.ID }

// List returns every client, most recently created first.
func (r *Clients) List(ctx context.Context) []models.Client {
	clients := storage.Load[models.Client](ctx, r.store, storage.KeyClients)
	for i := range clients {
		clients[i].Normalize()
	}
	return clients
}

// GetByID returns the client with the given id. ok is false if there is none.
func (r *Clients) GetByID(ctx context.Context, id string) (*models.Client, bool) {
	clients := r.List(ctx)
	if i := indexOf(clients, id, clientID); i >= 0 {
		return &clients[i], true
	}
	return nil, false
}

// Save creates or replaces a client.
//
// A client without an ID is assigned one along with CreatedAt and inserted at
// the front. A client with an ID replaces the stored record in place, keeping
// the stored CreatedAt. UpdatedAt is refreshed either way. The ID, timestamps
// and defaults are written back into client, so a failed save can be retried
// with the same value.
func (r *Clients) Save(ctx context.Context, client *models.Client) (*models.Client, error) {
	all := r.List(ctx)
	now := r.now()

	if client.ID == "" {
		client.ID = ident.NewID()
		client.CreatedAt = now
	} else if i := indexOf(all, client.ID, clientID); i >= 0 {
		client.CreatedAt = all[i].CreatedAt
	} else if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	client.Normalize()

	all = upsert(all, *client, clientID)
	if err := r.store.Save(ctx, storage.KeyClients, all); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	slog.Debug("Client saved", "client_id", client.ID, "name", client.Name)
	saved := *client
	return &saved, nil
}

// Delete removes the client with the given id. Jobs referencing it are kept.
// Deleting an unknown id is a no-op.
func (r *Clients) Delete(ctx context.Context, id string) error {
	all := r.List(ctx)
	i := indexOf(all, id, clientID)
	if i < 0 {
		return nil
	}
	all = append(all[:i], all[i+1:]...)
	if err := r.store.Save(ctx, storage.KeyClients, all); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	slog.Debug("Client deleted", "client_id", id)
	return nil
}

// InsertMissing appends every incoming client whose ID is not already stored.
// Existing records always win. It returns how many were added.
func (r *Clients) InsertMissing(ctx context.Context, incoming []models.Client) (int, error) {
	all := storage.Load[models.Client](ctx, r.store, storage.KeyClients)
	merged, added := appendMissing(all, incoming, clientID)
	if len(added) == 0 {
		return 0, nil
	}
	if err := r.store.Save(ctx, storage.KeyClients, merged); err != nil {
		return 0, fmt.Errorf("failed to merge clients: %w", err)
	}
	return len(added), nil
}
