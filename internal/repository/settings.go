package repository

import (
	"context"
	"fmt"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/storage"
)

// Settings is the repository for the singleton models.Settings.
type Settings struct {
	store *storage.Store
}

// Get returns the stored settings merged over the defaults. Missing or
// corrupt data yields the defaults.
func (r *Settings) Get(ctx context.Context) models.Settings {
	s := models.DefaultSettings()
	if !r.store.LoadObject(ctx, storage.KeySettings, &s) {
		return models.DefaultSettings()
	}
	if s.DefaultChecklist == nil {
		s.DefaultChecklist = []string{}
	}
	return s
}

// Set persists s as given.
func (r *Settings) Set(ctx context.Context, s models.Settings) error {
	if err := r.store.Save(ctx, storage.KeySettings, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
