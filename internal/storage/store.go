// Package storage provides durable key/value persistence for techdoc's
// collections.
//
// A Medium persists raw strings by key (SQLite and bbolt implementations live
// in sub-packages). Store layers JSON encoding on top of a Medium, scoped to
// the keys techdoc manages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/techdoc/internal/metrics"
)

// Managed keys.
const (
	KeyJobs     = "td_jobs"
	KeyClients  = "td_clients"
	KeySettings = "td_settings"
	KeySequence = "td_seq"

	// BlobPrefix prefixes every attachment payload key.
	BlobPrefix = "td_blob:"
)

// CollectionKeys lists the fixed keys, in the order they are reported.
var CollectionKeys = []string{KeyJobs, KeyClients, KeySettings, KeySequence}

// CharCost is the estimated storage cost of one character in bytes.
// Values are accounted as UTF-16, two bytes per character.
const CharCost = 2

// ErrCapacityExceeded is returned when a write would exceed the medium's limit.
// The caller's value is untouched; the write can be retried after freeing space.
var ErrCapacityExceeded = errors.New("storage capacity exceeded")

// Medium defines raw key/value persistence.
// This abstraction allows swapping the durable medium (SQLite, bbolt, ...)
// without changing the repository layer.
type Medium interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value stored under key. Each call is atomic: readers see
	// either the old or the new value. Returns ErrCapacityExceeded (wrapped) if
	// the medium is full.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the medium.
	Close() error
}

// EstimateBytes returns the estimated storage cost of s.
func EstimateBytes(s string) int64 {
	return int64(utf8.RuneCountInString(s)) * CharCost
}

// Store reads and writes JSON values on a Medium.
type Store struct {
	medium  Medium
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records writes and decode failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a Store on the given medium.
func New(medium Medium, opts ...Option) *Store {
	s := &Store{medium: medium}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Medium returns the underlying medium.
func (s *Store) Medium() Medium {
	return s.medium
}

// Close closes the underlying medium.
func (s *Store) Close() error {
	return s.medium.Close()
}

// Load decodes the JSON array stored under key.
//
// A missing key, a read failure or malformed JSON all yield an empty slice:
// losing a corrupt collection is preferred over refusing to start.
func Load[T any](ctx context.Context, s *Store, key string) []T {
	items := []T{}
	if !s.LoadObject(ctx, key, &items) || items == nil {
		return []T{}
	}
	return items
}

// LoadObject decodes the JSON value stored under key into v.
// It returns false, leaving v in an unspecified state, if the key is missing
// or cannot be read or decoded.
func (s *Store) LoadObject(ctx context.Context, key string, v any) bool {
	raw, ok, err := s.medium.Get(ctx, key)
	if err != nil {
		slog.Warn("Failed to read key, treating as empty", "key", key, "error", err)
		return false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn("Failed to decode key, treating as empty", "key", key, "error", err)
		s.metrics.DecodeFailure(key)
		return false
	}
	return true
}

// Save encodes v and replaces whatever is stored under key.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.SaveRaw(ctx, key, string(data))
}

// SaveRaw stores value under key without encoding it.
func (s *Store) SaveRaw(ctx context.Context, key, value string) error {
	if err := s.medium.Set(ctx, key, value); err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.metrics.StoreWrite(metricKey(key), "capacity")
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		s.metrics.StoreWrite(metricKey(key), "error")
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	s.metrics.StoreWrite(metricKey(key), "ok")
	return nil
}

// managedKeys returns every key currently owned by the store.
func (s *Store) managedKeys(ctx context.Context) ([]string, error) {
	blobs, err := s.medium.Keys(ctx, BlobPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list blob keys: %w", err)
	}
	return append(append([]string(nil), CollectionKeys...), blobs...), nil
}

// Usage estimates the bytes persisted under managed keys. It is meant for a
// usage indicator only; limits are enforced by the medium.
func (s *Store) Usage(ctx context.Context) (int64, error) {
	keys, err := s.managedKeys(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, key := range keys {
		v, ok, err := s.medium.Get(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if ok {
			total += EstimateBytes(v)
		}
	}
	s.metrics.SetUsage(total)
	return total, nil
}

// ClearAll removes every managed key. This cannot be undone.
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.managedKeys(ctx)
	if err != nil {
		return err
	}
	if err := s.medium.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	s.metrics.SetUsage(0)
	slog.Info("Store cleared", "keys", len(keys))
	return nil
}

// metricKey collapses blob keys into one label value.
func metricKey(key string) string {
	if strings.HasPrefix(key, BlobPrefix) {
		return "blob"
	}
	return key
}
