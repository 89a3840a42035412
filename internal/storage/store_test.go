package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/techdoc/internal/metrics"
	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/storage/sqlite"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newStore(t *testing.T, opts ...sqlite.Option) *storage.Store {
	t.Helper()

	medium, err := sqlite.New(filepath.Join(t.TempDir(), "store.db"), opts...)
	require.NoError(t, err)
	s := storage.New(medium, storage.WithMetrics(metrics.New(prometheus.NewRegistry())))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  *string
		want []record
	}{
		{name: "missing key", raw: nil, want: []record{}},
		{name: "malformed json", raw: ptr(`[{"id":`), want: []record{}},
		{name: "object instead of array", raw: ptr(`{"id":"a"}`), want: []record{}},
		{name: "null", raw: ptr(`null`), want: []record{}},
		{name: "empty string", raw: ptr(``), want: []record{}},
		{name: "valid array", raw: ptr(`[{"id":"a","name":"Acme"}]`), want: []record{{ID: "a", Name: "Acme"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			if tt.raw != nil {
				require.NoError(t, s.Medium().Set(ctx, storage.KeyClients, *tt.raw))
			}

			got := storage.Load[record](ctx, s, storage.KeyClients)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSave_ReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, storage.KeyJobs, []record{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, s.Save(ctx, storage.KeyJobs, []record{{ID: "c"}}))

	assert.Equal(t, []record{{ID: "c"}}, storage.Load[record](ctx, s, storage.KeyJobs))
}

func TestSave_CapacityExceeded(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, sqlite.WithQuota(64))

	big := make([]record, 10)
	for i := range big {
		big[i] = record{ID: "photo", Name: "a large encoded photo"}
	}

	err := s.Save(ctx, storage.KeyJobs, big)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCapacityExceeded)
	assert.Empty(t, storage.Load[record](ctx, s, storage.KeyJobs))
}

func TestUsageAndClearAll(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Medium().Set(ctx, storage.KeyClients, "[]"))  // 2 chars
	require.NoError(t, s.Medium().Set(ctx, storage.KeySequence, "12")) // 2 chars
	require.NoError(t, s.Blobs().Put(ctx, "p1", "data"))               // 4 chars
	require.NoError(t, s.Medium().Set(ctx, "unrelated", "not counted"))

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(16), usage)

	require.NoError(t, s.ClearAll(ctx))

	usage, err = s.Usage(ctx)
	require.NoError(t, err)
	assert.Zero(t, usage)

	ids, err := s.Blobs().IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, ok, err := s.Medium().Get(ctx, "unrelated")
	require.NoError(t, err)
	assert.True(t, ok, "keys outside the managed set survive ClearAll")
}

func TestEstimateBytes(t *testing.T) {
	assert.Equal(t, int64(0), storage.EstimateBytes(""))
	assert.Equal(t, int64(6), storage.EstimateBytes("abc"))
	assert.Equal(t, int64(4), storage.EstimateBytes("é✓"))
}

func TestBlobs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	blobs := s.Blobs()

	require.NoError(t, blobs.Put(ctx, "x", "data:image/jpeg;base64,AAAA"))

	data, ok, err := blobs.Get(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", data)

	require.NoError(t, blobs.Delete(ctx, "x", "missing"))
	_, ok, err = blobs.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func ptr(s string) *string { return &s }
