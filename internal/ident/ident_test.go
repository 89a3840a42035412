package ident

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/storage/sqlite"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestFormatJobNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "JOB-0001"},
		{42, "JOB-0042"},
		{9999, "JOB-9999"},
		{10000, "JOB-10000"},
		{123456, "JOB-123456"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatJobNumber(tt.n))

			n, ok := ParseJobNumber(tt.want)
			assert.True(t, ok)
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestParseJobNumber_Invalid(t *testing.T) {
	for _, s := range []string{"", "JOB-", "JOB-abc", "0001", "INV-0001", "JOB--1"} {
		_, ok := ParseJobNumber(s)
		assert.False(t, ok, s)
	}
}

func openMedium(t *testing.T, path string) *sqlite.SQLiteStore {
	t.Helper()
	m, err := sqlite.New(path)
	require.NoError(t, err)
	return m
}

func TestSequence_StrictlyIncreasingAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seq.db")

	var issued []int64

	m := openMedium(t, path)
	seq := NewSequence(m, nil)
	for i := 0; i < 5; i++ {
		n, err := seq.Next(ctx)
		require.NoError(t, err)
		issued = append(issued, n)
	}
	require.NoError(t, m.Close())

	// Simulated restart: a fresh medium and sequence over the same file.
	m = openMedium(t, path)
	defer m.Close()
	seq = NewSequence(m, nil)
	for i := 0; i < 5; i++ {
		n, err := seq.Next(ctx)
		require.NoError(t, err)
		issued = append(issued, n)
	}

	for i := 1; i < len(issued); i++ {
		assert.Equal(t, issued[i-1]+1, issued[i], "sequence must increase by exactly one")
	}
	assert.Equal(t, int64(1), issued[0])
}

func TestSequence_NextJobNumber(t *testing.T) {
	ctx := context.Background()
	m := openMedium(t, filepath.Join(t.TempDir(), "seq.db"))
	defer m.Close()

	require.NoError(t, m.Set(ctx, storage.KeySequence, "9999"))

	got, err := NewSequence(m, nil).NextJobNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "JOB-10000", got)

	raw, _, _ := m.Get(ctx, storage.KeySequence)
	assert.Equal(t, "10000", raw)
}

func TestSequence_Floor(t *testing.T) {
	ctx := context.Background()
	m := openMedium(t, filepath.Join(t.TempDir(), "seq.db"))
	defer m.Close()

	floor := func(context.Context) int64 { return 41 }

	t.Run("corrupt counter continues from floor", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, storage.KeySequence, "not-a-number"))
		n, err := NewSequence(m, floor).Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("counter ahead of floor wins", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, storage.KeySequence, "100"))
		n, err := NewSequence(m, floor).Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(101), n)
	})
}

func TestNewID_TimeOrderedPrefix(t *testing.T) {
	a := NewID()
	b := NewID()
	// UUIDv7 starts with a 48-bit millisecond timestamp (first 12 hex digits
	// plus separator), so later IDs never sort before earlier ones by prefix.
	assert.LessOrEqual(t, strings.Compare(a[:13], b[:13]), 0)
}
