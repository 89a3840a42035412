// Package ident mints record identifiers and human-readable job numbers.
package ident

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/techdoc/internal/storage"
)

// JobNumberPrefix starts every job number.
const JobNumberPrefix = "JOB-"

// NewID returns a new opaque identifier: a UUIDv7, whose leading 48 bits are
// the current Unix time in milliseconds and whose remainder is random.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Only fails if the random source fails.
		return uuid.New().String()
	}
	return id.String()
}

// FormatJobNumber renders n as JOB-0001. Numbers wider than four digits are
// not truncated.
func FormatJobNumber(n int64) string {
	return fmt.Sprintf("%s%04d", JobNumberPrefix, n)
}

// ParseJobNumber extracts the sequence number from a job number.
func ParseJobNumber(s string) (int64, bool) {
	digits, ok := strings.CutPrefix(s, JobNumberPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FloorFunc returns the highest sequence number already in use elsewhere.
type FloorFunc func(ctx context.Context) int64

// Sequence is the durable job number counter.
type Sequence struct {
	mu     sync.Mutex
	medium storage.Medium
	key    string
	floor  FloorFunc
}

// NewSequence returns a counter persisted under storage.KeySequence.
// floor may be nil.
func NewSequence(medium storage.Medium, floor FloorFunc) *Sequence {
	return &Sequence{medium: medium, key: storage.KeySequence, floor: floor}
}

// Next reads the last issued number, increments it by one, persists it and
// returns it. If the counter is behind the floor (lost, corrupt or passed by
// imported jobs) it continues from the floor instead. A number whose job is
// never saved is simply skipped; numbers are never issued twice.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.current(ctx)
	if err != nil {
		return 0, err
	}
	if s.floor != nil {
		if f := s.floor(ctx); f > last {
			slog.Warn("Job sequence behind existing jobs, advancing", "counter", last, "floor", f)
			last = f
		}
	}

	next := last + 1
	if err := s.medium.Set(ctx, s.key, strconv.FormatInt(next, 10)); err != nil {
		return 0, fmt.Errorf("failed to persist job sequence: %w", err)
	}
	return next, nil
}

// NextJobNumber is Next formatted with FormatJobNumber.
func (s *Sequence) NextJobNumber(ctx context.Context) (string, error) {
	n, err := s.Next(ctx)
	if err != nil {
		return "", err
	}
	return FormatJobNumber(n), nil
}

// current returns the last issued number, 0 if none was issued or the stored
// value is unreadable.
func (s *Sequence) current(ctx context.Context) (int64, error) {
	raw, ok, err := s.medium.Get(ctx, s.key)
	if err != nil {
		return 0, fmt.Errorf("failed to read job sequence: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		slog.Warn("Job sequence unreadable, restarting from floor", "value", raw, "error", err)
		return 0, nil
	}
	return n, nil
}
