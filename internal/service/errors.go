package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/geocode"
	"github.com/mmynk/techdoc/internal/session"
	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/transfer"
)

var (
	errStorageFull     = errors.New("storage full: remove some photos")
	errNotFound        = errors.New("not found")
	errNoSession       = errors.New("no live session")
	errNameRequired    = errors.New("name is required")
	errInvalidStatus   = errors.New("invalid status")
	errInvalidPriority = errors.New("invalid priority")
	errNotConfirmed    = errors.New("confirmation required")
	errNoGeocoder      = errors.New("geocoding is not configured")
)

// toConnectError maps domain errors to Connect codes.
func toConnectError(op string, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, storage.ErrCapacityExceeded):
		slog.Warn(op+" failed: storage full", "error", err)
		return connect.NewError(connect.CodeResourceExhausted, errStorageFull)
	case errors.Is(err, transfer.ErrFormat),
		errors.Is(err, session.ErrChecklistIndex),
		errors.Is(err, session.ErrPhotoIndex):
		code = connect.CodeInvalidArgument
	case errors.Is(err, session.ErrJobNotFound),
		errors.Is(err, geocode.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrJobFinished),
		errors.Is(err, session.ErrCompletionDeclined):
		code = connect.CodeFailedPrecondition
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Warn(op+" failed", "code", code, "error", err)
	}
	return connect.NewError(code, err)
}
