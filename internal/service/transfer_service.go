package service

import (
	"bytes"
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/techdoc/internal/transfer"
)

// TransferService exposes export and import.
type TransferService struct {
	transfer *transfer.Transfer
	now      func() time.Time
}

// NewTransferService creates a TransferService.
func NewTransferService(t *transfer.Transfer) *TransferService {
	return &TransferService{transfer: t, now: time.Now}
}

// Export returns the full snapshot and a suggested file name.
func (s *TransferService) Export(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ExportResponse], error) {
	snap, err := s.transfer.Export(ctx)
	if err != nil {
		return nil, toConnectError("Export", err)
	}
	return connect.NewResponse(&ExportResponse{
		Filename: transfer.ExportFilename(s.now()),
		Snapshot: snap,
	}), nil
}

// Import merges an export document, adding only records not already present.
func (s *TransferService) Import(ctx context.Context, req *connect.Request[ImportRequest]) (*connect.Response[ImportResponse], error) {
	res, err := s.transfer.Import(ctx, bytes.NewReader(req.Msg.Document))
	if err != nil {
		return nil, toConnectError("Import", err)
	}
	return connect.NewResponse(&ImportResponse{Result: res}), nil
}
