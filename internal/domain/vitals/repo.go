package vitals

import (
	"context"

	"github.com/google/uuid"
)

// ReadingRepository is the document-store contract for vitals readings.
// InsertMany returns the number of documents actually written; that count is
// the authority for a batch's successCount.
type ReadingRepository interface {
	InsertMany(ctx context.Context, readings []*Reading) (int, error)
	ListRecentByPatient(ctx context.Context, patientID uuid.UUID, limit int64) ([]*Reading, error)
}

// BatchRepository is the relational contract for upload batch metadata.
// Finalize writes the terminal status exactly once; finalizing an already
// finalized batch is a no-op.
type BatchRepository interface {
	Create(ctx context.Context, b *UploadBatch) error
	Finalize(ctx context.Context, id uuid.UUID, totalRows, successCount, failedCount int, status BatchStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*UploadBatch, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*UploadBatch, int, error)
}
