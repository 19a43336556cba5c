package vitals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrBatchNotFound is returned when a batch id resolves to nothing.
	ErrBatchNotFound = errors.New("upload batch not found")
)

// Ingestor runs the CSV upload pipeline: register a batch, parse the stream,
// bulk-insert valid readings and record the per-batch outcome.
type Ingestor struct {
	readings ReadingRepository
	batches  BatchRepository
	log      zerolog.Logger
}

func NewIngestor(readings ReadingRepository, batches BatchRepository, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		readings: readings,
		batches:  batches,
		log:      log.With().Str("component", "vitals_ingestor").Logger(),
	}
}

// Ingest processes one uploaded CSV stream for a patient. The batch row is
// created in pending state before the first byte is read, so a crash mid-parse
// still leaves an audit trail. Row-level failures are counted, not fatal; a
// stream read error aborts with the batch left pending.
//
// A batch is processed when at least one reading was stored, or when the
// stream was empty and nothing failed. It is failed only when every row of a
// non-empty stream was rejected.
func (s *Ingestor) Ingest(ctx context.Context, patientID uuid.UUID, r io.Reader, fileName string, fileSize int64) (*BatchResult, error) {
	batch := &UploadBatch{
		PatientID:     patientID,
		FileName:      fileName,
		FileSizeBytes: fileSize,
		Status:        BatchPending,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create upload batch: %w", err)
	}

	readings, failed, err := parseReadings(r, patientID, batch.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("read upload stream: %w", err)
	}
	total := len(readings) + failed

	success := 0
	if len(readings) > 0 {
		n, err := s.readings.InsertMany(ctx, readings)
		success = n
		if err != nil {
			failedCount := total - success
			if ferr := s.batches.Finalize(ctx, batch.ID, total, success, failedCount, BatchFailed); ferr != nil {
				s.log.Error().Err(ferr).Str("batch_id", batch.ID.String()).Msg("finalize after insert failure")
			}
			return nil, fmt.Errorf("insert readings: %w", err)
		}
	}

	failedCount := total - success
	status := BatchFailed
	if success > 0 || failedCount == 0 {
		status = BatchProcessed
	}
	if err := s.batches.Finalize(ctx, batch.ID, total, success, failedCount, status); err != nil {
		return nil, fmt.Errorf("finalize upload batch: %w", err)
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("patient_id", patientID.String()).
		Int("total", total).
		Int("success", success).
		Int("failed", failedCount).
		Str("status", string(status)).
		Msg("vitals batch ingested")

	return &BatchResult{
		BatchID:      batch.ID,
		TotalRows:    total,
		SuccessCount: success,
		FailedCount:  failedCount,
	}, nil
}

// RecentReadings returns the newest readings for a patient, newest first.
func (s *Ingestor) RecentReadings(ctx context.Context, patientID uuid.UUID, limit int64) ([]*Reading, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.readings.ListRecentByPatient(ctx, patientID, limit)
}

// Batch looks up one upload batch by id.
func (s *Ingestor) Batch(ctx context.Context, id uuid.UUID) (*UploadBatch, error) {
	b, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBatchNotFound
	}
	return b, nil
}

// Batches lists a patient's upload history, newest first.
func (s *Ingestor) Batches(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*UploadBatch, int, error) {
	return s.batches.ListByPatient(ctx, patientID, limit, offset)
}
