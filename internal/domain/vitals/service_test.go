package vitals

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repositories --

type mockReadingRepo struct {
	readings  []*Reading
	insertErr error
	// when >= 0, InsertMany reports this count instead of the full slice
	forceCount int
}

func newMockReadingRepo() *mockReadingRepo {
	return &mockReadingRepo{forceCount: -1}
}

func (m *mockReadingRepo) InsertMany(_ context.Context, readings []*Reading) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.readings = append(m.readings, readings...)
	if m.forceCount >= 0 {
		return m.forceCount, nil
	}
	return len(readings), nil
}

func (m *mockReadingRepo) ListRecentByPatient(_ context.Context, patientID uuid.UUID, limit int64) ([]*Reading, error) {
	result := []*Reading{}
	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].PatientID == patientID.String() {
			result = append(result, m.readings[i])
		}
		if int64(len(result)) == limit {
			break
		}
	}
	return result, nil
}

type mockBatchRepo struct {
	batches map[uuid.UUID]*UploadBatch
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: make(map[uuid.UUID]*UploadBatch)}
}

func (m *mockBatchRepo) Create(_ context.Context, b *UploadBatch) error {
	b.ID = uuid.New()
	b.Status = BatchPending
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.batches[b.ID] = b
	return nil
}

func (m *mockBatchRepo) Finalize(_ context.Context, id uuid.UUID, totalRows, successCount, failedCount int, status BatchStatus) error {
	b, ok := m.batches[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	if b.Status != BatchPending {
		return nil
	}
	b.TotalRows = totalRows
	b.SuccessCount = successCount
	b.FailedCount = failedCount
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (m *mockBatchRepo) GetByID(_ context.Context, id uuid.UUID) (*UploadBatch, error) {
	b, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *mockBatchRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*UploadBatch, int, error) {
	var result []*UploadBatch
	for _, b := range m.batches {
		if b.PatientID == patientID {
			result = append(result, b)
		}
	}
	total := len(result)
	if offset >= len(result) {
		return []*UploadBatch{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func newTestIngestor() (*Ingestor, *mockReadingRepo, *mockBatchRepo) {
	readings := newMockReadingRepo()
	batches := newMockBatchRepo()
	return NewIngestor(readings, batches, zerolog.Nop()), readings, batches
}

// -- Ingest Tests --

const csvHeader = "Heart_Rate,Systolic_BP,Diastolic_BP,Oxygen_Level,Sleep_Hours,Stress_Level,Calorie_Intake,Symptom_Notes\n"

func TestIngest_AllRowsValid(t *testing.T) {
	svc, readings, batches := newTestIngestor()
	patientID := uuid.New()

	body := csvHeader +
		"72,118,76,98,7.5,3,2100,\n" +
		"80,125,82,97,6,4,2300,mild headache\n"

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TotalRows != 2 || result.SuccessCount != 2 || result.FailedCount != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(readings.readings) != 2 {
		t.Fatalf("expected 2 stored readings, got %d", len(readings.readings))
	}
	if readings.readings[1].SymptomNotes != "mild headache" {
		t.Errorf("symptom notes not carried: %q", readings.readings[1].SymptomNotes)
	}
	b := batches.batches[result.BatchID]
	if b == nil || b.Status != BatchProcessed {
		t.Errorf("expected processed batch, got %+v", b)
	}
}

func TestIngest_MixedRows(t *testing.T) {
	svc, readings, batches := newTestIngestor()
	patientID := uuid.New()

	// Second row is missing its heart rate and must be rejected on its own.
	body := csvHeader +
		"72,118,76,98,7.5,3,2100,\n" +
		",130,85,96,5,6,2500,dizzy\n" +
		"90,140,92,95,5.5,7,2600,chest tightness\n"

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TotalRows != 3 || result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(readings.readings) != 2 {
		t.Errorf("expected 2 stored readings, got %d", len(readings.readings))
	}
	if batches.batches[result.BatchID].Status != BatchProcessed {
		t.Errorf("a batch with any stored reading is processed")
	}
}

func TestIngest_AllRowsInvalid(t *testing.T) {
	svc, readings, batches := newTestIngestor()
	patientID := uuid.New()

	body := csvHeader +
		",130,85,96,5,6,2500,\n" +
		"abc,140,,,,,\n"

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TotalRows != 2 || result.SuccessCount != 0 || result.FailedCount != 2 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(readings.readings) != 0 {
		t.Errorf("no readings should be stored, got %d", len(readings.readings))
	}
	if batches.batches[result.BatchID].Status != BatchFailed {
		t.Errorf("a non-empty batch with zero stored readings is failed")
	}
}

func TestIngest_EmptyStream(t *testing.T) {
	svc, _, batches := newTestIngestor()
	patientID := uuid.New()

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(""), "empty.csv", 0)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TotalRows != 0 || result.SuccessCount != 0 || result.FailedCount != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if batches.batches[result.BatchID].Status != BatchProcessed {
		t.Errorf("an empty stream with nothing failed is processed")
	}
}

func TestIngest_HeaderOnly(t *testing.T) {
	svc, _, batches := newTestIngestor()
	patientID := uuid.New()

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(csvHeader), "header.csv", int64(len(csvHeader)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TotalRows != 0 || result.FailedCount != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if batches.batches[result.BatchID].Status != BatchProcessed {
		t.Errorf("header-only batch should be processed")
	}
}

func TestIngest_InsertFailure(t *testing.T) {
	svc, readings, batches := newTestIngestor()
	readings.insertErr = fmt.Errorf("connection reset")
	patientID := uuid.New()

	body := csvHeader + "72,118,76,98,7.5,3,2100,\n"
	_, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err == nil {
		t.Fatal("expected error when the store rejects the insert")
	}
	for _, b := range batches.batches {
		if b.Status != BatchFailed {
			t.Errorf("batch should be finalized failed after insert error, got %s", b.Status)
		}
	}
}

func TestIngest_StoreCountIsAuthoritative(t *testing.T) {
	svc, readings, _ := newTestIngestor()
	readings.forceCount = 1
	patientID := uuid.New()

	body := csvHeader +
		"72,118,76,98,7.5,3,2100,\n" +
		"80,125,82,97,6,4,2300,\n"

	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Errorf("success must come from the store count: %+v", result)
	}
	if result.SuccessCount+result.FailedCount != result.TotalRows {
		t.Errorf("counts must sum to total: %+v", result)
	}
}

func TestIngest_TimestampColumn(t *testing.T) {
	svc, readings, _ := newTestIngestor()
	patientID := uuid.New()

	body := "Heart_Rate,Systolic_BP,Timestamp\n" +
		"72,118,2026-01-15T08:30:00Z\n" +
		"75,120,not-a-time\n"

	_, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	want, _ := time.Parse(time.RFC3339, "2026-01-15T08:30:00Z")
	if !readings.readings[0].Timestamp.Equal(want) {
		t.Errorf("expected parsed timestamp, got %v", readings.readings[0].Timestamp)
	}
	if readings.readings[1].Timestamp.Before(want) {
		t.Errorf("unparsable timestamp should fall back to ingest time")
	}
}

func TestIngest_MissingMandatoryColumn(t *testing.T) {
	svc, _, _ := newTestIngestor()
	patientID := uuid.New()

	// No Systolic_BP column at all, so every row fails.
	body := "Heart_Rate,Diastolic_BP\n72,80\n75,82\n"
	result, err := svc.Ingest(context.Background(), patientID, strings.NewReader(body), "vitals.csv", int64(len(body)))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.SuccessCount != 0 || result.FailedCount != 2 {
		t.Errorf("unexpected counts: %+v", result)
	}
}

func TestBatch_NotFound(t *testing.T) {
	svc, _, _ := newTestIngestor()
	_, err := svc.Batch(context.Background(), uuid.New())
	if err != ErrBatchNotFound {
		t.Errorf("expected ErrBatchNotFound, got %v", err)
	}
}
