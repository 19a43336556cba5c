package vitals

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reading is one measurement snapshot stored in the vitals_readings
// collection. Heart rate and systolic pressure are the two fields a row must
// carry to be valid; everything else defaults to zero/empty when the source
// column is missing. Readings are never mutated after insert.
type Reading struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID     string             `bson:"patientId" json:"patientId"`
	BatchID       string             `bson:"batchId" json:"batchId"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	HeartRate     float64            `bson:"heartRate" json:"heartRate"`
	SystolicBP    float64            `bson:"systolicBp" json:"systolicBp"`
	DiastolicBP   float64            `bson:"diastolicBp,omitempty" json:"diastolicBp,omitempty"`
	OxygenLevel   float64            `bson:"oxygenLevel,omitempty" json:"oxygenLevel,omitempty"`
	SleepHours    float64            `bson:"sleepHours,omitempty" json:"sleepHours,omitempty"`
	StressLevel   float64            `bson:"stressLevel,omitempty" json:"stressLevel,omitempty"`
	CalorieIntake float64            `bson:"calorieIntake,omitempty" json:"calorieIntake,omitempty"`
	SymptomNotes  string             `bson:"symptomNotes,omitempty" json:"symptomNotes,omitempty"`
}

// BatchStatus is the processing outcome of one upload batch. It moves from
// pending to exactly one of processed or failed and is never revisited.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchProcessed BatchStatus = "processed"
	BatchFailed    BatchStatus = "failed"
)

// UploadBatch maps to the upload_batch table: metadata for one ingestion run.
type UploadBatch struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	PatientID     uuid.UUID   `db:"patient_id" json:"patient_id"`
	FileName      string      `db:"file_name" json:"file_name"`
	FileSizeBytes int64       `db:"file_size_bytes" json:"file_size_bytes"`
	TotalRows     int         `db:"total_rows" json:"total_rows"`
	SuccessCount  int         `db:"success_count" json:"success_count"`
	FailedCount   int         `db:"failed_count" json:"failed_count"`
	Status        BatchStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// BatchResult is the caller-facing outcome of one Ingest call.
type BatchResult struct {
	BatchID      uuid.UUID `json:"batchId"`
	TotalRows    int       `json:"totalRows"`
	SuccessCount int       `json:"successCount"`
	FailedCount  int       `json:"failedCount"`
}
