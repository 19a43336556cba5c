package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Record is one clinician-entered visit note with its diagnosis.
type Record struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorName    string          `db:"doctor_name" json:"doctor_name"`
	VisitDate     time.Time       `db:"visit_date" json:"visit_date"`
	Diagnosis     string          `db:"diagnosis" json:"diagnosis"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	Prescriptions []*Prescription `db:"-" json:"prescriptions"`
}

// Medication is a catalog entry, deduplicated by drug name.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DrugName  string    `db:"drug_name" json:"drug_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Prescription ties one medication to one clinical record with its regimen.
type Prescription struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RecordID     uuid.UUID `db:"record_id" json:"record_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	DrugName     string    `db:"drug_name" json:"drug_name"`
	Dosage       string    `db:"dosage" json:"dosage"`
	Frequency    string    `db:"frequency" json:"frequency"`
	Duration     string    `db:"duration" json:"duration,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ActiveMedication is the flattened view of a patient's current regimen,
// joined across their most recent records.
type ActiveMedication struct {
	DrugName     string    `db:"drug_name" json:"drug_name"`
	Dosage       string    `db:"dosage" json:"dosage"`
	Frequency    string    `db:"frequency" json:"frequency"`
	Duration     string    `db:"duration" json:"duration,omitempty"`
	Diagnosis    string    `db:"diagnosis" json:"diagnosis"`
	PrescribedOn time.Time `db:"prescribed_on" json:"prescribed_on"`
}
