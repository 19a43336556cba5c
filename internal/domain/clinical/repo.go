package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the relational contract for clinical records, prescriptions
// and the medication catalog.
type Repository interface {
	CreateRecord(ctx context.Context, r *Record) error
	CreatePrescription(ctx context.Context, p *Prescription) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	History(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error)
	ActiveMedications(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveMedication, error)
	FindOrCreateMedication(ctx context.Context, drugName string) (*Medication, error)
	SearchMedications(ctx context.Context, query string, limit, offset int) ([]*Medication, int, error)
}
