package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrRecordNotFound = errors.New("clinical record not found")
	ErrNoDiagnosis    = errors.New("diagnosis is required")
)

// TxRunner executes fn inside one transaction; the repository picks the
// transaction up from the context it is given.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PrescriptionInput is one prescription line on a new record, identified by
// drug name rather than catalog id.
type PrescriptionInput struct {
	DrugName  string `json:"drug_name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// RecordInput is the payload for creating a clinical record.
type RecordInput struct {
	PatientID     uuid.UUID           `json:"patient_id"`
	DoctorName    string              `json:"doctor_name"`
	VisitDate     time.Time           `json:"visit_date"`
	Diagnosis     string              `json:"diagnosis"`
	Notes         string              `json:"notes"`
	Prescriptions []PrescriptionInput `json:"prescriptions"`
}

type Service struct {
	repo Repository
	inTx TxRunner
	log  zerolog.Logger
}

func NewService(repo Repository, inTx TxRunner, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		inTx: inTx,
		log:  log.With().Str("component", "clinical_service").Logger(),
	}
}

// CreateRecord stores the record and all its prescriptions in one
// transaction: either the whole visit lands or nothing does. Medications are
// resolved by drug name, creating catalog entries as needed.
func (s *Service) CreateRecord(ctx context.Context, in *RecordInput) (*Record, error) {
	if in.PatientID == uuid.Nil {
		return nil, errors.New("patient id is required")
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, ErrNoDiagnosis
	}
	visitDate := in.VisitDate
	if visitDate.IsZero() {
		visitDate = time.Now().UTC()
	}

	rec := &Record{
		PatientID:     in.PatientID,
		DoctorName:    strings.TrimSpace(in.DoctorName),
		VisitDate:     visitDate,
		Diagnosis:     strings.TrimSpace(in.Diagnosis),
		Notes:         in.Notes,
		Prescriptions: []*Prescription{},
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateRecord(ctx, rec); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		for _, pin := range in.Prescriptions {
			drug := strings.TrimSpace(pin.DrugName)
			if drug == "" {
				return errors.New("prescription drug name is required")
			}
			med, err := s.repo.FindOrCreateMedication(ctx, drug)
			if err != nil {
				return fmt.Errorf("resolve medication %q: %w", drug, err)
			}
			p := &Prescription{
				RecordID:     rec.ID,
				MedicationID: med.ID,
				DrugName:     med.DrugName,
				Dosage:       pin.Dosage,
				Frequency:    pin.Frequency,
				Duration:     pin.Duration,
			}
			if err := s.repo.CreatePrescription(ctx, p); err != nil {
				return fmt.Errorf("create prescription: %w", err)
			}
			rec.Prescriptions = append(rec.Prescriptions, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("record_id", rec.ID.String()).
		Str("patient_id", rec.PatientID.String()).
		Int("prescriptions", len(rec.Prescriptions)).
		Msg("clinical record created")
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// History returns a patient's visit history, most recent visit first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.History(ctx, patientID, limit)
}

// ActiveMedications returns the patient's current regimen view.
func (s *Service) ActiveMedications(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveMedication, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ActiveMedications(ctx, patientID, limit)
}

func (s *Service) SearchMedications(ctx context.Context, query string, limit, offset int) ([]*Medication, int, error) {
	return s.repo.SearchMedications(ctx, strings.TrimSpace(query), limit, offset)
}
