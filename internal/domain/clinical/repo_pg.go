package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepulse/carepulse/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) CreateRecord(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_record (id, patient_id, doctor_name, visit_date, diagnosis, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.PatientID, rec.DoctorName, rec.VisitDate, rec.Diagnosis, rec.Notes)
	return err
}

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, record_id, medication_id, dosage, frequency, duration)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.RecordID, p.MedicationID, p.Dosage, p.Frequency, p.Duration)
	return err
}

func (r *repoPG) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	var rec Record
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, doctor_name, visit_date, diagnosis, notes, created_at
		FROM clinical_record WHERE id = $1`, id).
		Scan(&rec.ID, &rec.PatientID, &rec.DoctorName, &rec.VisitDate, &rec.Diagnosis, &rec.Notes, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachPrescriptions(ctx, []*Record{&rec}); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History returns a patient's records newest visit first, each with its
// prescriptions attached.
func (r *repoPG) History(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, doctor_name, visit_date, diagnosis, notes, created_at
		FROM clinical_record
		WHERE patient_id = $1
		ORDER BY visit_date DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.DoctorName, &rec.VisitDate,
			&rec.Diagnosis, &rec.Notes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachPrescriptions(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repoPG) attachPrescriptions(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Record, len(records))
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		rec.Prescriptions = []*Prescription{}
		byID[rec.ID] = rec
		ids = append(ids, rec.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.record_id, p.medication_id, m.drug_name, p.dosage, p.frequency, p.duration, p.created_at
		FROM prescription p
		JOIN medication m ON m.id = p.medication_id
		WHERE p.record_id = ANY($1)
		ORDER BY p.created_at`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.RecordID, &p.MedicationID, &p.DrugName,
			&p.Dosage, &p.Frequency, &p.Duration, &p.CreatedAt); err != nil {
			return err
		}
		if rec, ok := byID[p.RecordID]; ok {
			rec.Prescriptions = append(rec.Prescriptions, &p)
		}
	}
	return rows.Err()
}

func (r *repoPG) ActiveMedications(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveMedication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.drug_name, p.dosage, p.frequency, p.duration, cr.diagnosis, cr.visit_date
		FROM prescription p
		JOIN clinical_record cr ON cr.id = p.record_id
		JOIN medication m ON m.id = p.medication_id
		WHERE cr.patient_id = $1
		ORDER BY cr.visit_date DESC, p.created_at
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := []*ActiveMedication{}
	for rows.Next() {
		var am ActiveMedication
		if err := rows.Scan(&am.DrugName, &am.Dosage, &am.Frequency, &am.Duration,
			&am.Diagnosis, &am.PrescribedOn); err != nil {
			return nil, err
		}
		meds = append(meds, &am)
	}
	return meds, rows.Err()
}

// FindOrCreateMedication deduplicates the catalog by drug name. The upsert
// keeps concurrent inserts of the same drug from racing.
func (r *repoPG) FindOrCreateMedication(ctx context.Context, drugName string) (*Medication, error) {
	var m Medication
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication (id, drug_name)
		VALUES ($1, $2)
		ON CONFLICT (drug_name) DO UPDATE SET drug_name = EXCLUDED.drug_name
		RETURNING id, drug_name, created_at`,
		uuid.New(), drugName).
		Scan(&m.ID, &m.DrugName, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) SearchMedications(ctx context.Context, query string, limit, offset int) ([]*Medication, int, error) {
	pattern := "%" + query + "%"
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication WHERE drug_name ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, drug_name, created_at FROM medication
		WHERE drug_name ILIKE $1
		ORDER BY drug_name
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	meds := []*Medication{}
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.DrugName, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		meds = append(meds, &m)
	}
	return meds, total, rows.Err()
}
