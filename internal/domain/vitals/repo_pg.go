package vitals

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

type batchRepoPG struct{ pool *pgxpool.Pool }

func NewBatchRepoPG(pool *pgxpool.Pool) BatchRepository {
	return &batchRepoPG{pool: pool}
}

func (r *batchRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const batchCols = `id, patient_id, file_name, file_size_bytes, total_rows,
	success_count, failed_count, status, created_at, updated_at`

func (r *batchRepoPG) scanBatch(row pgx.Row) (*UploadBatch, error) {
	var b UploadBatch
	err := row.Scan(&b.ID, &b.PatientID, &b.FileName, &b.FileSizeBytes, &b.TotalRows,
		&b.SuccessCount, &b.FailedCount, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *batchRepoPG) Create(ctx context.Context, b *UploadBatch) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = BatchPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO upload_batch (id, patient_id, file_name, file_size_bytes, status)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.PatientID, b.FileName, b.FileSizeBytes, b.Status)
	return err
}

// Finalize writes the terminal counts and status. The status guard makes the
// transition single-shot: a batch that already left pending is not touched.
func (r *batchRepoPG) Finalize(ctx context.Context, id uuid.UUID, totalRows, successCount, failedCount int, status BatchStatus) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE upload_batch
		SET total_rows=$2, success_count=$3, failed_count=$4, status=$5, updated_at=NOW()
		WHERE id = $1 AND status = $6`,
		id, totalRows, successCount, failedCount, status, BatchPending)
	return err
}

func (r *batchRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*UploadBatch, error) {
	b, err := r.scanBatch(r.conn(ctx).QueryRow(ctx,
		`SELECT `+batchCols+` FROM upload_batch WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *batchRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*UploadBatch, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM upload_batch WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+batchCols+` FROM upload_batch
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	batches := []*UploadBatch{}
	for rows.Next() {
		b, err := r.scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, b)
	}
	return batches, total, rows.Err()
}
