package insight

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an insight id resolves to nothing.
var ErrNotFound = errors.New("insight not found")

// Repository is the append-only store for insights. There is no update or
// delete: an insight is immutable once saved.
type Repository interface {
	Save(ctx context.Context, ins *Insight) (string, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*Insight, error)
	FindByID(ctx context.Context, id string) (*Insight, error)
}
