package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists visits. Create assigns the next sequential visit
// number for the patient. ListByPatient returns visits date-descending with
// id as descending tie-break, children unattached; the service layer attaches
// them via the child repositories' batch reads.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int, error)
}
