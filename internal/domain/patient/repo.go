package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists patients. Reads exclude tombstoned rows; Delete writes
// a tombstone and cascades it to the patient's visits, prescriptions, and
// lab orders in one unit of work. Purge is the physical maintenance path.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, query string) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID, at time.Time) error
	Purge(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByGender(ctx context.Context) (map[string]int, error)
}
