package laborder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *LabOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*LabOrder, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*LabOrder, error)
	Update(ctx context.Context, o *LabOrder) error
	Delete(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int, error)
}
