package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists prescriptions. ListByVisitIDs is the batch read used
// by visit aggregation so a page of visits costs one query, not one per
// visit.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int, error)
}
