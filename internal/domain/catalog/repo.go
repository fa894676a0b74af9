package catalog

import (
	"context"

	"github.com/google/uuid"
)

type DrugRepository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	List(ctx context.Context) ([]*Drug, error)
	Search(ctx context.Context, query string) ([]*Drug, error)
	Update(ctx context.Context, d *Drug) error
	Delete(ctx context.Context, id uuid.UUID) error
	MostPrescribed(ctx context.Context, limit int) ([]*Usage, error)
}

type LabTestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	List(ctx context.Context) ([]*LabTest, error)
	Search(ctx context.Context, query string) ([]*LabTest, error)
	Update(ctx context.Context, t *LabTest) error
	Delete(ctx context.Context, id uuid.UUID) error
	MostOrdered(ctx context.Context, limit int) ([]*Usage, error)
}
