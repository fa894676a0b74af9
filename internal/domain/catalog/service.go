package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Services bundles the two catalog services for wiring.
type Services struct {
	Drugs    *DrugService
	LabTests *LabTestService
}

func NewServices(drugs DrugRepository, tests LabTestRepository) *Services {
	return &Services{
		Drugs:    &DrugService{repo: drugs},
		LabTests: &LabTestService{repo: tests},
	}
}

type DrugService struct {
	repo DrugRepository
}

func NewDrugService(repo DrugRepository) *DrugService {
	return &DrugService{repo: repo}
}

func (s *DrugService) Create(ctx context.Context, d *Drug) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("drug name is required")
	}
	return s.repo.Create(ctx, d)
}

func (s *DrugService) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DrugService) List(ctx context.Context, query string) ([]*Drug, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

func (s *DrugService) Update(ctx context.Context, d *Drug) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("drug name is required")
	}
	return s.repo.Update(ctx, d)
}

func (s *DrugService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *DrugService) MostPrescribed(ctx context.Context, limit int) ([]*Usage, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.MostPrescribed(ctx, limit)
}

type LabTestService struct {
	repo LabTestRepository
}

func NewLabTestService(repo LabTestRepository) *LabTestService {
	return &LabTestService{repo: repo}
}

func (s *LabTestService) Create(ctx context.Context, t *LabTest) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("lab test name is required")
	}
	return s.repo.Create(ctx, t)
}

func (s *LabTestService) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *LabTestService) List(ctx context.Context, query string) ([]*LabTest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

func (s *LabTestService) Update(ctx context.Context, t *LabTest) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("lab test name is required")
	}
	return s.repo.Update(ctx, t)
}

func (s *LabTestService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *LabTestService) MostOrdered(ctx context.Context, limit int) ([]*Usage, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.MostOrdered(ctx, limit)
}
