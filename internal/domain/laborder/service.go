package laborder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, o *LabOrder) error {
	if o.VisitID == uuid.Nil {
		return fmt.Errorf("visit reference is required")
	}
	if o.LabTestID == uuid.Nil {
		return fmt.Errorf("lab test reference is required")
	}
	if o.CompletedByLab && !o.SentToLab {
		return fmt.Errorf("cannot be completed before being sent to lab")
	}
	o.IsDeleted = false
	o.LastModified = s.now().UTC()
	return s.repo.Create(ctx, o)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*LabOrder, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

func (s *Service) Update(ctx context.Context, o *LabOrder) error {
	if o.LabTestID == uuid.Nil {
		return fmt.Errorf("lab test reference is required")
	}
	stored, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if err := checkTransition(stored, o); err != nil {
		return err
	}
	o.VisitID = stored.VisitID
	o.LastModified = s.now().UTC()
	return s.repo.Update(ctx, o)
}

func checkTransition(stored, next *LabOrder) error {
	if next.CompletedByLab && !next.SentToLab {
		return fmt.Errorf("cannot be completed before being sent to lab")
	}
	if stored.SentToLab && !next.SentToLab {
		return fmt.Errorf("sent to lab cannot be cleared")
	}
	if stored.CompletedByLab && !next.CompletedByLab {
		return fmt.Errorf("completed by lab cannot be cleared")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, s.now().UTC())
}
