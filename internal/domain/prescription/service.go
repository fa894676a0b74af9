package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service stamps sync metadata and enforces the workflow state machine on
// the update path.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.VisitID == uuid.Nil {
		return fmt.Errorf("visit reference is required")
	}
	if p.DrugID == uuid.Nil {
		return fmt.Errorf("drug reference is required")
	}
	if p.FulfilledByPharmacy && !p.SentToPharmacy {
		return fmt.Errorf("cannot be fulfilled before being sent to pharmacy")
	}
	p.IsDeleted = false
	p.LastModified = s.now().UTC()
	return s.repo.Create(ctx, p)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

// Update replaces the record after checking that the workflow only moves
// forward: a later-stage flag needs every earlier flag set, and a set flag
// cannot be cleared.
func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if p.DrugID == uuid.Nil {
		return fmt.Errorf("drug reference is required")
	}
	stored, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := checkTransition(stored, p); err != nil {
		return err
	}
	p.VisitID = stored.VisitID
	p.LastModified = s.now().UTC()
	return s.repo.Update(ctx, p)
}

func checkTransition(stored, next *Prescription) error {
	if next.FulfilledByPharmacy && !next.SentToPharmacy {
		return fmt.Errorf("cannot be fulfilled before being sent to pharmacy")
	}
	if stored.SentToPharmacy && !next.SentToPharmacy {
		return fmt.Errorf("sent to pharmacy cannot be cleared")
	}
	if stored.FulfilledByPharmacy && !next.FulfilledByPharmacy {
		return fmt.Errorf("fulfilled by pharmacy cannot be cleared")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, s.now().UTC())
}
