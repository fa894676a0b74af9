package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/laborder"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
)

// Service coordinates visits with their child collections. The aggregate
// read fetches children for the whole visit page in two batch queries and
// assembles them in memory, one round trip per child table regardless of
// how many visits the patient has.
type Service struct {
	repo          Repository
	prescriptions prescription.Repository
	labOrders     laborder.Repository
	now           func() time.Time
}

func NewService(repo Repository, rx prescription.Repository, lab laborder.Repository) *Service {
	return &Service{repo: repo, prescriptions: rx, labOrders: lab, now: time.Now}
}

func (s *Service) Create(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient reference is required")
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = s.now().UTC()
	}
	v.IsDeleted = false
	v.LastModified = s.now().UTC()
	return s.repo.Create(ctx, v)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachChildren(ctx, []*Visit{v}); err != nil {
		return nil, err
	}
	return v, nil
}

// ListByPatient returns the patient's visits most recent first, each with
// its non-deleted prescriptions and lab orders attached.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	visits, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.attachChildren(ctx, visits); err != nil {
		return nil, err
	}
	return visits, nil
}

func (s *Service) attachChildren(ctx context.Context, visits []*Visit) error {
	if len(visits) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(visits))
	for i, v := range visits {
		ids[i] = v.ID
	}
	rxByVisit, err := s.prescriptions.ListByVisitIDs(ctx, ids)
	if err != nil {
		return err
	}
	ordersByVisit, err := s.labOrders.ListByVisitIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, v := range visits {
		v.Prescriptions = rxByVisit[v.ID]
		v.LabOrders = ordersByVisit[v.ID]
	}
	return nil
}

func (s *Service) Update(ctx context.Context, v *Visit) error {
	v.LastModified = s.now().UTC()
	return s.repo.Update(ctx, v)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, s.now().UTC())
}
