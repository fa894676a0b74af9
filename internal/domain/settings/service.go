package settings

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context) (*DoctorSettings, error) {
	return s.repo.Get(ctx)
}

// Update replaces the profile fields of the existing singleton row; the row
// identity never changes.
func (s *Service) Update(ctx context.Context, in *DoctorSettings) (*DoctorSettings, error) {
	in.DoctorName = strings.TrimSpace(in.DoctorName)
	if in.DoctorName == "" {
		return nil, fmt.Errorf("doctor name is required")
	}
	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.DoctorName = in.DoctorName
	next.Specialty = in.Specialty
	next.ClinicName = in.ClinicName
	next.Phone = in.Phone
	next.Address = in.Address
	next.PhotoURL = in.PhotoURL
	next.LastModified = s.now().UTC()
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
