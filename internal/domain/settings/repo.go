package settings

import "context"

// Repository reads and replaces the singleton settings row.
type Repository interface {
	Get(ctx context.Context) (*DoctorSettings, error)
	Update(ctx context.Context, s *DoctorSettings) error
}
