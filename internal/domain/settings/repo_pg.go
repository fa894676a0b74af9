package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Get(ctx context.Context) (*DoctorSettings, error) {
	var s DoctorSettings
	err := r.pool.QueryRow(ctx, `
		SELECT id, doctor_name, specialty, clinic_name, phone, address,
			photo_url, last_modified
		FROM doctor_settings LIMIT 1`).Scan(
		&s.ID, &s.DoctorName, &s.Specialty, &s.ClinicName, &s.Phone,
		&s.Address, &s.PhotoURL, &s.LastModified)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &s, nil
}

func (r *repoPG) Update(ctx context.Context, s *DoctorSettings) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor_settings SET doctor_name = $2, specialty = $3,
			clinic_name = $4, phone = $5, address = $6, photo_url = $7,
			last_modified = $8
		WHERE id = $1`,
		s.ID, s.DoctorName, s.Specialty, s.ClinicName, s.Phone, s.Address,
		s.PhotoURL, s.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
