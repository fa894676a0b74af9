package visit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, patient_id, doctor_id, visit_date, visit_number, notes,
	is_deleted, last_modified`

func scanVisit(row pgx.Row) (*Visit, error) {
	var (
		v       Visit
		deleted int16
	)
	err := row.Scan(&v.ID, &v.PatientID, &v.DoctorID, &v.VisitDate,
		&v.VisitNumber, &v.Notes, &deleted, &v.LastModified)
	if err != nil {
		return nil, db.MapError(err)
	}
	v.IsDeleted = db.DecodeBool(deleted)
	return &v, nil
}

// Create inserts the visit with the next sequential number for the patient.
// The subquery and insert run in one statement so two concurrent creates
// cannot both read the same maximum. The EXISTS guard keeps visits off
// tombstoned patients, which the foreign key alone would admit.
func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, patient_id, doctor_id, visit_date, visit_number,
			notes, is_deleted, last_modified)
		SELECT $1, $2, $3, $4,
			(SELECT COALESCE(MAX(visit_number), 0) + 1 FROM visits WHERE patient_id = $2),
			$5, $6, $7
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $2 AND is_deleted = 0)
		RETURNING visit_number`,
		v.ID, v.PatientID, v.DoctorID, v.VisitDate, v.Notes,
		db.EncodeBool(v.IsDeleted), v.LastModified).Scan(&v.VisitNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.NewConstraintError("patient_id", "referenced row does not exist")
	}
	return db.MapError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx,
		`SELECT `+cols+` FROM visits WHERE id = $1 AND is_deleted = 0`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM visits
		WHERE patient_id = $1 AND is_deleted = 0
		ORDER BY visit_date DESC, id DESC`, patientID)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, db.MapError(rows.Err())
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET visit_date = $2, notes = $3, last_modified = $4
		WHERE id = $1 AND is_deleted = 0 AND last_modified <= $4`,
		v.ID, v.VisitDate, v.Notes, v.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, v.ID)
	}
	return nil
}

func (r *repoPG) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var deleted int16
	err := r.pool.QueryRow(ctx,
		`SELECT is_deleted FROM visits WHERE id = $1`, id).Scan(&deleted)
	if err != nil {
		return db.MapError(err)
	}
	if db.DecodeBool(deleted) {
		return db.ErrNotFound
	}
	return db.ErrStaleWrite
}

// Delete tombstones the visit and its prescriptions and lab orders in one
// transaction.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.MapError(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE visits SET is_deleted = 1, last_modified = $2
		WHERE id = $1 AND is_deleted = 0`, id, at)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		UPDATE prescriptions SET is_deleted = 1, last_modified = $2
		WHERE visit_id = $1 AND is_deleted = 0`, id, at); err != nil {
		return db.MapError(err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE lab_orders SET is_deleted = 1, last_modified = $2
		WHERE visit_id = $1 AND is_deleted = 0`, id, at); err != nil {
		return db.MapError(err)
	}
	return db.MapError(tx.Commit(ctx))
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE is_deleted = 0`).Scan(&n)
	return n, db.MapError(err)
}
