package patient

import (
	"context"
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

const patientCols = `id, name, age, gender, phone, address, photo_url,
	weight_kg, height_cm, chronic_diseases, family_history, notes,
	first_visit_date, doctor_id, is_pinned, is_deleted, last_modified`

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p        Patient
		diseases string
		pinned   int16
		deleted  int16
	)
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Address,
		&p.PhotoURL, &p.WeightKG, &p.HeightCM, &diseases, &p.FamilyHistory,
		&p.Notes, &p.FirstVisitDate, &p.DoctorID, &pinned, &deleted,
		&p.LastModified)
	if err != nil {
		return nil, db.MapError(err)
	}
	p.ChronicDiseases = db.DecodeStringList(diseases)
	p.IsPinned = db.DecodeBool(pinned)
	p.IsDeleted = db.DecodeBool(deleted)
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, age, gender, phone, address, photo_url,
			weight_kg, height_cm, chronic_diseases, family_history, notes,
			first_visit_date, doctor_id, is_pinned, is_deleted, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Address, p.PhotoURL,
		p.WeightKG, p.HeightCM, db.EncodeStringList(p.ChronicDiseases),
		p.FamilyHistory, p.Notes, p.FirstVisitDate, p.DoctorID,
		db.EncodeBool(p.IsPinned), db.EncodeBool(p.IsDeleted), p.LastModified)
	return db.MapError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND is_deleted = 0`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	return r.query(ctx, `
		SELECT `+patientCols+` FROM patients
		WHERE is_deleted = 0
		ORDER BY is_pinned DESC, name ASC`)
}

func (r *repoPG) Search(ctx context.Context, query string) ([]*Patient, error) {
	return r.query(ctx, `
		SELECT `+patientCols+` FROM patients
		WHERE is_deleted = 0 AND (name ILIKE $1 OR phone ILIKE $1)
		ORDER BY is_pinned DESC, name ASC`,
		"%"+query+"%")
}

func (r *repoPG) query(ctx context.Context, sql string, args ...any) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, db.MapError(rows.Err())
}

// Update replaces the full record. The last_modified guard keeps the
// timestamp monotonic; a write carrying an older timestamp than the stored
// row is a stale write, not an overwrite.
func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET name = $2, age = $3, gender = $4, phone = $5,
			address = $6, photo_url = $7, weight_kg = $8, height_cm = $9,
			chronic_diseases = $10, family_history = $11, notes = $12,
			first_visit_date = $13, doctor_id = $14, is_pinned = $15,
			last_modified = $16
		WHERE id = $1 AND is_deleted = 0 AND last_modified <= $16`,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Address, p.PhotoURL,
		p.WeightKG, p.HeightCM, db.EncodeStringList(p.ChronicDiseases),
		p.FamilyHistory, p.Notes, p.FirstVisitDate, p.DoctorID,
		db.EncodeBool(p.IsPinned), p.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, p.ID)
	}
	return nil
}

func (r *repoPG) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var deleted int16
	err := r.pool.QueryRow(ctx,
		`SELECT is_deleted FROM patients WHERE id = $1`, id).Scan(&deleted)
	if err != nil {
		return db.MapError(err)
	}
	if db.DecodeBool(deleted) {
		return db.ErrNotFound
	}
	return db.ErrStaleWrite
}

// Delete tombstones the patient and cascades the tombstone to every visit,
// prescription, and lab order it owns, all under one transaction.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.MapError(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE patients SET is_deleted = 1, last_modified = $2
		WHERE id = $1 AND is_deleted = 0`, id, at)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		UPDATE visits SET is_deleted = 1, last_modified = $2
		WHERE patient_id = $1 AND is_deleted = 0`, id, at); err != nil {
		return db.MapError(err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE prescriptions SET is_deleted = 1, last_modified = $2
		WHERE is_deleted = 0 AND visit_id IN (SELECT id FROM visits WHERE patient_id = $1)`,
		id, at); err != nil {
		return db.MapError(err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE lab_orders SET is_deleted = 1, last_modified = $2
		WHERE is_deleted = 0 AND visit_id IN (SELECT id FROM visits WHERE patient_id = $1)`,
		id, at); err != nil {
		return db.MapError(err)
	}
	return db.MapError(tx.Commit(ctx))
}

// Purge physically removes the row; the schema's ON DELETE CASCADE takes the
// children with it. Maintenance only, after tombstones have propagated.
func (r *repoPG) Purge(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE is_deleted = 0`).Scan(&n)
	return n, db.MapError(err)
}

func (r *repoPG) CountByGender(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gender, COUNT(*) FROM patients
		WHERE is_deleted = 0 GROUP BY gender`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var gender string
		var n int
		if err := rows.Scan(&gender, &n); err != nil {
			return nil, db.MapError(err)
		}
		out[gender] = n
	}
	return out, db.MapError(rows.Err())
}
