package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// =========== Drug Repository ===========

type drugRepoPG struct{ pool *pgxpool.Pool }

func NewDrugRepoPG(pool *pgxpool.Pool) DrugRepository {
	return &drugRepoPG{pool: pool}
}

const drugCols = `id, name, created_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	if err := row.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

func (r *drugRepoPG) Create(ctx context.Context, d *Drug) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := nameTakenPG(ctx, r.pool, "drugs", d.Name, d.ID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO drugs (id, name) VALUES ($1, $2)`,
		d.ID, d.Name)
	return db.MapError(err)
}

func (r *drugRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return scanDrug(r.pool.QueryRow(ctx, `SELECT `+drugCols+` FROM drugs WHERE id = $1`, id))
}

func (r *drugRepoPG) List(ctx context.Context) ([]*Drug, error) {
	return r.queryDrugs(ctx, `SELECT `+drugCols+` FROM drugs ORDER BY name ASC`)
}

func (r *drugRepoPG) Search(ctx context.Context, query string) ([]*Drug, error) {
	return r.queryDrugs(ctx,
		`SELECT `+drugCols+` FROM drugs WHERE name ILIKE $1 ORDER BY name ASC`,
		"%"+query+"%")
}

func (r *drugRepoPG) queryDrugs(ctx context.Context, sql string, args ...any) ([]*Drug, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, db.MapError(rows.Err())
}

func (r *drugRepoPG) Update(ctx context.Context, d *Drug) error {
	if err := nameTakenPG(ctx, r.pool, "drugs", d.Name, d.ID); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE drugs SET name = $2 WHERE id = $1`, d.ID, d.Name)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *drugRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM drugs WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *drugRepoPG) MostPrescribed(ctx context.Context, limit int) ([]*Usage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.name, COUNT(p.id) AS uses
		FROM drugs d
		JOIN prescriptions p ON p.drug_id = d.id AND p.is_deleted = 0
		GROUP BY d.id, d.name
		ORDER BY uses DESC, d.name ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	return scanUsage(rows)
}

// =========== LabTest Repository ===========

type labTestRepoPG struct{ pool *pgxpool.Pool }

func NewLabTestRepoPG(pool *pgxpool.Pool) LabTestRepository {
	return &labTestRepoPG{pool: pool}
}

func scanLabTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &t, nil
}

func (r *labTestRepoPG) Create(ctx context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if err := nameTakenPG(ctx, r.pool, "lab_tests", t.Name, t.ID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO lab_tests (id, name) VALUES ($1, $2)`,
		t.ID, t.Name)
	return db.MapError(err)
}

func (r *labTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return scanLabTest(r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM lab_tests WHERE id = $1`, id))
}

func (r *labTestRepoPG) List(ctx context.Context) ([]*LabTest, error) {
	return r.queryTests(ctx, `SELECT id, name, created_at FROM lab_tests ORDER BY name ASC`)
}

func (r *labTestRepoPG) Search(ctx context.Context, query string) ([]*LabTest, error) {
	return r.queryTests(ctx,
		`SELECT id, name, created_at FROM lab_tests WHERE name ILIKE $1 ORDER BY name ASC`,
		"%"+query+"%")
}

func (r *labTestRepoPG) queryTests(ctx context.Context, sql string, args ...any) ([]*LabTest, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanLabTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, db.MapError(rows.Err())
}

func (r *labTestRepoPG) Update(ctx context.Context, t *LabTest) error {
	if err := nameTakenPG(ctx, r.pool, "lab_tests", t.Name, t.ID); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE lab_tests SET name = $2 WHERE id = $1`, t.ID, t.Name)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *labTestRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lab_tests WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *labTestRepoPG) MostOrdered(ctx context.Context, limit int) ([]*Usage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, COUNT(o.id) AS uses
		FROM lab_tests t
		JOIN lab_orders o ON o.lab_test_id = t.id AND o.is_deleted = 0
		GROUP BY t.id, t.name
		ORDER BY uses DESC, t.name ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	return scanUsage(rows)
}

// nameTakenPG reports a case-insensitive name collision as a field-level
// constraint error, matching what the unique LOWER(name) index enforces.
func nameTakenPG(ctx context.Context, pool *pgxpool.Pool, table, name string, self uuid.UUID) error {
	var taken bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE LOWER(name) = LOWER($1) AND id <> $2)`,
		name, self).Scan(&taken)
	if err != nil {
		return db.MapError(err)
	}
	if taken {
		return db.NewConstraintError("name", "value already exists")
	}
	return nil
}

func scanUsage(rows pgx.Rows) ([]*Usage, error) {
	var items []*Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.ID, &u.Name, &u.Count); err != nil {
			return nil, db.MapError(err)
		}
		items = append(items, &u)
	}
	return items, db.MapError(rows.Err())
}
