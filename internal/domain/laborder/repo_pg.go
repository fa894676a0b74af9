package laborder

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

const cols = `o.id, o.visit_id, o.lab_test_id, t.name, o.note, o.sent_to_lab,
	o.completed_by_lab, o.lab_notes, o.result_file_url, o.is_deleted,
	o.last_modified`

func scanOne(row pgx.Row) (*LabOrder, error) {
	var (
		o       LabOrder
		sent    int16
		done    int16
		deleted int16
	)
	err := row.Scan(&o.ID, &o.VisitID, &o.LabTestID, &o.LabTestName, &o.Note,
		&sent, &done, &o.LabNotes, &o.ResultFileURL, &deleted, &o.LastModified)
	if err != nil {
		return nil, db.MapError(err)
	}
	o.SentToLab = db.DecodeBool(sent)
	o.CompletedByLab = db.DecodeBool(done)
	o.IsDeleted = db.DecodeBool(deleted)
	return &o, nil
}

// Create inserts under an EXISTS guard so tombstoned visits, which still
// satisfy the foreign key, cannot gain children.
func (r *repoPG) Create(ctx context.Context, o *LabOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO lab_orders (id, visit_id, lab_test_id, note, sent_to_lab,
			completed_by_lab, lab_notes, result_file_url, is_deleted, last_modified)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE EXISTS (SELECT 1 FROM visits WHERE id = $2 AND is_deleted = 0)`,
		o.ID, o.VisitID, o.LabTestID, o.Note, db.EncodeBool(o.SentToLab),
		db.EncodeBool(o.CompletedByLab), o.LabNotes, o.ResultFileURL,
		db.EncodeBool(o.IsDeleted), o.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.NewConstraintError("visit_id", "referenced row does not exist")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return scanOne(r.pool.QueryRow(ctx, `
		SELECT `+cols+` FROM lab_orders o
		JOIN lab_tests t ON t.id = o.lab_test_id
		WHERE o.id = $1 AND o.is_deleted = 0`, id))
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*LabOrder, error) {
	return r.query(ctx, `
		SELECT `+cols+` FROM lab_orders o
		JOIN lab_tests t ON t.id = o.lab_test_id
		WHERE o.visit_id = $1 AND o.is_deleted = 0
		ORDER BY o.last_modified ASC`, visitID)
}

func (r *repoPG) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*LabOrder, error) {
	out := make(map[uuid.UUID][]*LabOrder, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	items, err := r.query(ctx, `
		SELECT `+cols+` FROM lab_orders o
		JOIN lab_tests t ON t.id = o.lab_test_id
		WHERE o.visit_id = ANY($1) AND o.is_deleted = 0
		ORDER BY o.last_modified ASC`, visitIDs)
	if err != nil {
		return nil, err
	}
	for _, o := range items {
		out[o.VisitID] = append(out[o.VisitID], o)
	}
	return out, nil
}

func (r *repoPG) query(ctx context.Context, sql string, args ...any) ([]*LabOrder, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*LabOrder
	for rows.Next() {
		o, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, db.MapError(rows.Err())
}

func (r *repoPG) Update(ctx context.Context, o *LabOrder) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_orders SET lab_test_id = $2, note = $3, sent_to_lab = $4,
			completed_by_lab = $5, lab_notes = $6, result_file_url = $7,
			last_modified = $8
		WHERE id = $1 AND is_deleted = 0 AND last_modified <= $8`,
		o.ID, o.LabTestID, o.Note, db.EncodeBool(o.SentToLab),
		db.EncodeBool(o.CompletedByLab), o.LabNotes, o.ResultFileURL,
		o.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, o.ID)
	}
	return nil
}

func (r *repoPG) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var deleted int16
	err := r.pool.QueryRow(ctx,
		`SELECT is_deleted FROM lab_orders WHERE id = $1`, id).Scan(&deleted)
	if err != nil {
		return db.MapError(err)
	}
	if db.DecodeBool(deleted) {
		return db.ErrNotFound
	}
	return db.ErrStaleWrite
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_orders SET is_deleted = 1, last_modified = $2
		WHERE id = $1 AND is_deleted = 0`, id, at)
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
		`SELECT COUNT(*) FROM lab_orders WHERE is_deleted = 0`).Scan(&n)
	return n, db.MapError(err)
}
