package prescription

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

const cols = `p.id, p.visit_id, p.drug_id, d.name, p.note, p.sent_to_pharmacy,
	p.fulfilled_by_pharmacy, p.pharmacy_notes, p.is_deleted, p.last_modified`

func scanOne(row pgx.Row) (*Prescription, error) {
	var (
		p       Prescription
		sent    int16
		done    int16
		deleted int16
	)
	err := row.Scan(&p.ID, &p.VisitID, &p.DrugID, &p.DrugName, &p.Note,
		&sent, &done, &p.PharmacyNotes, &deleted, &p.LastModified)
	if err != nil {
		return nil, db.MapError(err)
	}
	p.SentToPharmacy = db.DecodeBool(sent)
	p.FulfilledByPharmacy = db.DecodeBool(done)
	p.IsDeleted = db.DecodeBool(deleted)
	return &p, nil
}

// Create inserts under an EXISTS guard so tombstoned visits, which still
// satisfy the foreign key, cannot gain children.
func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO prescriptions (id, visit_id, drug_id, note,
			sent_to_pharmacy, fulfilled_by_pharmacy, pharmacy_notes,
			is_deleted, last_modified)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE EXISTS (SELECT 1 FROM visits WHERE id = $2 AND is_deleted = 0)`,
		p.ID, p.VisitID, p.DrugID, p.Note,
		db.EncodeBool(p.SentToPharmacy), db.EncodeBool(p.FulfilledByPharmacy),
		p.PharmacyNotes, db.EncodeBool(p.IsDeleted), p.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.NewConstraintError("visit_id", "referenced row does not exist")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanOne(r.pool.QueryRow(ctx, `
		SELECT `+cols+` FROM prescriptions p
		JOIN drugs d ON d.id = p.drug_id
		WHERE p.id = $1 AND p.is_deleted = 0`, id))
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	return r.query(ctx, `
		SELECT `+cols+` FROM prescriptions p
		JOIN drugs d ON d.id = p.drug_id
		WHERE p.visit_id = $1 AND p.is_deleted = 0
		ORDER BY p.last_modified ASC`, visitID)
}

// ListByVisitIDs fetches children for a whole visit set in one round trip and
// groups them by parent in memory.
func (r *repoPG) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*Prescription, error) {
	out := make(map[uuid.UUID][]*Prescription, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	items, err := r.query(ctx, `
		SELECT `+cols+` FROM prescriptions p
		JOIN drugs d ON d.id = p.drug_id
		WHERE p.visit_id = ANY($1) AND p.is_deleted = 0
		ORDER BY p.last_modified ASC`, visitIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.VisitID] = append(out[p.VisitID], p)
	}
	return out, nil
}

func (r *repoPG) query(ctx context.Context, sql string, args ...any) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, db.MapError(rows.Err())
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET drug_id = $2, note = $3, sent_to_pharmacy = $4,
			fulfilled_by_pharmacy = $5, pharmacy_notes = $6, last_modified = $7
		WHERE id = $1 AND is_deleted = 0 AND last_modified <= $7`,
		p.ID, p.DrugID, p.Note, db.EncodeBool(p.SentToPharmacy),
		db.EncodeBool(p.FulfilledByPharmacy), p.PharmacyNotes, p.LastModified)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, r.pool, "prescriptions", p.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET is_deleted = 1, last_modified = $2
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
		`SELECT COUNT(*) FROM prescriptions WHERE is_deleted = 0`).Scan(&n)
	return n, db.MapError(err)
}

func staleOrMissing(ctx context.Context, pool *pgxpool.Pool, table string, id uuid.UUID) error {
	var deleted int16
	err := pool.QueryRow(ctx,
		`SELECT is_deleted FROM `+table+` WHERE id = $1`, id).Scan(&deleted)
	if err != nil {
		return db.MapError(err)
	}
	if db.DecodeBool(deleted) {
		return db.ErrNotFound
	}
	return db.ErrStaleWrite
}
