package prescription

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

type repoMem struct{ store *memstore.Store }

func NewRepoMem(store *memstore.Store) Repository {
	return &repoMem{store: store}
}

// rowExists reports whether a non-tombstoned row with the id exists.
func rowExists(store *memstore.Store, table string, id uuid.UUID) bool {
	rec, ok := store.Get(table, id)
	return ok && !boolVal(rec["is_deleted"])
}

func (r *repoMem) Create(_ context.Context, p *Prescription) error {
	if !rowExists(r.store, memstore.TableVisits, p.VisitID) {
		return db.NewConstraintError("visit_id", "referenced row does not exist")
	}
	drugRec, ok := r.store.Get(memstore.TableDrugs, p.DrugID)
	if !ok {
		return db.NewConstraintError("drug_id", "referenced row does not exist")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.DrugName = str(drugRec["name"])
	r.store.Put(memstore.TablePrescriptions, p.ID, p.ToRecord())
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	rec, ok := r.store.Get(memstore.TablePrescriptions, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	p := FromRecord(rec)
	if p.IsDeleted {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (r *repoMem) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	var items []*Prescription
	for _, rec := range r.store.List(memstore.TablePrescriptions) {
		p := FromRecord(rec)
		if p.IsDeleted || p.VisitID != visitID {
			continue
		}
		items = append(items, p)
	}
	sortByModified(items)
	return items, nil
}

func (r *repoMem) ListByVisitIDs(_ context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*Prescription, error) {
	wanted := make(map[uuid.UUID]bool, len(visitIDs))
	for _, id := range visitIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]*Prescription, len(visitIDs))
	for _, rec := range r.store.List(memstore.TablePrescriptions) {
		p := FromRecord(rec)
		if p.IsDeleted || !wanted[p.VisitID] {
			continue
		}
		out[p.VisitID] = append(out[p.VisitID], p)
	}
	for _, items := range out {
		sortByModified(items)
	}
	return out, nil
}

func (r *repoMem) Update(_ context.Context, p *Prescription) error {
	rec, ok := r.store.Get(memstore.TablePrescriptions, p.ID)
	if !ok {
		return db.ErrNotFound
	}
	stored := FromRecord(rec)
	if stored.IsDeleted {
		return db.ErrNotFound
	}
	if stored.LastModified.After(p.LastModified) {
		return db.ErrStaleWrite
	}
	if drugRec, ok := r.store.Get(memstore.TableDrugs, p.DrugID); ok {
		p.DrugName = str(drugRec["name"])
	} else {
		return db.NewConstraintError("drug_id", "referenced row does not exist")
	}
	r.store.Put(memstore.TablePrescriptions, p.ID, p.ToRecord())
	return nil
}

func (r *repoMem) Delete(_ context.Context, id uuid.UUID, at time.Time) error {
	rec, ok := r.store.Get(memstore.TablePrescriptions, id)
	if !ok || boolVal(rec["is_deleted"]) {
		return db.ErrNotFound
	}
	r.store.Update(memstore.TablePrescriptions, id, func(m memstore.Record) memstore.Record {
		m["is_deleted"] = db.EncodeBool(true)
		m["last_modified"] = db.EncodeTime(at)
		return m
	})
	return nil
}

func (r *repoMem) Count(_ context.Context) (int, error) {
	n := 0
	for _, rec := range r.store.List(memstore.TablePrescriptions) {
		if !boolVal(rec["is_deleted"]) {
			n++
		}
	}
	return n, nil
}

func sortByModified(items []*Prescription) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastModified.Before(items[j].LastModified)
	})
}
