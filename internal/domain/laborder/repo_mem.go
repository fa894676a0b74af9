package laborder

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

func (r *repoMem) Create(_ context.Context, o *LabOrder) error {
	visitRec, ok := r.store.Get(memstore.TableVisits, o.VisitID)
	if !ok || boolVal(visitRec["is_deleted"]) {
		return db.NewConstraintError("visit_id", "referenced row does not exist")
	}
	testRec, ok := r.store.Get(memstore.TableLabTests, o.LabTestID)
	if !ok {
		return db.NewConstraintError("lab_test_id", "referenced row does not exist")
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.LabTestName = str(testRec["name"])
	r.store.Put(memstore.TableLabOrders, o.ID, o.ToRecord())
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*LabOrder, error) {
	rec, ok := r.store.Get(memstore.TableLabOrders, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	o := FromRecord(rec)
	if o.IsDeleted {
		return nil, db.ErrNotFound
	}
	return o, nil
}

func (r *repoMem) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*LabOrder, error) {
	var items []*LabOrder
	for _, rec := range r.store.List(memstore.TableLabOrders) {
		o := FromRecord(rec)
		if o.IsDeleted || o.VisitID != visitID {
			continue
		}
		items = append(items, o)
	}
	sortByModified(items)
	return items, nil
}

func (r *repoMem) ListByVisitIDs(_ context.Context, visitIDs []uuid.UUID) (map[uuid.UUID][]*LabOrder, error) {
	wanted := make(map[uuid.UUID]bool, len(visitIDs))
	for _, id := range visitIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]*LabOrder, len(visitIDs))
	for _, rec := range r.store.List(memstore.TableLabOrders) {
		o := FromRecord(rec)
		if o.IsDeleted || !wanted[o.VisitID] {
			continue
		}
		out[o.VisitID] = append(out[o.VisitID], o)
	}
	for _, items := range out {
		sortByModified(items)
	}
	return out, nil
}

func (r *repoMem) Update(_ context.Context, o *LabOrder) error {
	rec, ok := r.store.Get(memstore.TableLabOrders, o.ID)
	if !ok {
		return db.ErrNotFound
	}
	stored := FromRecord(rec)
	if stored.IsDeleted {
		return db.ErrNotFound
	}
	if stored.LastModified.After(o.LastModified) {
		return db.ErrStaleWrite
	}
	testRec, ok := r.store.Get(memstore.TableLabTests, o.LabTestID)
	if !ok {
		return db.NewConstraintError("lab_test_id", "referenced row does not exist")
	}
	o.LabTestName = str(testRec["name"])
	r.store.Put(memstore.TableLabOrders, o.ID, o.ToRecord())
	return nil
}

func (r *repoMem) Delete(_ context.Context, id uuid.UUID, at time.Time) error {
	rec, ok := r.store.Get(memstore.TableLabOrders, id)
	if !ok || boolVal(rec["is_deleted"]) {
		return db.ErrNotFound
	}
	r.store.Update(memstore.TableLabOrders, id, func(m memstore.Record) memstore.Record {
		m["is_deleted"] = db.EncodeBool(true)
		m["last_modified"] = db.EncodeTime(at)
		return m
	})
	return nil
}

func (r *repoMem) Count(_ context.Context) (int, error) {
	n := 0
	for _, rec := range r.store.List(memstore.TableLabOrders) {
		if !boolVal(rec["is_deleted"]) {
			n++
		}
	}
	return n, nil
}

func sortByModified(items []*LabOrder) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastModified.Before(items[j].LastModified)
	})
}
