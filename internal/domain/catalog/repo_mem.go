package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// In-memory repositories over the shared store. Used as the fallback when
// the relational store cannot be opened, and as fixtures in service tests.

type drugRepoMem struct{ store *memstore.Store }

func NewDrugRepoMem(store *memstore.Store) DrugRepository {
	return &drugRepoMem{store: store}
}

func (r *drugRepoMem) Create(_ context.Context, d *Drug) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if nameTaken(r.store, memstore.TableDrugs, d.Name, d.ID) {
		return db.NewConstraintError("name", "value already exists")
	}
	r.store.Put(memstore.TableDrugs, d.ID, d.ToRecord())
	return nil
}

func (r *drugRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Drug, error) {
	rec, ok := r.store.Get(memstore.TableDrugs, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	return drugFromRecord(rec), nil
}

func (r *drugRepoMem) List(ctx context.Context) ([]*Drug, error) {
	return r.Search(ctx, "")
}

func (r *drugRepoMem) Search(_ context.Context, query string) ([]*Drug, error) {
	q := strings.ToLower(query)
	var items []*Drug
	for _, rec := range r.store.List(memstore.TableDrugs) {
		d := drugFromRecord(rec)
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *drugRepoMem) Update(_ context.Context, d *Drug) error {
	if nameTaken(r.store, memstore.TableDrugs, d.Name, d.ID) {
		return db.NewConstraintError("name", "value already exists")
	}
	if ok := r.store.Update(memstore.TableDrugs, d.ID, func(rec memstore.Record) memstore.Record {
		rec["name"] = d.Name
		return rec
	}); !ok {
		return db.ErrNotFound
	}
	return nil
}

func (r *drugRepoMem) Delete(_ context.Context, id uuid.UUID) error {
	if referenced(r.store, memstore.TablePrescriptions, "drug_id", id) {
		return db.NewConstraintError("drug_id", "row is still referenced")
	}
	if _, ok := r.store.Get(memstore.TableDrugs, id); !ok {
		return db.ErrNotFound
	}
	r.store.Delete(memstore.TableDrugs, id)
	return nil
}

func (r *drugRepoMem) MostPrescribed(_ context.Context, limit int) ([]*Usage, error) {
	return usageRanking(r.store, memstore.TableDrugs, memstore.TablePrescriptions, "drug_id", limit), nil
}

type labTestRepoMem struct{ store *memstore.Store }

func NewLabTestRepoMem(store *memstore.Store) LabTestRepository {
	return &labTestRepoMem{store: store}
}

func (r *labTestRepoMem) Create(_ context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if nameTaken(r.store, memstore.TableLabTests, t.Name, t.ID) {
		return db.NewConstraintError("name", "value already exists")
	}
	r.store.Put(memstore.TableLabTests, t.ID, t.ToRecord())
	return nil
}

func (r *labTestRepoMem) GetByID(_ context.Context, id uuid.UUID) (*LabTest, error) {
	rec, ok := r.store.Get(memstore.TableLabTests, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	return labTestFromRecord(rec), nil
}

func (r *labTestRepoMem) List(ctx context.Context) ([]*LabTest, error) {
	return r.Search(ctx, "")
}

func (r *labTestRepoMem) Search(_ context.Context, query string) ([]*LabTest, error) {
	q := strings.ToLower(query)
	var items []*LabTest
	for _, rec := range r.store.List(memstore.TableLabTests) {
		t := labTestFromRecord(rec)
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *labTestRepoMem) Update(_ context.Context, t *LabTest) error {
	if nameTaken(r.store, memstore.TableLabTests, t.Name, t.ID) {
		return db.NewConstraintError("name", "value already exists")
	}
	if ok := r.store.Update(memstore.TableLabTests, t.ID, func(rec memstore.Record) memstore.Record {
		rec["name"] = t.Name
		return rec
	}); !ok {
		return db.ErrNotFound
	}
	return nil
}

func (r *labTestRepoMem) Delete(_ context.Context, id uuid.UUID) error {
	if referenced(r.store, memstore.TableLabOrders, "lab_test_id", id) {
		return db.NewConstraintError("lab_test_id", "row is still referenced")
	}
	if _, ok := r.store.Get(memstore.TableLabTests, id); !ok {
		return db.ErrNotFound
	}
	r.store.Delete(memstore.TableLabTests, id)
	return nil
}

func (r *labTestRepoMem) MostOrdered(_ context.Context, limit int) ([]*Usage, error) {
	return usageRanking(r.store, memstore.TableLabTests, memstore.TableLabOrders, "lab_test_id", limit), nil
}

func nameTaken(store *memstore.Store, table, name string, self uuid.UUID) bool {
	for _, rec := range store.List(table) {
		id, _ := uuid.Parse(str(rec["id"]))
		if id != self && strings.EqualFold(str(rec["name"]), name) {
			return true
		}
	}
	return false
}

func referenced(store *memstore.Store, table, fkField string, id uuid.UUID) bool {
	for _, rec := range store.List(table) {
		if str(rec[fkField]) == id.String() {
			return true
		}
	}
	return false
}

// usageRanking counts non-tombstoned referencing rows per catalog entry and
// returns the top N by count, ties broken by name.
func usageRanking(store *memstore.Store, catalogTable, refTable, fkField string, limit int) []*Usage {
	counts := make(map[string]int)
	for _, rec := range store.List(refTable) {
		if del, ok := rec["is_deleted"].(int16); ok && del != 0 {
			continue
		}
		counts[str(rec[fkField])]++
	}
	var items []*Usage
	for _, rec := range store.List(catalogTable) {
		idStr := str(rec["id"])
		n, ok := counts[idStr]
		if !ok {
			continue
		}
		id, _ := uuid.Parse(idStr)
		items = append(items, &Usage{ID: id, Name: str(rec["name"]), Count: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
