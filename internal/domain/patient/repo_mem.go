package patient

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// repoMem backs the degraded mode and the service tests. It reaches sibling
// tables through the shared store so tombstone cascades behave exactly like
// the transactional SQL path.
type repoMem struct{ store *memstore.Store }

func NewRepoMem(store *memstore.Store) Repository {
	return &repoMem{store: store}
}

func (r *repoMem) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.store.Put(memstore.TablePatients, p.ID, p.ToRecord())
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	rec, ok := r.store.Get(memstore.TablePatients, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	p := FromRecord(rec)
	if p.IsDeleted {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (r *repoMem) List(ctx context.Context) ([]*Patient, error) {
	return r.Search(ctx, "")
}

func (r *repoMem) Search(_ context.Context, query string) ([]*Patient, error) {
	q := strings.ToLower(query)
	var items []*Patient
	for _, rec := range r.store.List(memstore.TablePatients) {
		p := FromRecord(rec)
		if p.IsDeleted {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Phone), q) {
			continue
		}
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsPinned != items[j].IsPinned {
			return items[i].IsPinned
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r *repoMem) Update(_ context.Context, p *Patient) error {
	rec, ok := r.store.Get(memstore.TablePatients, p.ID)
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
	r.store.Put(memstore.TablePatients, p.ID, p.ToRecord())
	return nil
}

func (r *repoMem) Delete(_ context.Context, id uuid.UUID, at time.Time) error {
	rec, ok := r.store.Get(memstore.TablePatients, id)
	if !ok || boolVal(rec["is_deleted"]) {
		return db.ErrNotFound
	}
	tombstone := func(m memstore.Record) memstore.Record {
		m["is_deleted"] = db.EncodeBool(true)
		m["last_modified"] = db.EncodeTime(at)
		return m
	}
	r.store.Update(memstore.TablePatients, id, tombstone)

	visitIDs := make(map[string]bool)
	for _, v := range r.store.List(memstore.TableVisits) {
		if str(v["patient_id"]) != id.String() || boolVal(v["is_deleted"]) {
			continue
		}
		visitIDs[str(v["id"])] = true
		vid, _ := uuid.Parse(str(v["id"]))
		r.store.Update(memstore.TableVisits, vid, tombstone)
	}
	for _, table := range []string{memstore.TablePrescriptions, memstore.TableLabOrders} {
		for _, c := range r.store.List(table) {
			if !visitIDs[str(c["visit_id"])] || boolVal(c["is_deleted"]) {
				continue
			}
			cid, _ := uuid.Parse(str(c["id"]))
			r.store.Update(table, cid, tombstone)
		}
	}
	return nil
}

func (r *repoMem) Purge(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.Get(memstore.TablePatients, id); !ok {
		return db.ErrNotFound
	}
	visitIDs := make(map[string]bool)
	for _, v := range r.store.List(memstore.TableVisits) {
		if str(v["patient_id"]) != id.String() {
			continue
		}
		visitIDs[str(v["id"])] = true
		vid, _ := uuid.Parse(str(v["id"]))
		r.store.Delete(memstore.TableVisits, vid)
	}
	for _, table := range []string{memstore.TablePrescriptions, memstore.TableLabOrders} {
		for _, c := range r.store.List(table) {
			if visitIDs[str(c["visit_id"])] {
				cid, _ := uuid.Parse(str(c["id"]))
				r.store.Delete(table, cid)
			}
		}
	}
	r.store.Delete(memstore.TablePatients, id)
	return nil
}

func (r *repoMem) Count(_ context.Context) (int, error) {
	n := 0
	for _, rec := range r.store.List(memstore.TablePatients) {
		if !boolVal(rec["is_deleted"]) {
			n++
		}
	}
	return n, nil
}

func (r *repoMem) CountByGender(_ context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, rec := range r.store.List(memstore.TablePatients) {
		if boolVal(rec["is_deleted"]) {
			continue
		}
		out[str(rec["gender"])]++
	}
	return out, nil
}
