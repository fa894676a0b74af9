package visit

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

type repoMem struct{ store *memstore.Store }

func NewRepoMem(store *memstore.Store) Repository {
	return &repoMem{store: store}
}

func (r *repoMem) Create(_ context.Context, v *Visit) error {
	patientRec, ok := r.store.Get(memstore.TablePatients, v.PatientID)
	if !ok || boolVal(patientRec["is_deleted"]) {
		return db.NewConstraintError("patient_id", "referenced row does not exist")
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	max := 0
	for _, rec := range r.store.List(memstore.TableVisits) {
		if str(rec["patient_id"]) == v.PatientID.String() {
			if n := intVal(rec["visit_number"]); n > max {
				max = n
			}
		}
	}
	v.VisitNumber = max + 1
	r.store.Put(memstore.TableVisits, v.ID, v.ToRecord())
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	rec, ok := r.store.Get(memstore.TableVisits, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	v := FromRecord(rec)
	if v.IsDeleted {
		return nil, db.ErrNotFound
	}
	return v, nil
}

func (r *repoMem) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Visit, error) {
	var items []*Visit
	for _, rec := range r.store.List(memstore.TableVisits) {
		v := FromRecord(rec)
		if v.IsDeleted || v.PatientID != patientID {
			continue
		}
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].VisitDate.Equal(items[j].VisitDate) {
			return items[i].VisitDate.After(items[j].VisitDate)
		}
		return strings.Compare(items[i].ID.String(), items[j].ID.String()) > 0
	})
	return items, nil
}

func (r *repoMem) Update(_ context.Context, v *Visit) error {
	rec, ok := r.store.Get(memstore.TableVisits, v.ID)
	if !ok {
		return db.ErrNotFound
	}
	stored := FromRecord(rec)
	if stored.IsDeleted {
		return db.ErrNotFound
	}
	if stored.LastModified.After(v.LastModified) {
		return db.ErrStaleWrite
	}
	// Patient binding, attending doctor and visit number never change after
	// create; only visit_date and notes are caller-writable, as in SQL.
	v.PatientID = stored.PatientID
	v.DoctorID = stored.DoctorID
	v.VisitNumber = stored.VisitNumber
	r.store.Put(memstore.TableVisits, v.ID, v.ToRecord())
	return nil
}

func (r *repoMem) Delete(_ context.Context, id uuid.UUID, at time.Time) error {
	rec, ok := r.store.Get(memstore.TableVisits, id)
	if !ok || boolVal(rec["is_deleted"]) {
		return db.ErrNotFound
	}
	tombstone := func(m memstore.Record) memstore.Record {
		m["is_deleted"] = db.EncodeBool(true)
		m["last_modified"] = db.EncodeTime(at)
		return m
	}
	r.store.Update(memstore.TableVisits, id, tombstone)
	for _, table := range []string{memstore.TablePrescriptions, memstore.TableLabOrders} {
		for _, c := range r.store.List(table) {
			if str(c["visit_id"]) != id.String() || boolVal(c["is_deleted"]) {
				continue
			}
			cid, _ := uuid.Parse(str(c["id"]))
			r.store.Update(table, cid, tombstone)
		}
	}
	return nil
}

func (r *repoMem) Count(_ context.Context) (int, error) {
	n := 0
	for _, rec := range r.store.List(memstore.TableVisits) {
		if !boolVal(rec["is_deleted"]) {
			n++
		}
	}
	return n, nil
}
